package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sleightlabs/sleight/internal/hotpatch"
	"github.com/sleightlabs/sleight/internal/lift"
	"github.com/sleightlabs/sleight/internal/optimize"
	"github.com/sleightlabs/sleight/internal/semantics"
)

// LiftOptions holds flags for the lift command.
type LiftOptions struct {
	*RootOptions
	Addr       uint64
	Patch      string
	NoOptimize bool
	DumpModule bool
}

// NewLiftCommand creates the lift command.
func NewLiftCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LiftOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lift <hexbytes>",
		Short: "Decode and lift one instruction",
		Long: `Decode the given hex-encoded bytes as a single x86-64 instruction and
print its lifted LLVM IR form.

Examples:
  sleight lift 48c7c139050000
  sleight lift --addr 0x2000 --patch hotpatch.ll 0fa2
  sleight lift --no-optimize 0fa2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLift(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Addr, "addr", 0x1000, "virtual address to decode at")
	cmd.Flags().StringVar(&opts.Patch, "patch", "", "hotpatch module to apply before lifting")
	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "print the unoptimized lifted body")
	cmd.Flags().BoolVar(&opts.DumpModule, "dump-module", false, "print the whole module after dead global elimination")

	return cmd
}

func runLift(opts *LiftOptions, hexBytes string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cleaned := strings.ReplaceAll(strings.ReplaceAll(hexBytes, " ", ""), "\t", "")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad hex bytes", err)
	}

	arch, err := semantics.Get("linux", "amd64")
	if err != nil {
		return WrapExitError(ExitFailure, "failed to get architecture semantics", err)
	}

	if opts.Patch != "" {
		report, err := hotpatch.Apply(arch.Module, opts.Patch)
		if err != nil {
			formatter.Warn("failed to apply hotpatch: %v", err)
		} else {
			formatter.VerboseLog("%s", report)
		}
	}

	inst, err := lift.Decode(opts.Addr, raw)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to decode instruction", err)
	}
	formatter.VerboseLog("decoded: %s", inst)

	lifter := lift.New(arch)
	f := lifter.DefineLiftedFunction("lifted")
	block := f.Blocks[0]
	if err := lifter.LiftIntoBlock(inst, block); err != nil {
		return WrapExitError(ExitFailure, "failed to lift instruction", err)
	}
	lifter.FinishBlock(block)

	if !opts.NoOptimize {
		optimize.Function(f)
	}

	if opts.DumpModule {
		optimize.Module(arch.Module, f.Name())
		return printIR(formatter, inst, arch.Module.String())
	}
	return printIR(formatter, inst, f.LLString())
}

func printIR(formatter *OutputFormatter, inst *lift.Instruction, text string) error {
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"instruction": inst.String(),
			"selector":    inst.Selector,
			"ir":          text,
		})
	}
	fmt.Fprintln(formatter.Writer, text)
	return nil
}
