package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sleightlabs/sleight/internal/hotpatch"
	"github.com/sleightlabs/sleight/internal/semantics"
)

// PatchOptions holds flags for the patch command.
type PatchOptions struct {
	*RootOptions
	Dump bool
}

// patchResult is the JSON payload for a patch run.
type patchResult struct {
	Path       string   `json:"path"`
	Overridden []string `json:"overridden"`
	Added      []string `json:"added"`
	Module     string   `json:"module,omitempty"`
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "patch <hotpatch.ll>",
		Short: "Apply a hotpatch and report its override points",
		Long: `Load the base semantics module, apply the given hotpatch module and
report which instruction selectors it overrides or adds.

Unlike demo, a hotpatch failure here is a hard error: the whole point of
the command is the patch.

Examples:
  sleight patch helpers/x86_64/hotpatch.ll
  sleight patch --dump my-hotpatch.ll`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "print the merged module")

	return cmd
}

func runPatch(opts *PatchOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	arch, err := semantics.Get("linux", "amd64")
	if err != nil {
		return WrapExitError(ExitFailure, "failed to get architecture semantics", err)
	}

	report, err := hotpatch.Apply(arch.Module, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to apply hotpatch", err)
	}

	if formatter.Format == "json" {
		result := patchResult{
			Path:       report.Path,
			Overridden: report.Overridden,
			Added:      report.Added,
		}
		if opts.Dump {
			result.Module = arch.Module.String()
		}
		return formatter.Success(result)
	}

	fmt.Fprint(formatter.Writer, report)
	if opts.Dump {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, arch.Module.String())
	}
	return nil
}
