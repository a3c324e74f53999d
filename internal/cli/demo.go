package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sleightlabs/sleight/internal/exepath"
	"github.com/sleightlabs/sleight/internal/hotpatch"
	"github.com/sleightlabs/sleight/internal/lift"
	"github.com/sleightlabs/sleight/internal/optimize"
	"github.com/sleightlabs/sleight/internal/semantics"
	"github.com/sleightlabs/sleight/internal/trace"
)

// defaultHotpatchRel is the hotpatch location relative to the executable,
// matching the layout the helpers build step produces.
const defaultHotpatchRel = "helpers/x86_64/hotpatch.ll"

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Manifest string
	TraceDB  string
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo [hotpatch.ll]",
		Short: "Run the demonstration lifts",
		Long: `Load the linux/amd64 semantics module, apply a hotpatch if one is
available, then decode, lift, optimize and print each demonstration
instruction.

The hotpatch path defaults to ` + defaultHotpatchRel + ` next to the
executable. A missing or broken hotpatch is a warning; the demonstrations
run against the stock semantics. A decode or lift failure is fatal.

Examples:
  sleight demo
  sleight demo ./my-hotpatch.ll
  sleight demo --manifest demos.yaml --trace runs.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "YAML manifest overriding the built-in demonstrations")
	cmd.Flags().StringVar(&opts.TraceDB, "trace", "", "record lift runs to this SQLite database")

	return cmd
}

func runDemo(opts *DemoOptions, args []string, cmd *cobra.Command) error {
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

	demos := DefaultDemos()
	if opts.Manifest != "" {
		manifest, err := LoadManifest(opts.Manifest)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load manifest", err)
		}
		demos = manifest.Demos
	}

	var store *trace.Store
	if opts.TraceDB != "" {
		store, err = trace.Open(opts.TraceDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer store.Close()
	}

	patched := applyHotpatch(arch, args, formatter)

	runner := &demoRunner{
		arch:      arch,
		lifter:    lift.New(arch),
		formatter: formatter,
		store:     store,
		patched:   patched,
	}
	for _, demo := range demos {
		if err := runner.run(cmd.Context(), demo); err != nil {
			return err
		}
	}
	return nil
}

// applyHotpatch resolves the hotpatch path and applies it. Every failure mode
// here is non-fatal: the demonstrations proceed against the stock semantics.
// Returns whether a patch took effect.
func applyHotpatch(arch *semantics.Arch, args []string, formatter *OutputFormatter) bool {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		dir, err := exepath.Dir()
		if err != nil {
			formatter.Warn("cannot resolve executable directory: %v", err)
			return false
		}
		path = filepath.Join(dir, defaultHotpatchRel)
	}

	report, err := hotpatch.Apply(arch.Module, path)
	if err != nil {
		formatter.Warn("failed to apply hotpatch: %v", err)
		return false
	}
	formatter.VerboseLog("%s", report)
	for _, name := range report.Overridden {
		fmt.Fprintf(formatter.GetErrWriter(), "Hotpatching: %s\n", name)
	}
	return len(report.Overridden) > 0 || len(report.Added) > 0
}

// demoRunner carries the state shared by all demonstrations of one demo run.
type demoRunner struct {
	arch      *semantics.Arch
	lifter    *lift.Lifter
	formatter *OutputFormatter
	store     *trace.Store
	patched   bool
	seq       int
}

// demoResult is the JSON payload for one demonstration.
type demoResult struct {
	Name          string `json:"name"`
	Addr          uint64 `json:"addr"`
	Bytes         string `json:"bytes"`
	Selector      string `json:"selector"`
	UnoptimizedIR string `json:"unoptimized_ir,omitempty"`
	OptimizedIR   string `json:"optimized_ir"`
}

func (r *demoRunner) run(ctx context.Context, demo Demonstration) error {
	r.seq++
	r.formatter.Section(fmt.Sprintf("Lifting: %s", demo.Name))

	raw, err := demo.Raw()
	if err != nil {
		return WrapExitError(ExitCommandError, "bad demonstration", err)
	}

	inst, err := lift.Decode(demo.Addr, raw)
	if err != nil {
		r.record(ctx, demo, "", trace.StatusDecodeError, "", "")
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to decode %q", demo.Name), err)
	}
	r.formatter.VerboseLog("decoded: %s", inst)

	f := r.lifter.DefineLiftedFunction(liftedName(r.seq, demo.Name))
	block := f.Blocks[0]
	if err := r.lifter.LiftIntoBlock(inst, block); err != nil {
		r.record(ctx, demo, inst.Selector, trace.StatusLiftError, "", "")
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to lift %q", demo.Name), err)
	}
	r.lifter.FinishBlock(block)

	unoptimized := ""
	if demo.PrintUnoptimized {
		unoptimized = f.LLString()
		if r.formatter.Format == "text" {
			fmt.Fprintln(r.formatter.Writer, "[unoptimized]")
			fmt.Fprintln(r.formatter.Writer, unoptimized)
		}
	}

	optimize.Function(f)
	optimized := f.LLString()
	if r.formatter.Format == "text" {
		fmt.Fprintln(r.formatter.Writer, "[optimized]")
		fmt.Fprintln(r.formatter.Writer, optimized)
	} else {
		if err := r.formatter.Success(demoResult{
			Name:          demo.Name,
			Addr:          demo.Addr,
			Bytes:         demo.Bytes,
			Selector:      inst.Selector,
			UnoptimizedIR: unoptimized,
			OptimizedIR:   optimized,
		}); err != nil {
			return err
		}
	}

	r.record(ctx, demo, inst.Selector, trace.StatusLifted, unoptimized, optimized)
	return nil
}

func (r *demoRunner) record(ctx context.Context, demo Demonstration, selector, status, unoptimized, optimized string) {
	if r.store == nil {
		return
	}
	raw, err := demo.Raw()
	if err != nil {
		return
	}
	_, err = r.store.WriteRun(ctx, trace.Run{
		Name:          demo.Name,
		Addr:          demo.Addr,
		Bytes:         fmt.Sprintf("%x", raw),
		Selector:      selector,
		Patched:       r.patched,
		Status:        status,
		UnoptimizedIR: unoptimized,
		OptimizedIR:   optimized,
	})
	if err != nil {
		r.formatter.Warn("failed to record lift run: %v", err)
	}
}

// liftedName derives a valid IR function name from a demonstration name.
func liftedName(seq int, name string) string {
	sanitized := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sanitized = append(sanitized, r)
		case r == ' ' || r == ',':
			if n := len(sanitized); n > 0 && sanitized[n-1] != '_' {
				sanitized = append(sanitized, '_')
			}
		}
	}
	return fmt.Sprintf("lifted_%d_%s", seq, string(sanitized))
}
