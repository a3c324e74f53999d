// Package hotpatch links a secondary semantics module over a base module.
//
// Instruction selection works through ISEL_* override-point globals: each one
// points at the semantic function implementing an instruction. To replace an
// instruction's semantics, a patch module defines a same-named ISEL_* global
// pointing at its own implementation. Apply renames the base module's
// colliding globals (suffixing them with _original, which keeps the stock
// definition reachable) and then merges the patch with a source-wins policy,
// so the patch's definitions take over the contested names.
package hotpatch

import (
	"fmt"
	"os"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
)

const (
	// IselPrefix marks override-point globals.
	IselPrefix = "ISEL_"

	// OriginalSuffix is appended to a base global displaced by a patch.
	OriginalSuffix = "_original"
)

// Report describes what a successful Apply did to the base module.
type Report struct {
	// Path of the patch module.
	Path string

	// Overridden lists selectors that existed in the base module and now
	// resolve to the patch's definition. For each entry the base definition
	// survives under name+OriginalSuffix.
	Overridden []string

	// Added lists selectors the patch introduced that had no base
	// counterpart. These merge additively with no rename.
	Added []string
}

// Apply parses the patch module at path and links it into base.
//
// A missing file or an unparsable patch returns an error with base untouched;
// callers treat these as non-fatal and continue unpatched. A merge failure
// also returns an error, but the base module may already be partially
// modified. There is no rollback.
func Apply(base *ir.Module, path string) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("hotpatch file not found: %w", err)
	}

	patch, err := asm.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse hotpatch module %s: %w", path, err)
	}

	// Make the patch's target platform metadata consistent with the base
	// module before merging.
	patch.TargetTriple = base.TargetTriple
	patch.DataLayout = base.DataLayout

	report := &Report{Path: path}

	// Rename colliding override points so the patch's definitions win the
	// merge while the originals stay reachable under a new name.
	for _, g := range patch.Globals {
		name := g.Name()
		if !strings.HasPrefix(name, IselPrefix) {
			continue
		}
		if existing := findGlobal(base, name); existing != nil {
			existing.SetName(name + OriginalSuffix)
			report.Overridden = append(report.Overridden, name)
		} else {
			report.Added = append(report.Added, name)
		}
	}

	if err := merge(base, patch); err != nil {
		return nil, fmt.Errorf("link hotpatch module %s: %w", path, err)
	}
	return report, nil
}

// String renders the report for human-readable output.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hotpatch applied: %s\n", r.Path)
	for _, name := range r.Overridden {
		fmt.Fprintf(&b, "  overridden: %s (original kept as %s%s)\n", name, name, OriginalSuffix)
	}
	for _, name := range r.Added {
		fmt.Fprintf(&b, "  added: %s\n", name)
	}
	if len(r.Overridden) == 0 && len(r.Added) == 0 {
		b.WriteString("  no override points in patch\n")
	}
	return b.String()
}

func findGlobal(m *ir.Module, name string) *ir.Global {
	for _, g := range m.Globals {
		if g.Name() == name {
			return g
		}
	}
	return nil
}

func findFunc(m *ir.Module, name string) *ir.Func {
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}
