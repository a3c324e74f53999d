// Package optimize simplifies lifted functions.
//
// The pipeline is sized for semantics-module IR: single-block functions built
// from loads, stores, getelementptrs, integer arithmetic and calls. Functions
// using anything outside that subset are left untouched rather than
// half-optimized; correctness is preferred over coverage.
package optimize

import "github.com/llir/llvm/ir"

// Function runs the full pass pipeline on f, in place:
//
//  1. inline calls to module-local single-block functions
//  2. store-to-load forwarding
//  3. dead store elimination
//  4. dead instruction elimination
//
// Multi-block functions are returned unchanged; the block-local passes have
// no cross-block analysis.
func Function(f *ir.Func) {
	if len(f.Blocks) != 1 {
		return
	}

	// Inlining exposes the semantic bodies to the cleanup passes. Repeat
	// until fixpoint so inlined callees' own calls get inlined too. Each
	// callee is inlined at most once per function: a body that reintroduces
	// a call to an already-inlined callee is recursive, and that call stays.
	inlined := make(map[*ir.Func]bool)
	for inlineCalls(f, inlined) {
	}

	block := f.Blocks[0]
	forwardStores(block)
	elimDeadStores(block)
	elimDeadInsts(block)
}

// Module removes functions and globals not transitively referenced from the
// named roots. Mirrors a dead-global-elimination pass: after lifted functions
// have been optimized they no longer reference the semantic machinery, and
// dumping the module without it keeps the output focused.
func Module(m *ir.Module, roots ...string) {
	keep := markReachable(m, roots)

	funcs := m.Funcs[:0]
	for _, f := range m.Funcs {
		if keep[f.Name()] {
			funcs = append(funcs, f)
		}
	}
	m.Funcs = funcs

	globals := m.Globals[:0]
	for _, g := range m.Globals {
		if keep[g.Name()] {
			globals = append(globals, g)
		}
	}
	m.Globals = globals
}

// markReachable walks call and reference edges from the root symbols.
func markReachable(m *ir.Module, roots []string) map[string]bool {
	keep := make(map[string]bool)
	var work []string
	for _, name := range roots {
		if !keep[name] {
			keep[name] = true
			work = append(work, name)
		}
	}

	mark := func(name string) {
		if !keep[name] {
			keep[name] = true
			work = append(work, name)
		}
	}

	for len(work) > 0 {
		name := work[len(work)-1]
		work = work[:len(work)-1]

		for _, g := range m.Globals {
			if g.Name() != name {
				continue
			}
			if f, ok := g.Init.(*ir.Func); ok {
				mark(f.Name())
			}
		}
		for _, f := range m.Funcs {
			if f.Name() != name {
				continue
			}
			for _, block := range f.Blocks {
				for _, inst := range block.Insts {
					for _, op := range valueOperands(inst) {
						switch ref := (*op).(type) {
						case *ir.Func:
							mark(ref.Name())
						case *ir.Global:
							mark(ref.Name())
						}
					}
				}
			}
		}
	}
	return keep
}
