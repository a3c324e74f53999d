package optimize

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"
)

// addrKey returns a stable key identifying the memory location a pointer
// value refers to, or ok=false when the location cannot be identified.
// Distinct keys never alias: keys are built from pointer identity plus a
// flattened constant index path, so a state slot addressed directly and one
// addressed through an intermediate getelementptr key identically.
func addrKey(v value.Value) (string, bool) {
	base, path, ok := addrPath(v)
	if !ok {
		return "", false
	}
	if len(path) == 0 {
		return base, true
	}
	var b strings.Builder
	b.WriteString("gep:")
	b.WriteString(base)
	for _, idx := range path {
		fmt.Fprintf(&b, ",%s", idx.String())
	}
	return b.String(), true
}

// addrPath resolves v to a root pointer plus a constant index path. Chained
// getelementptrs fold by the composition rule: the outer pointer's first
// index adds to the inner path's last, since both step in units of the inner
// result's element type. Any non-constant index gives up.
func addrPath(v value.Value) (string, []*big.Int, bool) {
	switch p := v.(type) {
	case *ir.InstGetElementPtr:
		base, path, ok := addrPath(p.Src)
		if !ok {
			return "", nil, false
		}
		for i, idx := range p.Indices {
			c, ok := idx.(*constant.Int)
			if !ok {
				return "", nil, false
			}
			if i == 0 && len(path) > 0 {
				last := path[len(path)-1]
				path[len(path)-1] = new(big.Int).Add(last, c.X)
				continue
			}
			path = append(path, new(big.Int).Set(c.X))
		}
		return base, path, true
	case *ir.Param, *ir.Global:
		return fmt.Sprintf("ptr:%p", v), nil, true
	default:
		return "", nil, false
	}
}

// forwardStores replaces loads with the value most recently stored to the
// same location within the block. Calls and stores through unidentified
// pointers invalidate all tracked locations.
func forwardStores(block *ir.Block) {
	if !supported(block) {
		return
	}

	avail := make(map[string]value.Value)
	replaced := make(map[value.Value]value.Value)

	var insts []ir.Instruction
	for _, inst := range block.Insts {
		rewriteOperands(inst, replaced)

		switch i := inst.(type) {
		case *ir.InstStore:
			if key, ok := addrKey(i.Dst); ok {
				avail[key] = i.Src
			} else {
				clear(avail)
			}
		case *ir.InstLoad:
			if key, ok := addrKey(i.Src); ok {
				if v, found := avail[key]; found && v.Type().Equal(i.ElemType) {
					replaced[i] = v
					continue // load dropped
				}
				avail[key] = i
			}
		case *ir.InstCall:
			// The callee may write any location.
			clear(avail)
		}
		insts = append(insts, inst)
	}
	block.Insts = insts

	if ops, ok := termOperands(block.Term); ok {
		for _, op := range ops {
			if r, found := replaced[*op]; found {
				*op = r
			}
		}
	}
}

// elimDeadStores removes stores that are overwritten by a later store to the
// same location with no intervening read. A call or a load through an
// unidentified pointer counts as a read of everything. Stores live at block
// exit are kept: the state escapes through the function's parameters.
func elimDeadStores(block *ir.Block) {
	if !supported(block) {
		return
	}

	overwritten := make(map[string]bool)
	dead := make(map[ir.Instruction]bool)

	for idx := len(block.Insts) - 1; idx >= 0; idx-- {
		switch i := block.Insts[idx].(type) {
		case *ir.InstStore:
			key, ok := addrKey(i.Dst)
			if !ok {
				clear(overwritten)
				continue
			}
			if overwritten[key] {
				dead[i] = true
				continue
			}
			overwritten[key] = true
		case *ir.InstLoad:
			if key, ok := addrKey(i.Src); ok {
				delete(overwritten, key)
			} else {
				clear(overwritten)
			}
		case *ir.InstCall:
			clear(overwritten)
		}
	}

	if len(dead) == 0 {
		return
	}
	insts := block.Insts[:0]
	for _, inst := range block.Insts {
		if !dead[inst] {
			insts = append(insts, inst)
		}
	}
	block.Insts = insts
}

// elimDeadInsts removes side-effect-free instructions whose results are
// unused, repeating until fixpoint so chains (a getelementptr feeding only a
// dead load) unwind fully.
func elimDeadInsts(block *ir.Block) {
	if !supported(block) {
		return
	}

	for {
		used := make(map[value.Value]bool)
		for _, inst := range block.Insts {
			for _, op := range valueOperands(inst) {
				used[*op] = true
			}
		}
		if ops, ok := termOperands(block.Term); ok {
			for _, op := range ops {
				used[*op] = true
			}
		}

		removed := false
		insts := block.Insts[:0]
		for _, inst := range block.Insts {
			if v, isVal := inst.(value.Value); isVal && pure(inst) && !used[v] {
				removed = true
				continue
			}
			insts = append(insts, inst)
		}
		block.Insts = insts
		if !removed {
			return
		}
	}
}
