package optimize

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// operands returns pointers to the value operands of inst, so passes can
// rewrite them in place. ok is false for instruction kinds outside the
// supported subset; passes treat those functions as untouchable.
func operands(inst ir.Instruction) (ops []*value.Value, ok bool) {
	switch i := inst.(type) {
	case *ir.InstLoad:
		return []*value.Value{&i.Src}, true
	case *ir.InstStore:
		return []*value.Value{&i.Src, &i.Dst}, true
	case *ir.InstGetElementPtr:
		ops = []*value.Value{&i.Src}
		for idx := range i.Indices {
			ops = append(ops, &i.Indices[idx])
		}
		return ops, true
	case *ir.InstAdd:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstSub:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstMul:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstAnd:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstOr:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstXor:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstShl:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstLShr:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstICmp:
		return []*value.Value{&i.X, &i.Y}, true
	case *ir.InstZExt:
		return []*value.Value{&i.From}, true
	case *ir.InstSExt:
		return []*value.Value{&i.From}, true
	case *ir.InstTrunc:
		return []*value.Value{&i.From}, true
	case *ir.InstBitCast:
		return []*value.Value{&i.From}, true
	case *ir.InstCall:
		ops = []*value.Value{&i.Callee}
		for idx := range i.Args {
			ops = append(ops, &i.Args[idx])
		}
		return ops, true
	default:
		return nil, false
	}
}

// valueOperands is operands without the support flag, for callers that only
// read.
func valueOperands(inst ir.Instruction) []*value.Value {
	ops, _ := operands(inst)
	return ops
}

// termOperands returns pointers to the value operands of a block terminator.
func termOperands(term ir.Terminator) (ops []*value.Value, ok bool) {
	switch t := term.(type) {
	case *ir.TermRet:
		if t.X == nil {
			return nil, true
		}
		return []*value.Value{&t.X}, true
	default:
		return nil, false
	}
}

// pure reports whether inst has no side effects and may be dropped when its
// result is unused.
func pure(inst ir.Instruction) bool {
	switch inst.(type) {
	case *ir.InstStore, *ir.InstCall:
		return false
	default:
		_, ok := operands(inst)
		return ok
	}
}

// supported reports whether every instruction and terminator of the block is
// in the subset the passes understand.
func supported(block *ir.Block) bool {
	for _, inst := range block.Insts {
		if _, ok := operands(inst); !ok {
			return false
		}
	}
	_, ok := termOperands(block.Term)
	return ok
}
