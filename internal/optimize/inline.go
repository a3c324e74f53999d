package optimize

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// inlineCalls inlines every call in f whose callee is a module-local,
// single-block function built from supported instructions. Callees already in
// inlined are skipped, which bounds recursive and mutually recursive chains:
// without the set, re-expanding a self-calling callee never reaches fixpoint.
// Callees inlined during this pass are added to the set. Returns true if any
// call was inlined.
func inlineCalls(f *ir.Func, inlined map[*ir.Func]bool) bool {
	pass := make(map[*ir.Func]bool)
	changed := false
	for _, block := range f.Blocks {
		if inlineInBlock(f, block, inlined, pass) {
			changed = true
		}
	}
	for callee := range pass {
		inlined[callee] = true
	}
	return changed
}

func inlineInBlock(f *ir.Func, block *ir.Block, inlined, pass map[*ir.Func]bool) bool {
	// Values replaced by inlining; later operand references are rewritten.
	replaced := make(map[value.Value]value.Value)
	changed := false

	var insts []ir.Instruction
	for _, inst := range block.Insts {
		rewriteOperands(inst, replaced)

		call, ok := inst.(*ir.InstCall)
		if !ok {
			insts = append(insts, inst)
			continue
		}
		callee, ok := inlinableCallee(f, call)
		if !ok || inlined[callee] {
			insts = append(insts, inst)
			continue
		}

		body, retVal, ok := cloneBody(callee, call.Args)
		if !ok {
			insts = append(insts, inst)
			continue
		}
		pass[callee] = true
		insts = append(insts, body...)
		if retVal != nil {
			replaced[call] = retVal
		}
		changed = true
	}

	if changed {
		block.Insts = insts
		if ops, ok := termOperands(block.Term); ok {
			for _, op := range ops {
				if r, found := replaced[*op]; found {
					*op = r
				}
			}
		}
	}
	return changed
}

// inlinableCallee returns the callee if the call can be inlined: a defined
// function in the same module, not f itself, exactly one block, terminated by
// ret, matching arity.
func inlinableCallee(f *ir.Func, call *ir.InstCall) (*ir.Func, bool) {
	callee, ok := call.Callee.(*ir.Func)
	if !ok || callee == f || callee.Parent != f.Parent {
		return nil, false
	}
	if len(callee.Blocks) != 1 || len(callee.Params) != len(call.Args) {
		return nil, false
	}
	if _, ok := callee.Blocks[0].Term.(*ir.TermRet); !ok {
		return nil, false
	}
	if !supported(callee.Blocks[0]) {
		return nil, false
	}
	return callee, true
}

// cloneBody clones the callee's single block with parameters substituted by
// the call arguments. Returns the cloned instructions and the remapped return
// value (nil for void).
func cloneBody(callee *ir.Func, args []value.Value) (body []ir.Instruction, retVal value.Value, ok bool) {
	remap := make(map[value.Value]value.Value, len(callee.Params))
	for i, p := range callee.Params {
		remap[p] = args[i]
	}
	resolve := func(v value.Value) value.Value {
		if r, found := remap[v]; found {
			return r
		}
		return v
	}

	for _, inst := range callee.Blocks[0].Insts {
		clone, cok := cloneInst(inst, resolve)
		if !cok {
			return nil, nil, false
		}
		// Stores produce no value; everything else can be referenced later.
		if instVal, isVal := inst.(value.Value); isVal {
			remap[instVal] = clone.(value.Value)
		}
		body = append(body, clone)
	}

	ret := callee.Blocks[0].Term.(*ir.TermRet)
	if ret.X != nil {
		retVal = resolve(ret.X)
	}
	return body, retVal, true
}

// cloneInst clones one instruction, mapping operands through resolve.
func cloneInst(inst ir.Instruction, resolve func(value.Value) value.Value) (ir.Instruction, bool) {
	switch i := inst.(type) {
	case *ir.InstLoad:
		return ir.NewLoad(i.ElemType, resolve(i.Src)), true
	case *ir.InstStore:
		return ir.NewStore(resolve(i.Src), resolve(i.Dst)), true
	case *ir.InstGetElementPtr:
		indices := make([]value.Value, len(i.Indices))
		for idx, v := range i.Indices {
			indices[idx] = resolve(v)
		}
		return ir.NewGetElementPtr(i.ElemType, resolve(i.Src), indices...), true
	case *ir.InstAdd:
		return ir.NewAdd(resolve(i.X), resolve(i.Y)), true
	case *ir.InstSub:
		return ir.NewSub(resolve(i.X), resolve(i.Y)), true
	case *ir.InstMul:
		return ir.NewMul(resolve(i.X), resolve(i.Y)), true
	case *ir.InstAnd:
		return ir.NewAnd(resolve(i.X), resolve(i.Y)), true
	case *ir.InstOr:
		return ir.NewOr(resolve(i.X), resolve(i.Y)), true
	case *ir.InstXor:
		return ir.NewXor(resolve(i.X), resolve(i.Y)), true
	case *ir.InstShl:
		return ir.NewShl(resolve(i.X), resolve(i.Y)), true
	case *ir.InstLShr:
		return ir.NewLShr(resolve(i.X), resolve(i.Y)), true
	case *ir.InstICmp:
		return ir.NewICmp(i.Pred, resolve(i.X), resolve(i.Y)), true
	case *ir.InstZExt:
		return ir.NewZExt(resolve(i.From), i.To), true
	case *ir.InstSExt:
		return ir.NewSExt(resolve(i.From), i.To), true
	case *ir.InstTrunc:
		return ir.NewTrunc(resolve(i.From), i.To), true
	case *ir.InstBitCast:
		return ir.NewBitCast(resolve(i.From), i.To), true
	case *ir.InstCall:
		args := make([]value.Value, len(i.Args))
		for idx, v := range i.Args {
			args[idx] = resolve(v)
		}
		return ir.NewCall(resolve(i.Callee), args...), true
	default:
		return nil, false
	}
}

// rewriteOperands rewrites inst's operands through the replacement map.
func rewriteOperands(inst ir.Instruction, replaced map[value.Value]value.Value) {
	ops, ok := operands(inst)
	if !ok {
		return
	}
	for _, op := range ops {
		if r, found := replaced[*op]; found {
			*op = r
		}
	}
}
