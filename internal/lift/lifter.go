package lift

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"golang.org/x/arch/x86/x86asm"

	"github.com/sleightlabs/sleight/internal/semantics"
)

// Lifter lifts decoded instructions into LLVM IR using the semantic functions
// of an architecture's semantics module.
//
// Selector resolution happens at lift time by name, so instructions lifted
// after a hotpatch resolve to the patched semantics.
type Lifter struct {
	arch *semantics.Arch

	// Live memory pointer per block: the result of the last semantic call,
	// or the function's memory parameter before any call.
	memory map[*ir.Block]value.Value
}

// New returns a lifter bound to arch.
func New(arch *semantics.Arch) *Lifter {
	return &Lifter{
		arch:   arch,
		memory: make(map[*ir.Block]value.Value),
	}
}

// DefineLiftedFunction defines a fresh lifted function in the semantics
// module, with the lifted-function ABI and an empty entry block:
//
//	i8* @name(%struct.State* %state, i64 %pc, i8* %memory)
func (l *Lifter) DefineLiftedFunction(name string) *ir.Func {
	state := ir.NewParam("state", l.arch.StatePtrType())
	pc := ir.NewParam("pc", types.I64)
	memory := ir.NewParam("memory", l.arch.MemoryType())
	f := l.arch.Module.NewFunc(name, l.arch.MemoryType(), state, pc, memory)
	f.NewBlock("entry")
	return f
}

// LiftIntoBlock lifts one instruction into block: it advances rip, resolves
// the instruction's selector to a semantic function, materializes the
// operands and emits the call. block must belong to a function defined by
// DefineLiftedFunction.
func (l *Lifter) LiftIntoBlock(inst *Instruction, block *ir.Block) error {
	if inst.Selector == "" {
		return &Error{
			Code:    ErrCodeNoSemantics,
			Addr:    inst.Addr,
			Message: "no selector naming for instruction " + inst.Inst.Op.String(),
		}
	}

	callee, err := l.resolve(inst)
	if err != nil {
		return err
	}

	f := block.Parent
	state := f.Params[0]
	mem := l.memoryIn(block)

	// rip points past the lifted instruction.
	next := constant.NewInt(types.I64, int64(inst.Addr)+int64(len(inst.Bytes)))
	block.NewStore(next, l.arch.RIPPtr(block, state))

	args := []value.Value{state, mem}
	for _, arg := range inst.Inst.Args {
		if arg == nil {
			break
		}
		switch a := arg.(type) {
		case x86asm.Reg:
			slot, ok := gprSlot[a]
			if !ok {
				return &Error{
					Code:     ErrCodeUnsupportedOperand,
					Addr:     inst.Addr,
					Selector: inst.Selector,
					Message:  "register " + a.String() + " has no state slot",
				}
			}
			args = append(args, l.arch.GPRPtr(block, state, slot))
		case x86asm.Imm:
			args = append(args, constant.NewInt(types.I64, int64(a)))
		default:
			return &Error{
				Code:     ErrCodeUnsupportedOperand,
				Addr:     inst.Addr,
				Selector: inst.Selector,
				Message:  "operand kind not liftable",
			}
		}
	}

	if len(callee.Params) != len(args) {
		return &Error{
			Code:     ErrCodeBadSelector,
			Addr:     inst.Addr,
			Selector: inst.Selector,
			Message:  "semantic function arity does not match operands",
		}
	}

	call := block.NewCall(callee, args...)
	l.memory[block] = call
	return nil
}

// FinishBlock terminates block by returning its live memory pointer.
func (l *Lifter) FinishBlock(block *ir.Block) {
	block.NewRet(l.memoryIn(block))
}

// resolve finds the semantic function behind the instruction's override
// point.
func (l *Lifter) resolve(inst *Instruction) (*ir.Func, error) {
	g := l.arch.IselGlobal(inst.Selector)
	if g == nil {
		return nil, &Error{
			Code:     ErrCodeNoSemantics,
			Addr:     inst.Addr,
			Selector: inst.Selector,
			Message:  "no override point in semantics module",
		}
	}
	callee, ok := g.Init.(*ir.Func)
	if !ok {
		return nil, &Error{
			Code:     ErrCodeBadSelector,
			Addr:     inst.Addr,
			Selector: inst.Selector,
			Message:  "override point does not reference a function",
		}
	}
	return callee, nil
}

// memoryIn returns the live memory pointer for block.
func (l *Lifter) memoryIn(block *ir.Block) value.Value {
	if mem, ok := l.memory[block]; ok {
		return mem
	}
	return block.Parent.Params[2]
}
