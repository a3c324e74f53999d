package semantics

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// buildSemantics populates the base semantics module: one sem_* function and
// one ISEL_* override-point global per supported selector.
//
// The instruction subset is deliberately small. The point of the module is
// the selector indirection, not decoder breadth.
func (a *Arch) buildSemantics() {
	a.buildMov()
	a.buildArith("ADD", func(b *ir.Block, x, y value.Value) value.Value { return b.NewAdd(x, y) })
	a.buildArith("SUB", func(b *ir.Block, x, y value.Value) value.Value { return b.NewSub(x, y) })
	a.buildArith("XOR", func(b *ir.Block, x, y value.Value) value.Value { return b.NewXor(x, y) })
	a.buildNop()
	a.buildCPUID()
}

// newSemParams returns the two leading parameters shared by every semantic
// function.
func (a *Arch) newSemParams() (state, memory *ir.Param) {
	state = ir.NewParam("state", a.StatePtrType())
	memory = ir.NewParam("memory", a.MemoryType())
	return state, memory
}

// defineIsel binds a semantic function to its override-point global.
func (a *Arch) defineIsel(selector string, f *ir.Func) {
	a.Module.NewGlobalDef(selector, f)
}

func (a *Arch) buildMov() {
	m := a.Module

	// mov reg, imm
	{
		state, memory := a.newSemParams()
		dst := ir.NewParam("dst", types.NewPointer(types.I64))
		src := ir.NewParam("src", types.I64)
		f := m.NewFunc("sem_MOV_GPRv_IMMv", a.MemoryType(), state, memory, dst, src)
		b := f.NewBlock("entry")
		b.NewStore(src, dst)
		b.NewRet(memory)
		a.defineIsel("ISEL_MOV_GPRv_IMMv", f)
	}

	// mov reg, reg
	{
		state, memory := a.newSemParams()
		dst := ir.NewParam("dst", types.NewPointer(types.I64))
		src := ir.NewParam("src", types.NewPointer(types.I64))
		f := m.NewFunc("sem_MOV_GPRv_GPRv", a.MemoryType(), state, memory, dst, src)
		b := f.NewBlock("entry")
		v := b.NewLoad(types.I64, src)
		b.NewStore(v, dst)
		b.NewRet(memory)
		a.defineIsel("ISEL_MOV_GPRv_GPRv", f)
	}
}

// buildArith defines the reg,imm and reg,reg variants of a two-operand
// read-modify-write instruction.
func (a *Arch) buildArith(op string, apply func(b *ir.Block, x, y value.Value) value.Value) {
	m := a.Module

	{
		state, memory := a.newSemParams()
		dst := ir.NewParam("dst", types.NewPointer(types.I64))
		src := ir.NewParam("src", types.I64)
		f := m.NewFunc("sem_"+op+"_GPRv_IMMv", a.MemoryType(), state, memory, dst, src)
		b := f.NewBlock("entry")
		v := b.NewLoad(types.I64, dst)
		b.NewStore(apply(b, v, src), dst)
		b.NewRet(memory)
		a.defineIsel("ISEL_"+op+"_GPRv_IMMv", f)
	}

	{
		state, memory := a.newSemParams()
		dst := ir.NewParam("dst", types.NewPointer(types.I64))
		src := ir.NewParam("src", types.NewPointer(types.I64))
		f := m.NewFunc("sem_"+op+"_GPRv_GPRv", a.MemoryType(), state, memory, dst, src)
		b := f.NewBlock("entry")
		x := b.NewLoad(types.I64, dst)
		y := b.NewLoad(types.I64, src)
		b.NewStore(apply(b, x, y), dst)
		b.NewRet(memory)
		a.defineIsel("ISEL_"+op+"_GPRv_GPRv", f)
	}
}

func (a *Arch) buildNop() {
	state, memory := a.newSemParams()
	f := a.Module.NewFunc("sem_NOP", a.MemoryType(), state, memory)
	b := f.NewBlock("entry")
	b.NewRet(memory)
	a.defineIsel("ISEL_NOP", f)
}

// buildCPUID defines the stock CPUID semantics: rax, rbx, rcx and rdx are
// zeroed. This is the observable behavior a hotpatch is expected to replace.
func (a *Arch) buildCPUID() {
	state, memory := a.newSemParams()
	f := a.Module.NewFunc("sem_CPUID", a.MemoryType(), state, memory)
	b := f.NewBlock("entry")
	zero := constant.NewInt(types.I64, 0)
	for _, slot := range []int{SlotRAX, SlotRBX, SlotRCX, SlotRDX} {
		b.NewStore(zero, a.GPRPtr(b, state, slot))
	}
	b.NewRet(memory)
	a.defineIsel("ISEL_CPUID", f)
}
