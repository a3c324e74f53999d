package semantics

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Target platform metadata for the only supported architecture. Both values
// must survive hotpatching; the linker forces patch modules to match them
// before merging.
const (
	TargetTriple = "x86_64-unknown-linux-gnu"
	DataLayout   = "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-f80:128-n8:16:32:64-S128"
)

// General-purpose register slots in the %struct.State gpr array. Slot order
// follows the x86-64 encoding order so a register's encoding index is its
// slot.
const (
	SlotRAX = iota
	SlotRCX
	SlotRDX
	SlotRBX
	SlotRSP
	SlotRBP
	SlotRSI
	SlotRDI
	SlotR8
	SlotR9
	SlotR10
	SlotR11
	SlotR12
	SlotR13
	SlotR14
	SlotR15

	// NumGPRSlots is the size of the gpr array in %struct.State.
	NumGPRSlots = 16
)

// Arch is an architecture handle: the target description plus its base
// semantics module.
type Arch struct {
	// OS and Name identify the target platform ("linux", "amd64").
	OS   string
	Name string

	// PtrSize is the pointer width in bytes.
	PtrSize int

	// Module is the semantics module. The hotpatch linker mutates it in
	// place; lifted functions are defined into it.
	Module *ir.Module

	// State is the %struct.State type: { [16 x i64] gprs, i64 rip }.
	State *types.StructType
}

// Get returns the architecture handle for the given platform, with the base
// semantics module loaded. Only linux/amd64 is supported; anything else is an
// error with no fallback.
func Get(osName, archName string) (*Arch, error) {
	if osName != "linux" || archName != "amd64" {
		return nil, fmt.Errorf("unsupported platform %s/%s: only linux/amd64 semantics are available", osName, archName)
	}

	a := &Arch{
		OS:      osName,
		Name:    archName,
		PtrSize: 8,
		Module:  ir.NewModule(),
	}
	a.Module.TargetTriple = TargetTriple
	a.Module.DataLayout = DataLayout

	gprs := types.NewArray(NumGPRSlots, types.I64)
	a.State = types.NewStruct(gprs, types.I64)
	a.Module.NewTypeDef("struct.State", a.State)

	a.buildSemantics()
	return a, nil
}

// StatePtrType returns the %struct.State* type.
func (a *Arch) StatePtrType() *types.PointerType {
	return types.NewPointer(a.State)
}

// MemoryType returns the opaque memory pointer type (i8*).
func (a *Arch) MemoryType() *types.PointerType {
	return types.I8Ptr
}

// IselGlobal returns the override-point global with the given exact name, or
// nil if the module does not define one. Lookup is by name on every call so
// that hotpatched definitions are picked up.
func (a *Arch) IselGlobal(name string) *ir.Global {
	for _, g := range a.Module.Globals {
		if g.Name() == name {
			return g
		}
	}
	return nil
}

// Selectors returns the names of all override-point globals currently defined
// in the semantics module, in module order.
func (a *Arch) Selectors() []string {
	var names []string
	for _, g := range a.Module.Globals {
		if isIselName(g.Name()) {
			names = append(names, g.Name())
		}
	}
	return names
}

// GPRPtr emits a getelementptr for the given register slot into block b.
func (a *Arch) GPRPtr(b *ir.Block, state value.Value, slot int) value.Value {
	return b.NewGetElementPtr(a.State, state,
		constant.NewInt(types.I32, 0),
		constant.NewInt(types.I32, 0),
		constant.NewInt(types.I64, int64(slot)))
}

// RIPPtr emits a getelementptr for the rip field into block b.
func (a *Arch) RIPPtr(b *ir.Block, state value.Value) value.Value {
	return b.NewGetElementPtr(a.State, state,
		constant.NewInt(types.I32, 0),
		constant.NewInt(types.I32, 1))
}

func isIselName(name string) bool {
	return len(name) > 5 && name[:5] == "ISEL_"
}
