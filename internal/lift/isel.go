package lift

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/sleightlabs/sleight/internal/semantics"
)

// gprSlot maps 64-bit general-purpose registers to their %struct.State slot.
var gprSlot = map[x86asm.Reg]int{
	x86asm.RAX: semantics.SlotRAX,
	x86asm.RCX: semantics.SlotRCX,
	x86asm.RDX: semantics.SlotRDX,
	x86asm.RBX: semantics.SlotRBX,
	x86asm.RSP: semantics.SlotRSP,
	x86asm.RBP: semantics.SlotRBP,
	x86asm.RSI: semantics.SlotRSI,
	x86asm.RDI: semantics.SlotRDI,
	x86asm.R8:  semantics.SlotR8,
	x86asm.R9:  semantics.SlotR9,
	x86asm.R10: semantics.SlotR10,
	x86asm.R11: semantics.SlotR11,
	x86asm.R12: semantics.SlotR12,
	x86asm.R13: semantics.SlotR13,
	x86asm.R14: semantics.SlotR14,
	x86asm.R15: semantics.SlotR15,
}

// selectorFor derives the ISEL_* override-point name for a decoded
// instruction: the mnemonic followed by one suffix per operand (GPRv for
// 64-bit registers, IMMv for immediates). Returns "" when the instruction or
// an operand kind has no selector naming.
func selectorFor(inst x86asm.Inst) string {
	switch inst.Op {
	case x86asm.CPUID:
		return "ISEL_CPUID"
	case x86asm.NOP:
		return "ISEL_NOP"
	case x86asm.MOV, x86asm.ADD, x86asm.SUB, x86asm.XOR:
		parts := []string{"ISEL_" + inst.Op.String()}
		for _, arg := range inst.Args {
			if arg == nil {
				break
			}
			switch a := arg.(type) {
			case x86asm.Reg:
				if _, ok := gprSlot[a]; !ok {
					return ""
				}
				parts = append(parts, "GPRv")
			case x86asm.Imm:
				parts = append(parts, "IMMv")
			default:
				return ""
			}
		}
		return strings.Join(parts, "_")
	}
	return ""
}
