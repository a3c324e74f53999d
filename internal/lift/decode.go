// Package lift decodes x86-64 instructions and lifts them into LLVM IR
// function bodies, resolving each instruction's semantics through the
// ISEL_* override points of a semantics module.
package lift

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// cpuMode is the x86 execution mode passed to the decoder.
const cpuMode = 64

// Instruction is a decoded machine instruction.
type Instruction struct {
	// Addr is the virtual address the instruction was decoded at.
	Addr uint64

	// Bytes holds exactly the encoded bytes of the instruction.
	Bytes []byte

	// Inst is the decoded form.
	Inst x86asm.Inst

	// Selector is the ISEL_* override-point name for this instruction, or
	// empty if no selector naming exists for it. Lifting an instruction with
	// no selector fails.
	Selector string
}

// String returns a short human-readable form: address, bytes, disassembly.
func (inst *Instruction) String() string {
	return fmt.Sprintf("%#x: %s %s", inst.Addr, hex.EncodeToString(inst.Bytes), x86asm.IntelSyntax(inst.Inst, inst.Addr, nil))
}

// Decode decodes the instruction at the start of code, assumed to live at
// addr. Trailing bytes beyond the first instruction are ignored.
func Decode(addr uint64, code []byte) (*Instruction, error) {
	inst, err := x86asm.Decode(code, cpuMode)
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeDecodeFailed,
			Addr:    addr,
			Message: fmt.Sprintf("cannot decode %s", hex.EncodeToString(code)),
			Err:     err,
		}
	}
	raw := make([]byte, inst.Len)
	copy(raw, code[:inst.Len])
	return &Instruction{
		Addr:     addr,
		Bytes:    raw,
		Inst:     inst,
		Selector: selectorFor(inst),
	}, nil
}
