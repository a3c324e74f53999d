// Package semantics provides the architecture handle and the base
// instruction-semantics module.
//
// The semantics module is an LLVM IR module holding one semantic function
// (sem_*) per supported instruction selector, plus one ISEL_* global per
// selector whose initializer points at the implementing function. The ISEL_*
// globals are the override points: the hotpatch linker replaces them by name,
// and the lifter resolves instructions through them, so a hotpatched selector
// transparently redirects every subsequent lift.
//
// # Semantic function ABI
//
// Every semantic function takes the machine state pointer and the opaque
// memory pointer, followed by its operands, and returns the (possibly new)
// memory pointer:
//
//	i8* @sem_MOV_GPRv_IMMv(%struct.State* %state, i8* %memory, i64* %dst, i64 %src)
//
// Register operands are passed as pointers to the i64 slot inside
// %struct.State; immediates are passed as i64 values.
package semantics
