package lift

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func TestDecode_MovImm(t *testing.T) {
	// mov rcx, 1337
	inst, err := Decode(0x1000, []byte{0x48, 0xc7, 0xc1, 0x39, 0x05, 0x00, 0x00})
	require.NoError(t, err)

	assert.Equal(t, uint64(0x1000), inst.Addr)
	assert.Len(t, inst.Bytes, 7)
	assert.Equal(t, x86asm.MOV, inst.Inst.Op)
	assert.Equal(t, "ISEL_MOV_GPRv_IMMv", inst.Selector)
}

func TestDecode_CPUID(t *testing.T) {
	inst, err := Decode(0x2000, []byte{0x0f, 0xa2})
	require.NoError(t, err)

	assert.Len(t, inst.Bytes, 2)
	assert.Equal(t, x86asm.CPUID, inst.Inst.Op)
	assert.Equal(t, "ISEL_CPUID", inst.Selector)
}

func TestDecode_TrailingBytesIgnored(t *testing.T) {
	// cpuid followed by garbage
	inst, err := Decode(0x2000, []byte{0x0f, 0xa2, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0f, 0xa2}, inst.Bytes)
}

func TestDecode_Truncated(t *testing.T) {
	_, err := Decode(0x1000, []byte{0x48})
	require.Error(t, err)

	var liftErr *Error
	require.True(t, errors.As(err, &liftErr))
	assert.Equal(t, ErrCodeDecodeFailed, liftErr.Code)
	assert.Equal(t, uint64(0x1000), liftErr.Addr)
}

func TestDecode_MemoryOperandHasNoSelector(t *testing.T) {
	// mov rax, [rcx] decodes fine but has no selector naming.
	inst, err := Decode(0x1000, []byte{0x48, 0x8b, 0x01})
	require.NoError(t, err)
	assert.Empty(t, inst.Selector)
}

func TestSelectorFor_RegReg(t *testing.T) {
	// mov rcx, rax
	inst, err := Decode(0x1000, []byte{0x48, 0x89, 0xc1})
	require.NoError(t, err)
	assert.Equal(t, "ISEL_MOV_GPRv_GPRv", inst.Selector)

	// xor rax, rax
	inst, err = Decode(0x1000, []byte{0x48, 0x31, 0xc0})
	require.NoError(t, err)
	assert.Equal(t, "ISEL_XOR_GPRv_GPRv", inst.Selector)
}

func TestSelectorFor_32BitRegisterUnsupported(t *testing.T) {
	// mov ecx, 1337: 32-bit destination has no GPRv selector.
	inst, err := Decode(0x1000, []byte{0xb9, 0x39, 0x05, 0x00, 0x00})
	require.NoError(t, err)
	assert.Empty(t, inst.Selector)
}
