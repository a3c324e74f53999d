package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiftCommand_Mov(t *testing.T) {
	out, _, err := execute(t, "lift", "48c7c139050000")
	require.NoError(t, err)

	assert.Contains(t, out, "define i8* @lifted(")
	assert.Contains(t, out, "store i64 1337,")
	assert.NotContains(t, out, "call", "semantics call is inlined away")
}

func TestLiftCommand_WhitespaceInBytes(t *testing.T) {
	// Same whitespace rules as manifest byte strings.
	out, _, err := execute(t, "lift", "48 c7\tc1 39 05 00 00")
	require.NoError(t, err)

	assert.Contains(t, out, "store i64 1337,")
}

func TestLiftCommand_NoOptimize(t *testing.T) {
	out, _, err := execute(t, "lift", "--no-optimize", "48c7c139050000")
	require.NoError(t, err)

	assert.Contains(t, out, "sem_MOV_GPRv_IMMv", "unoptimized body keeps the semantics call")
}

func TestLiftCommand_AddrFlag(t *testing.T) {
	out, _, err := execute(t, "lift", "--addr", "8192", "0fa2")
	require.NoError(t, err)

	// Next rip after a 2-byte instruction at 0x2000.
	assert.Contains(t, out, "store i64 8194,")
}

func TestLiftCommand_Patch(t *testing.T) {
	out, _, err := execute(t, "lift", "--addr", "8192", "--patch", "testdata/cpuid_patch.ll", "--no-optimize", "0fa2")
	require.NoError(t, err)

	assert.Contains(t, out, "sem_CPUID_sleight")
}

func TestLiftCommand_PatchFailureIsWarning(t *testing.T) {
	out, errOut, err := execute(t, "lift", "--patch", "testdata/does_not_exist.ll", "48c7c139050000")
	require.NoError(t, err, "hotpatch failure must not abort the lift")

	assert.Contains(t, errOut, "Warning:")
	assert.Contains(t, out, "store i64 1337,")
}

func TestLiftCommand_DumpModule(t *testing.T) {
	out, _, err := execute(t, "lift", "--dump-module", "48c7c139050000")
	require.NoError(t, err)

	assert.Contains(t, out, "target triple")
	assert.Contains(t, out, "@lifted")
	assert.NotContains(t, out, "sem_CPUID", "unreferenced semantics are swept")
}

func TestLiftCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "lift", "--format", "json", "0fa2")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ISEL_CPUID", data["selector"])
	assert.Contains(t, data["ir"], "define i8* @lifted(")
}

func TestLiftCommand_Errors(t *testing.T) {
	t.Run("bad hex", func(t *testing.T) {
		_, _, err := execute(t, "lift", "zz")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("truncated instruction", func(t *testing.T) {
		_, _, err := execute(t, "lift", "48")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})
}
