package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleightlabs/sleight/internal/trace"
)

func seedTraceDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := trace.Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for _, run := range []trace.Run{
		{Name: "mov rcx, 1337", Addr: 0x1000, Bytes: "48c7c139050000", Selector: "ISEL_MOV_GPRv_IMMv", Status: trace.StatusLifted},
		{Name: "cpuid", Addr: 0x2000, Bytes: "0fa2", Selector: "ISEL_CPUID", Patched: true, Status: trace.StatusLifted},
		{Name: "broken", Addr: 0x3000, Bytes: "48", Status: trace.StatusDecodeError},
	} {
		_, err := store.WriteRun(ctx, run)
		require.NoError(t, err)
	}
	return path
}

func TestTraceCommand_List(t *testing.T) {
	db := seedTraceDB(t)

	out, _, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "ISEL_MOV_GPRv_IMMv")
	assert.Contains(t, out, "[P] lifted")
	assert.Contains(t, out, "decode_error")
	assert.Contains(t, out, "0x3000")
}

func TestTraceCommand_Limit(t *testing.T) {
	db := seedTraceDB(t)

	out, _, err := execute(t, "trace", "--db", db, "--limit", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "mov rcx, 1337")
	assert.NotContains(t, out, "cpuid")
}

func TestTraceCommand_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := trace.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, _, err := execute(t, "trace", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no lift runs recorded")
}

func TestTraceCommand_MissingDB(t *testing.T) {
	_, _, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
