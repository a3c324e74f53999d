package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestWriteRun_AssignsID(t *testing.T) {
	s := openStore(t)

	id, err := s.WriteRun(context.Background(), Run{
		Name:     "cpuid",
		Addr:     0x2000,
		Bytes:    "0fa2",
		Selector: "ISEL_CPUID",
		Patched:  true,
		Status:   StatusLifted,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := Run{ID: "fixed-id", Name: "cpuid", Addr: 0x2000, Bytes: "0fa2", Status: StatusLifted}
	_, err := s.WriteRun(ctx, run)
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, run)
	require.NoError(t, err, "duplicate ID should be silently ignored")

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRuns_RoundTripAndOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := Run{
		Name:          "mov rcx, 1337",
		Addr:          0x1000,
		Bytes:         "48c7c139050000",
		Selector:      "ISEL_MOV_GPRv_IMMv",
		Status:        StatusLifted,
		UnoptimizedIR: "define ...",
		OptimizedIR:   "define ...",
	}
	second := Run{
		Name:    "bogus",
		Addr:    0x3000,
		Bytes:   "48",
		Status:  StatusDecodeError,
		Patched: true,
	}
	_, err := s.WriteRun(ctx, first)
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, second)
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "mov rcx, 1337", runs[0].Name)
	assert.Equal(t, uint64(0x1000), runs[0].Addr)
	assert.Equal(t, "ISEL_MOV_GPRv_IMMv", runs[0].Selector)
	assert.False(t, runs[0].Patched)
	assert.Equal(t, StatusLifted, runs[0].Status)
	assert.False(t, runs[0].CreatedAt.IsZero())

	assert.Equal(t, "bogus", runs[1].Name)
	assert.True(t, runs[1].Patched)
	assert.Equal(t, StatusDecodeError, runs[1].Status)
}

func TestListRuns_Limit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.WriteRun(ctx, Run{Name: "n", Addr: uint64(i), Bytes: "90", Status: StatusLifted})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestListRuns_Empty(t *testing.T) {
	s := openStore(t)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
