package hotpatch

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleightlabs/sleight/internal/semantics"
)

func baseArch(t *testing.T) *semantics.Arch {
	t.Helper()
	arch, err := semantics.Get("linux", "amd64")
	require.NoError(t, err)
	return arch
}

func countGlobals(m *ir.Module, name string) int {
	n := 0
	for _, g := range m.Globals {
		if g.Name() == name {
			n++
		}
	}
	return n
}

func TestApply_OverridesExistingSelector(t *testing.T) {
	arch := baseArch(t)
	m := arch.Module

	report, err := Apply(m, "testdata/cpuid_patch.ll")
	require.NoError(t, err)
	assert.Equal(t, []string{"ISEL_CPUID"}, report.Overridden)
	assert.Empty(t, report.Added)

	// Exactly one global carries the original name, now bound to the patch.
	require.Equal(t, 1, countGlobals(m, "ISEL_CPUID"))
	patched := arch.IselGlobal("ISEL_CPUID")
	require.NotNil(t, patched)
	f, ok := patched.Init.(*ir.Func)
	require.True(t, ok)
	assert.Equal(t, "sem_CPUID_sleight", f.Name())

	// The displaced definition survives under the suffixed name.
	require.Equal(t, 1, countGlobals(m, "ISEL_CPUID_original"))
	original := arch.IselGlobal("ISEL_CPUID_original")
	require.NotNil(t, original)
	of, ok := original.Init.(*ir.Func)
	require.True(t, ok)
	assert.Equal(t, "sem_CPUID", of.Name())
}

func TestApply_AdditiveSelector(t *testing.T) {
	arch := baseArch(t)
	m := arch.Module

	report, err := Apply(m, "testdata/additive.ll")
	require.NoError(t, err)
	assert.Empty(t, report.Overridden)
	assert.Equal(t, []string{"ISEL_RDTSC"}, report.Added)

	// Nothing renamed; the base selectors keep their definitions.
	assert.Equal(t, 0, countGlobals(m, "ISEL_RDTSC_original"))
	cpuid := arch.IselGlobal("ISEL_CPUID")
	require.NotNil(t, cpuid)
	assert.Equal(t, "sem_CPUID", cpuid.Init.(*ir.Func).Name())

	rdtsc := arch.IselGlobal("ISEL_RDTSC")
	require.NotNil(t, rdtsc)
	assert.Equal(t, "sem_RDTSC_fixed", rdtsc.Init.(*ir.Func).Name())
}

func TestApply_NoOverridePoints(t *testing.T) {
	arch := baseArch(t)
	m := arch.Module
	before := arch.Selectors()

	report, err := Apply(m, "testdata/no_isel.ll")
	require.NoError(t, err)
	assert.Empty(t, report.Overridden)
	assert.Empty(t, report.Added)

	// A no-op patch: selectors unchanged in name and definition.
	assert.Equal(t, before, arch.Selectors())
	assert.NotNil(t, findFunc(m, "sleight_helper_answer"))
}

func TestApply_MissingFile(t *testing.T) {
	arch := baseArch(t)
	before := arch.Module.String()

	_, err := Apply(arch.Module, "testdata/does_not_exist.ll")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hotpatch file not found")
	assert.Equal(t, before, arch.Module.String(), "base module should be untouched")
}

func TestApply_ParseError(t *testing.T) {
	arch := baseArch(t)
	before := arch.Module.String()

	_, err := Apply(arch.Module, "testdata/bad_syntax.ll")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse hotpatch module")
	assert.Equal(t, before, arch.Module.String(), "base module should be untouched")
}

func TestApply_TypeConflict(t *testing.T) {
	arch := baseArch(t)

	_, err := Apply(arch.Module, "testdata/type_conflict.ll")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting definitions of type")
}

func TestApply_KeepsTargetMetadata(t *testing.T) {
	arch := baseArch(t)

	_, err := Apply(arch.Module, "testdata/cpuid_patch.ll")
	require.NoError(t, err)
	assert.Equal(t, semantics.TargetTriple, arch.Module.TargetTriple)
	assert.Equal(t, semantics.DataLayout, arch.Module.DataLayout)
}

func TestReport_String(t *testing.T) {
	r := &Report{
		Path:       "patch.ll",
		Overridden: []string{"ISEL_CPUID"},
		Added:      []string{"ISEL_RDTSC"},
	}
	text := r.String()
	assert.Contains(t, text, "Hotpatch applied: patch.ll")
	assert.Contains(t, text, "overridden: ISEL_CPUID (original kept as ISEL_CPUID_original)")
	assert.Contains(t, text, "added: ISEL_RDTSC")

	empty := &Report{Path: "patch.ll"}
	assert.Contains(t, empty.String(), "no override points in patch")
}
