package exepath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	p, err := Path()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestDir(t *testing.T) {
	dir, err := Dir()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(p))
}
