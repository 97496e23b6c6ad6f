package perf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	for _, m := range []Mode{ModeCPU, ModeHeap, ModeAllocs} {
		ran := false
		path, err := Run(dir, m, func() { ran = true })
		require.NoError(t, err, m)
		assert.True(t, ran)
		assert.Equal(t, filepath.Join(dir, string(m)+".pprof"), path)
		st, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, st.Size())
	}

	ran := false
	path, err := Run(dir, ModeNone, func() { ran = true })
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, path)

	_, err = ParseMode("trace")
	assert.Error(t, err)
	m, err := ParseMode("heap")
	require.NoError(t, err)
	assert.Equal(t, ModeHeap, m)
}
