package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.prim")

	require.NoError(t, CommitFile(path, func() ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	err = CommitFile(path, func() ([]byte, error) {
		return nil, errors.Wrap(ErrUserInputMismatch, "no uv map")
	})
	assert.True(t, errors.Is(err, ErrUserInputMismatch))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data, "failed export must not touch committed output")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
