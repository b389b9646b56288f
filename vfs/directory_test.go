package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryDriver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00A1.PRIM"), []byte{1, 2, 3, 4}, 0666))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "rigs"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".00A1.PRIM.tmp"), nil, 0666))

	d := NewDirectoryDriver(dir)
	list, err := d.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"00A1.PRIM", "rigs"}, list)

	_, err = DirectoryGetFile(d, "rigs")
	assert.Error(t, err)
	_, err = DirectoryGetFile(d, "../etc")
	assert.Error(t, err)

	entries, err := DirectoryEntries(d)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "00A1.PRIM", Size: 4}, {Name: "rigs", Size: entries[1].Size, IsDir: true}}, entries)

	f, err := DirectoryGetFile(d, "00A1.PRIM")
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.Size())

	data, err := ReadFile(f)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	require.NoError(t, f.Commit([]byte{5, 6}))
	data, err = ReadFile(f)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6}, data)
	assert.Equal(t, int64(2), f.Size())
}
