package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/glacier_browser/pack/vtxd"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vd := &vtxd.VertexData{SubMeshes: []vtxd.SubMesh{{Id: 1, Colors: []vtxd.Color{{1, 2, 3, 4}}}}}
	data, err := vd.Marshal(nil)
	require.NoError(t, err)

	in := filepath.Join(dir, "in.VTXD")
	out := filepath.Join(dir, "out.VTXD")
	require.NoError(t, os.WriteFile(in, data, 0666))

	identical, err := roundTrip(in, out, nil)
	require.NoError(t, err)
	assert.True(t, identical)
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	// trailing garbage is dropped on encode
	require.NoError(t, os.WriteFile(in, append(data, 0xff), 0666))
	identical, err = roundTrip(in, out, nil)
	require.NoError(t, err)
	assert.False(t, identical)

	_, err = roundTrip(filepath.Join(dir, "missing.VTXD"), out, nil)
	assert.Error(t, err)
}
