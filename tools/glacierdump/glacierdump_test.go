package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/glacier_browser/pack/vtxd"
)

func TestDumpFormats(t *testing.T) {
	vd := &vtxd.VertexData{SubMeshes: []vtxd.SubMesh{{Id: 7, Colors: []vtxd.Color{{1, 2, 3, 4}}}}}

	out, err := dump(vd, "yaml", 0)
	require.NoError(t, err)
	assert.Contains(t, string(out), "id: 7")

	out, err = dump(vd, "json", 0)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Id": 7`)

	out, err = dump(vd, "spew", 1)
	require.NoError(t, err)
	assert.Contains(t, string(out), "VertexData")

	_, err = dump(vd, "xml", 0)
	assert.Error(t, err)
}
