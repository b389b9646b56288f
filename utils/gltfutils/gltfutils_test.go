package gltfutils

import (
	"bytes"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodesAndChannels(t *testing.T) {
	doc := NewDocument()
	root := AddNode(doc, &gltf.Node{Name: "root"}, true)
	child := AddNode(doc, &gltf.Node{Name: "child"}, false)
	doc.Nodes[root].Children = append(doc.Nodes[root].Children, child)
	assert.Equal(t, []uint32{root}, doc.Scenes[0].Nodes)

	anim := &gltf.Animation{Name: "spin"}
	AddChannel(anim, child, 0, 1, gltf.TRSRotation)
	AddChannel(anim, root, 0, 2, gltf.TRSTranslation)
	require.Len(t, anim.Channels, 2)
	assert.Equal(t, uint32(1), *anim.Channels[1].Sampler)
	assert.Equal(t, root, *anim.Channels[1].Target.Node)
	assert.Equal(t, uint32(2), anim.Samplers[1].Output)

	var buf bytes.Buffer
	require.NoError(t, ExportBinary(&buf, doc))
	assert.Equal(t, "glTF", buf.String()[:4])
}
