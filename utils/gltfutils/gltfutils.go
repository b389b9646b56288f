package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// AddNode appends node to the document, when root is set it is also placed in the default scene.
func AddNode(doc *gltf.Document, node *gltf.Node, root bool) uint32 {
	index := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, node)
	if root {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, index)
	}
	return index
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

// AddChannel appends a linear sampler over the input and output accessors and a channel
// driving path of node with it.
func AddChannel(anim *gltf.Animation, node, input, output uint32, path gltf.TRSProperty) {
	anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
		Input:         input,
		Output:        output,
		Interpolation: gltf.InterpolationLinear,
	})
	anim.Channels = append(anim.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}
