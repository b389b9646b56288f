package prim

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/utils/gltfutils"
)

type GLTFObjectExported struct {
	GLTFMesh      *gltf.Mesh
	GLTFMeshIndex uint32
	MaterialId    uint16
}

type GLTFPrimExported struct {
	Objects []*GLTFObjectExported
}

// ExportGLTF appends one glTF mesh per object. Positions and normals are converted to Y-up.
func (rp *RenderPrimitive) ExportGLTF(doc *gltf.Document) (*GLTFPrimExported, error) {
	tfpe := &GLTFPrimExported{
		Objects: make([]*GLTFObjectExported, 0, len(rp.Objects)),
	}
	weighted := rp.PropertyFlags.Has(HeaderIsWeighted)

	for iObject, m := range rp.Objects {
		s := &m.SubMesh
		verticesCount := len(s.Vertices)
		if verticesCount == 0 {
			continue
		}

		positions := make([][3]float32, verticesCount)
		normals := make([][3]float32, verticesCount)
		tangents := make([][4]float32, verticesCount)
		colors := make([][4]uint8, verticesCount)
		for i, v := range s.Vertices {
			positions[i] = utils.ZUpToYUp(v.Position.Vec3())
			n := utils.ZUpToYUp(v.Normal.Vec3())
			if n.Len() > 0.5 {
				n = n.Normalize()
			}
			normals[i] = n
			t := utils.ZUpToYUp(v.Tangent.Vec3())
			if t.Len() > 0.5 {
				t = t.Normalize()
			}
			tangents[i] = t.Vec4(1)
			colors[i] = v.Color
		}

		attributes := make(map[string]uint32)
		attributes["POSITION"] = modeler.WritePosition(doc, positions)
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
		attributes["TANGENT"] = modeler.WriteTangent(doc, tangents)
		attributes["COLOR_0"] = modeler.WriteColor(doc, colors)

		for iLayer := 0; iLayer < s.NumUVChannels(); iLayer++ {
			uvs := make([][2]float32, verticesCount)
			for i, v := range s.Vertices {
				uvs[i] = v.UVs[iLayer]
			}
			attributes[fmt.Sprintf("TEXCOORD_%d", iLayer)] = modeler.WriteTextureCoord(doc, uvs)
		}

		if weighted {
			joints := make([][4]uint8, verticesCount)
			weights := make([][4]float32, verticesCount)
			for i, v := range s.Vertices {
				joints[i] = v.Joints[0]
				weights[i] = v.Weights[0]
			}
			attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
			attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)
		}

		tris := s.Triangles()
		indices := make([]uint16, len(tris))
		copy(indices, tris)
		indicesAccessor := modeler.WriteIndices(doc, indices)

		gltfMesh := &gltf.Mesh{
			Name: fmt.Sprintf("o%d_mat%d_lod%.2x", iObject, m.MaterialId, m.LodMask),
			Primitives: []*gltf.Primitive{
				{
					Indices:    gltf.Index(indicesAccessor),
					Attributes: attributes,
				},
			},
		}

		doc.Meshes = append(doc.Meshes, gltfMesh)
		tfpe.Objects = append(tfpe.Objects, &GLTFObjectExported{
			GLTFMesh:      gltfMesh,
			GLTFMeshIndex: uint32(len(doc.Meshes) - 1),
			MaterialId:    m.MaterialId,
		})
	}

	return tfpe, nil
}

// ExportGLTFDefault builds a standalone document with one node per object.
func (rp *RenderPrimitive) ExportGLTFDefault(name string) (*gltf.Document, error) {
	doc := gltfutils.NewDocument()

	tfpe, err := rp.ExportGLTF(doc)
	if err != nil {
		return nil, err
	}

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        "default",
		DoubleSided: true,
	})

	for _, object := range tfpe.Objects {
		for _, primitive := range object.GLTFMesh.Primitives {
			primitive.Material = gltf.Index(0)
		}
		object.GLTFMesh.Name = name + "_" + object.GLTFMesh.Name
		gltfutils.AddNode(doc, &gltf.Node{
			Name: object.GLTFMesh.Name,
			Mesh: gltf.Index(object.GLTFMeshIndex),
		}, true)
	}

	return doc, nil
}
