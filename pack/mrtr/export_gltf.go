package mrtr

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/utils/gltfutils"
)

// ExportGLTF adds one Y-up node per bone and returns the node index of every bone.
func (r *Rig) ExportGLTF(doc *gltf.Document) ([]uint32, error) {
	if err := r.ValidateHierarchy(); err != nil {
		return nil, err
	}

	joints := make([]uint32, len(r.Parents))
	for i, parent := range r.Parents {
		name := fmt.Sprintf("bone_%d", i)
		if i < len(r.Names) {
			name = r.Names[i]
		}
		t := utils.ZUpToYUp(r.Positions[i].Vec3())
		q := utils.ZUpToYUpQuat(r.Quaternions[i].Normalize())
		joints[i] = gltfutils.AddNode(doc, &gltf.Node{
			Name:        name,
			Translation: [3]float64{float64(t[0]), float64(t[1]), float64(t[2])},
			Rotation:    [4]float64{float64(q.V[0]), float64(q.V[1]), float64(q.V[2]), float64(q.W)},
			Scale:       [3]float64{1, 1, 1},
		}, parent == BONE_PARENT_NONE)
	}
	for i, parent := range r.Parents {
		if parent != BONE_PARENT_NONE {
			node := doc.Nodes[joints[parent]]
			node.Children = append(node.Children, joints[i])
		}
	}
	return joints, nil
}
