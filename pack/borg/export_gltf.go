package borg

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/utils/gltfutils"
)

type GLTFRigExported struct {
	// glTF node index for every bone
	Joints    []uint32
	SkinIndex uint32
}

// ExportGLTF adds one node per bone with its Y-up bind pose and a skin
// whose inverse bind matrices are computed from the same bind poses.
func (rig *BoneRig) ExportGLTF(doc *gltf.Document) (*GLTFRigExported, error) {
	if err := rig.ValidateHierarchy(); err != nil {
		return nil, err
	}
	if len(rig.BindPoses) != len(rig.Bones) {
		return nil, errors.Wrapf(utils.ErrStructuralMismatch, "%d bind poses for %d bones", len(rig.BindPoses), len(rig.Bones))
	}

	exp := &GLTFRigExported{Joints: make([]uint32, len(rig.Bones))}
	for i, b := range rig.Bones {
		node := &gltf.Node{
			Name:  b.Name,
			Scale: [3]float64{1, 1, 1},
		}
		t, r := rig.LocalBindPose(i)
		copy(node.Translation[:], utils.FloatArray32to64(t[:]))
		copy(node.Rotation[:], utils.FloatArray32to64([]float32{r.V[0], r.V[1], r.V[2], r.W}))

		exp.Joints[i] = gltfutils.AddNode(doc, node, b.PrevBoneNr < 0)
		if b.PrevBoneNr >= 0 {
			parent := doc.Nodes[exp.Joints[b.PrevBoneNr]]
			parent.Children = append(parent.Children, exp.Joints[i])
		}
	}

	global := rig.GlobalBindMatrices()
	inverse := make([][4][4]float32, len(global))
	for i, m := range global {
		inv := utils.ZUpToYUpMat(m).Inv()
		for col := 0; col < 4; col++ {
			c := inv.Col(col)
			inverse[i][col] = [4]float32{c[0], c[1], c[2], c[3]}
		}
	}

	skin := &gltf.Skin{
		Joints:              exp.Joints,
		InverseBindMatrices: gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, inverse)),
	}
	if len(exp.Joints) != 0 {
		skin.Skeleton = gltf.Index(exp.Joints[0])
	}
	doc.Skins = append(doc.Skins, skin)
	exp.SkinIndex = uint32(len(doc.Skins) - 1)
	return exp, nil
}

func (rig *BoneRig) ExportGLTFDefault(name string) (*gltf.Document, error) {
	doc := gltfutils.NewDocument()
	exp, err := rig.ExportGLTF(doc)
	if err != nil {
		return nil, err
	}
	doc.Skins[exp.SkinIndex].Name = name
	return doc, nil
}

// LocalBindPose returns the Y-up bind transform of a bone relative to its parent.
func (rig *BoneRig) LocalBindPose(bone int) (mgl32.Vec3, mgl32.Quat) {
	svq := rig.BindPoses[bone]
	return utils.ZUpToYUp(svq.Position.Vec3()), utils.ZUpToYUpQuat(svq.Rotation.Normalize())
}
