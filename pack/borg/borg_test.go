package borg

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/utils/gltfutils"
)

func chainRig(parents ...int32) *BoneRig {
	names := utils.NewNameGenerator(BONE_NAME_SIZE-1, 0)
	rig := &BoneRig{}
	for i, p := range parents {
		rig.Bones = append(rig.Bones, BoneDefinition{
			Center:     mgl32.Vec3{0, 0, float32(i)},
			PrevBoneNr: p,
			Size:       mgl32.Vec3{0.1, 0.1, 0.1},
			Name:       names.Name(),
			BodyPart:   int16(i),
		})
		rig.BindPoses = append(rig.BindPoses, SVQ{
			Rotation: mgl32.QuatIdent(),
			Position: mgl32.Vec4{0, 0, 1, 0},
		})
	}
	if err := rig.UpdateInverseMatrices(); err != nil {
		panic(err)
	}
	return rig
}

func TestHierarchyRoundTrip(t *testing.T) {
	rig := chainRig(-1, 0, 1)
	rig.Constraints = []BoneConstraint{&LookAtConstraint{
		BoneIndex:  2,
		LookAtAxis: 1,
		Targets: []LookAtTarget{
			{ParentIdx: 1, Weight: 1, Position: mgl32.Vec3{0, 1, 0}},
		},
		UpPosition: mgl32.Vec3{0, 0, 1},
	}}
	rig.Poses = PoseLibrary{
		Bones: []PoseBone{
			{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec4{1, 1, 1, 1}},
			{Rotation: mgl32.QuatIdent(), Position: mgl32.Vec4{0, 0, 2, 0}, Scale: mgl32.Vec4{1, 1, 1, 1}},
		},
		BoneIndices: []uint32{1, 2},
		Poses: []Pose{
			{Name: "smile", FirstBone: 0, BoneCount: 1},
			{Name: "frown_wide", FirstBone: 1, BoneCount: 1},
		},
		FaceBoneIndices: []uint32{1, 2},
	}

	data, err := rig.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), rig.AnimatedBoneCount)

	got, err := NewFromData(data, nil)
	require.NoError(t, err)
	require.Len(t, got.Bones, 3)
	for i, p := range []int32{-1, 0, 1} {
		assert.Equal(t, p, got.Bones[i].PrevBoneNr)
		assert.Equal(t, rig.Bones[i].Name, got.Bones[i].Name)
	}
	assert.Equal(t, [][]int{{1}, {2}, nil}, got.Children())
	assert.Equal(t, 2, got.BoneIndex(rig.Bones[2].Name))

	require.Len(t, got.Constraints, 1)
	la := got.Constraints[0].(*LookAtConstraint)
	assert.Len(t, la.Targets, 1)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, la.Targets[0].Position)

	assert.Equal(t, "frown_wide", got.Poses.Poses[1].Name)
	bones, indices, err := got.Poses.PoseBones(got.Poses.Poses[1])
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, indices)
	assert.Equal(t, float32(2), bones[0].Position[2])

	again, err := got.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEmptyTablesPointAtZero(t *testing.T) {
	rig := chainRig(-1)
	data, err := rig.Marshal(nil)
	require.NoError(t, err)

	got, err := NewFromData(data, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Poses.Poses)
	assert.Empty(t, got.Poses.FaceBoneIndices)

	header := int(binary.LittleEndian.Uint64(data))
	poseHeader := int(binary.LittleEndian.Uint32(data[header+24:]))
	// face bone table is empty and sits where the pose header starts
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[poseHeader+32:]))
}

func TestInverseMatrices(t *testing.T) {
	rig := chainRig(-1, 0, 1)
	for i, m := range rig.InvGlobalMats {
		assert.InDelta(t, -float32(i+1), m[3][2], 1e-5)
		global := rig.GlobalBindMatrices()[i]
		assert.True(t, global.Mul4(m.Mat4()).ApproxEqualThreshold(mgl32.Ident4(), 1e-5))
	}
}

func TestBadHierarchy(t *testing.T) {
	for _, parents := range [][]int32{{0}, {-1, 1}, {-1, -1}, {-1, 0, 3}} {
		rig := chainRig(-1)
		rig.Bones = nil
		rig.BindPoses = nil
		for _, p := range parents {
			rig.Bones = append(rig.Bones, BoneDefinition{PrevBoneNr: p})
			rig.BindPoses = append(rig.BindPoses, SVQ{Rotation: mgl32.QuatIdent()})
		}
		rig.InvGlobalMats = make([]Matrix43, len(parents))

		_, err := rig.Marshal(nil)
		assert.True(t, errors.Is(err, utils.ErrStructuralMismatch), "%v: %v", parents, err)
	}
}

func TestRotateConstraintUnsupported(t *testing.T) {
	rig := chainRig(-1, 0)
	rig.Constraints = []BoneConstraint{&RotateConstraint{BoneIndex: 1}}
	_, err := rig.Marshal(nil)
	assert.True(t, errors.Is(err, utils.ErrVersionMismatch), "%v", err)

	rig.Constraints = []BoneConstraint{&LookAtConstraint{BoneIndex: 1}}
	data, err := rig.Marshal(nil)
	require.NoError(t, err)

	header := int(binary.LittleEndian.Uint64(data))
	constraints := int(binary.LittleEndian.Uint32(data[header+20:]))
	data[constraints+4] = uint8(ConstraintRotate)
	_, err = NewFromData(data, nil)
	assert.True(t, errors.Is(err, utils.ErrVersionMismatch), "%v", err)
}

func TestExportGLTF(t *testing.T) {
	rig := chainRig(-1, 0, 1)
	doc := gltfutils.NewDocument()
	exp, err := rig.ExportGLTF(doc)
	require.NoError(t, err)

	assert.Len(t, doc.Nodes, 3)
	assert.Equal(t, []uint32{exp.Joints[0]}, doc.Scenes[0].Nodes)
	assert.Equal(t, []uint32{exp.Joints[2]}, doc.Nodes[exp.Joints[1]].Children)
	// z up translation becomes y up
	assert.InDelta(t, 1.0, doc.Nodes[exp.Joints[1]].Translation[1], 1e-6)
	require.Len(t, doc.Skins, 1)
	assert.Equal(t, exp.Joints, doc.Skins[0].Joints)
	assert.NotNil(t, doc.Skins[0].InverseBindMatrices)
}
