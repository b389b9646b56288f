package borg

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/utils"
)

const (
	HEADER_PLACEHOLDER = 420
	BONE_NAME_SIZE     = 34
	BONE_PARENT_NONE   = -1
)

type BoneDefinition struct {
	Center     mgl32.Vec3
	PrevBoneNr int32
	Size       mgl32.Vec3
	Name       string
	BodyPart   int16
}

func (bd *BoneDefinition) read(c *utils.Cursor) {
	bd.Center = c.Vec3()
	bd.PrevBoneNr = c.I32()
	bd.Size = c.Vec3()
	bd.Name = c.ReadFixedString(BONE_NAME_SIZE)
	bd.BodyPart = c.I16()
}

func (bd *BoneDefinition) write(c *utils.Cursor) {
	c.WriteVec3(bd.Center)
	c.WriteI32(bd.PrevBoneNr)
	c.WriteVec3(bd.Size)
	c.WriteFixedString(bd.Name, BONE_NAME_SIZE)
	c.WriteI16(bd.BodyPart)
}

// SVQ is a bone transform relative to its parent, W of Position is unused.
type SVQ struct {
	Rotation mgl32.Quat
	Position mgl32.Vec4
}

func (s *SVQ) read(c *utils.Cursor) {
	s.Rotation = c.Quat()
	s.Position = c.Vec4()
}

func (s *SVQ) write(c *utils.Cursor) {
	c.WriteQuat(s.Rotation)
	c.WriteVec4(s.Position)
}

func (s *SVQ) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(s.Position[0], s.Position[1], s.Position[2]).Mul4(s.Rotation.Normalize().Mat4())
}

// Matrix43 is an affine transform stored as four rows for row vectors,
// the last row holds the translation.
type Matrix43 [4]mgl32.Vec3

func (m *Matrix43) read(c *utils.Cursor) {
	for i := range m {
		m[i] = c.Vec3()
	}
}

func (m *Matrix43) write(c *utils.Cursor) {
	for _, row := range m {
		c.WriteVec3(row)
	}
}

func (m Matrix43) Mat4() mgl32.Mat4 {
	var r mgl32.Mat4
	for col := 0; col < 4; col++ {
		r.SetCol(col, m[col].Vec4(0))
	}
	r[15] = 1
	return r
}

func Matrix43FromMat4(m mgl32.Mat4) Matrix43 {
	var r Matrix43
	for col := 0; col < 4; col++ {
		r[col] = m.Col(col).Vec3()
	}
	return r
}

// BoneRig is the root of a BORG file.
type BoneRig struct {
	Bones         []BoneDefinition
	BindPoses     []SVQ
	InvGlobalMats []Matrix43
	Constraints   []BoneConstraint
	Poses         PoseLibrary

	// as read from the file, recomputed on write
	AnimatedBoneCount uint32
}

func NewFromData(buf []byte, log *utils.Logger) (*BoneRig, error) {
	c := utils.NewCursor(buf)
	rig := &BoneRig{}

	c.Seek(c.Offset64())
	if err := rig.read(c, log); err != nil {
		return nil, errors.Wrap(err, "[borg] read")
	}
	return rig, nil
}

func (rig *BoneRig) read(c *utils.Cursor, log *utils.Logger) error {
	numBones := int(c.U32())
	rig.AnimatedBoneCount = c.U32()
	boneDefsOffset := c.Offset32()
	bindPoseOffset := c.Offset32()
	invMatsOffset := c.Offset32()
	constraintsOffset := c.Offset32()
	poseHeaderOffset := c.Offset32()
	invertGlobalBonesOffset := c.U32()
	boneMapOffset := c.U64()
	if invertGlobalBonesOffset != 0 || boneMapOffset != 0 {
		log.Printf("[borg] unused offsets are set: 0x%x 0x%x", invertGlobalBonesOffset, boneMapOffset)
	}

	c.Seek(boneDefsOffset)
	if !c.Need(numBones, 64) {
		return c.Err()
	}
	rig.Bones = make([]BoneDefinition, numBones)
	for i := range rig.Bones {
		rig.Bones[i].read(c)
	}

	c.Seek(bindPoseOffset)
	rig.BindPoses = make([]SVQ, numBones)
	for i := range rig.BindPoses {
		rig.BindPoses[i].read(c)
	}

	c.Seek(invMatsOffset)
	rig.InvGlobalMats = make([]Matrix43, numBones)
	for i := range rig.InvGlobalMats {
		rig.InvGlobalMats[i].read(c)
	}
	if c.Err() != nil {
		return c.Err()
	}

	c.Seek(constraintsOffset)
	if err := rig.readConstraints(c, log); err != nil {
		return errors.Wrap(err, "constraints")
	}

	c.Seek(poseHeaderOffset)
	if err := rig.Poses.read(c); err != nil {
		return errors.Wrap(err, "poses")
	}
	if err := rig.ValidateHierarchy(); err != nil {
		return err
	}
	return c.Err()
}

// ValidateHierarchy requires bone 0 to be the only root and every parent to precede its child.
func (rig *BoneRig) ValidateHierarchy() error {
	for i, b := range rig.Bones {
		if i == 0 {
			if b.PrevBoneNr != BONE_PARENT_NONE {
				return errors.Wrapf(utils.ErrStructuralMismatch, "root bone %q has parent %d", b.Name, b.PrevBoneNr)
			}
			continue
		}
		if b.PrevBoneNr < 0 || int(b.PrevBoneNr) >= i {
			return errors.Wrapf(utils.ErrStructuralMismatch, "bone %d %q has parent %d", i, b.Name, b.PrevBoneNr)
		}
	}
	return nil
}

// Children lists child bone indices for every bone.
func (rig *BoneRig) Children() [][]int {
	children := make([][]int, len(rig.Bones))
	for i, b := range rig.Bones {
		if b.PrevBoneNr >= 0 && int(b.PrevBoneNr) < len(rig.Bones) {
			children[b.PrevBoneNr] = append(children[b.PrevBoneNr], i)
		}
	}
	return children
}

func (rig *BoneRig) BoneIndex(name string) int {
	for i, b := range rig.Bones {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// GlobalBindMatrices walks the bind poses down the hierarchy.
func (rig *BoneRig) GlobalBindMatrices() []mgl32.Mat4 {
	global := make([]mgl32.Mat4, len(rig.Bones))
	for i, b := range rig.Bones {
		local := mgl32.Ident4()
		if i < len(rig.BindPoses) {
			local = rig.BindPoses[i].Mat4()
		}
		if b.PrevBoneNr >= 0 && int(b.PrevBoneNr) < i {
			global[i] = global[b.PrevBoneNr].Mul4(local)
		} else {
			global[i] = local
		}
	}
	return global
}

// UpdateInverseMatrices recomputes InvGlobalMats from the bind poses.
func (rig *BoneRig) UpdateInverseMatrices() error {
	if err := rig.ValidateHierarchy(); err != nil {
		return err
	}
	global := rig.GlobalBindMatrices()
	rig.InvGlobalMats = make([]Matrix43, len(global))
	for i, m := range global {
		rig.InvGlobalMats[i] = Matrix43FromMat4(m.Inv())
	}
	return nil
}

func (rig *BoneRig) Marshal(log *utils.Logger) ([]byte, error) {
	c := utils.NewWriter()
	c.WriteU64(HEADER_PLACEHOLDER)
	c.WriteU64(0)

	headerOffset, err := rig.write(c, log)
	if err != nil {
		return nil, errors.Wrap(err, "[borg] write")
	}
	c.PatchU64At(0, uint64(headerOffset))
	return c.Bytes(), c.Err()
}

func (rig *BoneRig) write(c *utils.Cursor, log *utils.Logger) (int, error) {
	numBones := len(rig.Bones)
	if len(rig.BindPoses) != numBones || len(rig.InvGlobalMats) != numBones {
		return 0, errors.Wrapf(utils.ErrStructuralMismatch, "%d bones with %d bind poses and %d inverse matrices",
			numBones, len(rig.BindPoses), len(rig.InvGlobalMats))
	}
	if err := rig.ValidateHierarchy(); err != nil {
		return 0, err
	}
	if len(rig.Constraints) > numBones {
		return 0, errors.Wrapf(utils.ErrStructuralMismatch, "%d constraints for %d bones", len(rig.Constraints), numBones)
	}

	poseHeaderOffset, err := rig.Poses.write(c)
	if err != nil {
		return 0, errors.Wrap(err, "poses")
	}

	boneDefsOffset := c.Tell()
	for i := range rig.Bones {
		rig.Bones[i].write(c)
	}
	c.Align(16)

	bindPoseOffset := c.Tell()
	for i := range rig.BindPoses {
		rig.BindPoses[i].write(c)
	}
	c.Align(16)

	invMatsOffset := c.Tell()
	for i := range rig.InvGlobalMats {
		rig.InvGlobalMats[i].write(c)
	}
	c.Align(16)

	constraintsOffset := c.Tell()
	if err := rig.writeConstraints(c, log); err != nil {
		return 0, errors.Wrap(err, "constraints")
	}
	c.Align(16)

	rig.AnimatedBoneCount = uint32(numBones - len(rig.Constraints))

	headerOffset := c.Tell()
	c.WriteU32(uint32(numBones))
	c.WriteU32(rig.AnimatedBoneCount)
	c.WriteU32(uint32(boneDefsOffset))
	c.WriteU32(uint32(bindPoseOffset))
	c.WriteU32(uint32(invMatsOffset))
	c.WriteU32(uint32(constraintsOffset))
	c.WriteU32(uint32(poseHeaderOffset))
	c.WriteU32(0)
	c.WriteU64(0)
	c.Align(16)
	return headerOffset, c.Err()
}

func init() {
	pack.SetHandler(".BORG", func(name string, data []byte, log *utils.Logger) (pack.Instance, error) {
		return NewFromData(data, log)
	})
}
