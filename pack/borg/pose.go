package borg

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

type PoseBone struct {
	Rotation mgl32.Quat
	Position mgl32.Vec4
	Scale    mgl32.Vec4
}

// Pose is a named run of BoneCount entries starting at FirstBone of the pose bone array.
type Pose struct {
	Name      string
	FirstBone uint32
	BoneCount uint32
}

type PoseLibrary struct {
	Bones []PoseBone
	// rig bone index for every pose bone
	BoneIndices     []uint32
	Poses           []Pose
	FaceBoneIndices []uint32
}

func (pl *PoseLibrary) PoseBones(p Pose) ([]PoseBone, []uint32, error) {
	end := uint64(p.FirstBone) + uint64(p.BoneCount)
	if end > uint64(len(pl.Bones)) || end > uint64(len(pl.BoneIndices)) {
		return nil, nil, errors.Wrapf(utils.ErrStructuralMismatch, "pose %q covers bones up to %d of %d", p.Name, end, len(pl.Bones))
	}
	return pl.Bones[p.FirstBone:end], pl.BoneIndices[p.FirstBone:end], nil
}

func (pl *PoseLibrary) read(c *utils.Cursor) error {
	bonesOffset := c.Offset32()
	boneIndicesOffset := c.Offset32()
	numBones := int(c.U32())
	entryIndexOffset := c.Offset32()
	boneCountsOffset := c.Offset32()
	numPoses := int(c.U32())
	namesOffset := c.Offset32()
	nameEntriesOffset := c.Offset32()
	faceBonesOffset := c.Offset32()
	numFaceBones := int(c.U32())

	c.Seek(bonesOffset)
	if !c.Need(numBones, 48) {
		return c.Err()
	}
	pl.Bones = make([]PoseBone, numBones)
	for i := range pl.Bones {
		pl.Bones[i].Rotation = c.Quat()
		pl.Bones[i].Position = c.Vec4()
		pl.Bones[i].Scale = c.Vec4()
	}

	c.Seek(boneIndicesOffset)
	pl.BoneIndices = c.U32s(numBones)

	c.Seek(entryIndexOffset)
	firstBones := c.U32s(numPoses)
	c.Seek(boneCountsOffset)
	boneCounts := c.U32s(numPoses)
	c.Seek(nameEntriesOffset)
	nameEntries := c.U32s(numPoses)
	if c.Err() != nil {
		return c.Err()
	}

	pl.Poses = make([]Pose, numPoses)
	for i := range pl.Poses {
		c.Seek(namesOffset + int(nameEntries[i]))
		pl.Poses[i] = Pose{
			Name:      c.ReadCString(),
			FirstBone: firstBones[i],
			BoneCount: boneCounts[i],
		}
	}

	c.Seek(faceBonesOffset)
	pl.FaceBoneIndices = c.U32s(numFaceBones)
	return c.Err()
}

// write emits the tables and then the pose header, returns the header offset.
// Table offsets landing on the header itself are written as 0.
func (pl *PoseLibrary) write(c *utils.Cursor) (int, error) {
	if len(pl.BoneIndices) != len(pl.Bones) {
		return 0, errors.Wrapf(utils.ErrStructuralMismatch, "%d pose bones with %d indices", len(pl.Bones), len(pl.BoneIndices))
	}
	for _, p := range pl.Poses {
		if _, _, err := pl.PoseBones(p); err != nil {
			return 0, err
		}
	}

	bonesOffset := c.Tell()
	for _, b := range pl.Bones {
		c.WriteQuat(b.Rotation)
		c.WriteVec4(b.Position)
		c.WriteVec4(b.Scale)
	}

	boneIndicesOffset := c.Tell()
	c.WriteU32s(pl.BoneIndices)
	c.Align(16)

	entryIndexOffset := c.Tell()
	for _, p := range pl.Poses {
		c.WriteU32(p.FirstBone)
	}
	c.Align(16)

	boneCountsOffset := c.Tell()
	for _, p := range pl.Poses {
		c.WriteU32(p.BoneCount)
	}
	c.Align(16)

	namesOffset := c.Tell()
	nameEntries := make([]uint32, len(pl.Poses))
	for i, p := range pl.Poses {
		nameEntries[i] = uint32(c.Tell() - namesOffset)
		c.WriteCString(p.Name)
	}
	c.Align(16)

	nameEntriesOffset := c.Tell()
	c.WriteU32s(nameEntries)
	c.Align(16)

	faceBonesOffset := c.Tell()
	c.WriteU32s(pl.FaceBoneIndices)
	c.Align(16)

	headerOffset := c.Tell()
	offset := func(o int) uint32 {
		if o == headerOffset {
			return 0
		}
		return uint32(o)
	}
	c.WriteU32(offset(bonesOffset))
	c.WriteU32(offset(boneIndicesOffset))
	c.WriteU32(uint32(len(pl.Bones)))
	c.WriteU32(offset(entryIndexOffset))
	c.WriteU32(offset(boneCountsOffset))
	c.WriteU32(uint32(len(pl.Poses)))
	c.WriteU32(offset(namesOffset))
	c.WriteU32(offset(nameEntriesOffset))
	c.WriteU32(offset(faceBonesOffset))
	c.WriteU32(uint32(len(pl.FaceBoneIndices)))
	c.Align(16)
	return headerOffset, c.Err()
}
