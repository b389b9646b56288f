package mjba

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

const (
	SMALL_MASK_BONES = 0x40
	SMALL_MASK_SIZE  = 8
	LARGE_MASK_SIZE  = 16

	QUAT_STRIDE      = 4
	TRANSFORM_STRIDE = 4
	BIND_POSE_STRIDE = 8
	WORLD_STRIDE     = 8
)

// MaskSize is the byte size of every occupancy mask for usedBones animated bones.
func MaskSize(usedBones int) int {
	if usedBones <= SMALL_MASK_BONES {
		return SMALL_MASK_SIZE
	}
	return LARGE_MASK_SIZE
}

// Animation keeps the channel arrays in their stored normalized u16 form,
// Clip.Tracks decodes them.
type Animation struct {
	Duration      float32
	UsedBoneCount uint16
	Reserved      [0xA]byte
	// the frame count is stored twice, FrameCount is the one the arrays are sized by
	HeaderFrameCount uint32
	Fps              float32
	DataReserved     [4]byte
	FrameCount       uint32
	TransformScale   mgl32.Vec3
	FlagsReserved    [3]byte
	// present for large masks with bind poses only
	MaskReserved [8]byte

	// indexed by channel, see BoneMap.Channel
	StaticQuatMask      []bool
	StaticTransformMask []bool
	// nil when the clip carries no bind poses
	BindPoseMask []bool

	StaticQuats       []uint16
	DynamicQuats      []uint16
	BindQuats         []uint16
	StaticTransforms  []uint16
	DynamicTransforms []uint16
	BindTransforms    []uint16

	// bytes between the channel arrays and the world transforms
	DataPad []byte
	// root motion, WORLD_STRIDE floats per frame
	WorldTransforms []float32
}

func (a *Animation) HasBindPoses() bool {
	return a.BindPoseMask != nil
}

func (a *Animation) read(c *utils.Cursor) error {
	a.Duration = c.F32()
	a.UsedBoneCount = c.U16()
	copy(a.Reserved[:], c.Read(len(a.Reserved)))
	a.HeaderFrameCount = c.U32()
	a.Fps = c.F32()

	dataSizeOffset := c.Tell()
	dataSize := int(c.U32())
	copy(a.DataReserved[:], c.Read(len(a.DataReserved)))
	a.FrameCount = c.U32()
	staticQuatCount := int(c.U16())
	staticTransformCount := int(c.U16())
	a.TransformScale = c.Vec3()
	hasBindPoses := c.U8() != 0
	copy(a.FlagsReserved[:], c.Read(len(a.FlagsReserved)))

	used := int(a.UsedBoneCount)
	maskSize := MaskSize(used)
	quatBits, quatMask := c.ReadBitPackedBoolArray(maskSize)
	transformBits, transformMask := c.ReadBitPackedBoolArray(maskSize)
	a.StaticQuatMask, a.StaticTransformMask = quatMask, transformMask
	bindCount := 0
	if hasBindPoses {
		bindCount, a.BindPoseMask = c.ReadBitPackedBoolArray(maskSize)
		if maskSize == LARGE_MASK_SIZE {
			copy(a.MaskReserved[:], c.Read(len(a.MaskReserved)))
		}
	}
	if c.Err() != nil {
		return c.Err()
	}

	if quatBits != staticQuatCount {
		return c.Failf(utils.ErrStructuralMismatch, "%d static quaternions with %d mask bits", staticQuatCount, quatBits)
	}
	if transformBits != staticTransformCount {
		return c.Failf(utils.ErrStructuralMismatch, "%d static transforms with %d mask bits", staticTransformCount, transformBits)
	}
	if staticQuatCount > used || staticTransformCount > used {
		return c.Failf(utils.ErrStructuralMismatch, "%d/%d static channels for %d bones", staticQuatCount, staticTransformCount, used)
	}

	frames := int(a.FrameCount)
	readNorm := func(count int) []uint16 {
		if !c.Need(count, 2) {
			return nil
		}
		return c.U16s(count)
	}
	a.StaticQuats = readNorm(staticQuatCount * QUAT_STRIDE)
	if !c.Need(frames, (used-staticQuatCount)*QUAT_STRIDE*2) {
		return c.Err()
	}
	a.DynamicQuats = readNorm((used - staticQuatCount) * QUAT_STRIDE * frames)
	if hasBindPoses {
		a.BindQuats = readNorm(bindCount * BIND_POSE_STRIDE)
	}
	a.StaticTransforms = readNorm(staticTransformCount * TRANSFORM_STRIDE)
	if !c.Need(frames, (used-staticTransformCount)*TRANSFORM_STRIDE*2) {
		return c.Err()
	}
	a.DynamicTransforms = readNorm((used - staticTransformCount) * TRANSFORM_STRIDE * frames)
	if hasBindPoses {
		a.BindTransforms = readNorm(bindCount * BIND_POSE_STRIDE)
	}
	if c.Err() != nil {
		return c.Err()
	}

	if dataSize > 0 {
		end := dataSizeOffset + dataSize
		if end < c.Tell() {
			return c.Failf(utils.ErrStructuralMismatch, "animation data ends at 0x%x before its arrays", end)
		}
		a.DataPad = c.Read(end - c.Tell())
		if !c.Need(frames, WORLD_STRIDE*4) {
			return c.Err()
		}
		a.WorldTransforms = c.F32s(frames * WORLD_STRIDE)
	}
	return c.Err()
}

func (a *Animation) write(c *utils.Cursor) error {
	used := int(a.UsedBoneCount)
	maskSize := MaskSize(used)
	frames := int(a.FrameCount)
	if len(a.WorldTransforms) != 0 && len(a.WorldTransforms) != frames*WORLD_STRIDE {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d world transform floats for %d frames", len(a.WorldTransforms), frames)
	}

	c.WriteF32(a.Duration)
	c.WriteU16(a.UsedBoneCount)
	c.Write(a.Reserved[:])
	c.WriteU32(a.HeaderFrameCount)
	c.WriteF32(a.Fps)

	dataSizeOffset := c.Tell()
	c.WriteU32(0)
	c.Write(a.DataReserved[:])
	c.WriteU32(a.FrameCount)
	c.WriteU16(uint16(utils.PopCount(a.StaticQuatMask)))
	c.WriteU16(uint16(utils.PopCount(a.StaticTransformMask)))
	c.WriteVec3(a.TransformScale)
	if a.HasBindPoses() {
		c.WriteU8(1)
	} else {
		c.WriteU8(0)
	}
	c.Write(a.FlagsReserved[:])

	c.WriteBitPackedBoolArray(a.StaticQuatMask, maskSize)
	c.WriteBitPackedBoolArray(a.StaticTransformMask, maskSize)
	if a.HasBindPoses() {
		c.WriteBitPackedBoolArray(a.BindPoseMask, maskSize)
		if maskSize == LARGE_MASK_SIZE {
			c.Write(a.MaskReserved[:])
		}
	}

	c.WriteU16s(a.StaticQuats)
	c.WriteU16s(a.DynamicQuats)
	if a.HasBindPoses() {
		c.WriteU16s(a.BindQuats)
	}
	c.WriteU16s(a.StaticTransforms)
	c.WriteU16s(a.DynamicTransforms)
	if a.HasBindPoses() {
		c.WriteU16s(a.BindTransforms)
	}

	if len(a.WorldTransforms) != 0 {
		c.Write(a.DataPad)
		c.PatchU32At(dataSizeOffset, uint32(c.Tell()-dataSizeOffset))
		c.WriteF32s(a.WorldTransforms)
	}
	return c.Err()
}

// BindPose holds the two rotation and translation pairs a bone may carry
// next to its animated channels.
type BindPose struct {
	Rotations    [2]mgl32.Quat
	Translations [2]mgl32.Vec3
	Scales       [2]float32
}

// BoneTrack is the decoded animation of one used bone, with one value per frame
// also for channels stored as static.
type BoneTrack struct {
	RigBone int
	Channel int

	Rotations    []mgl32.Quat
	Translations []mgl32.Vec3
	Scales       []float32

	StaticRotation    bool
	StaticTranslation bool
	BindPose          *BindPose
}

func decodeQuat(raw []uint16) mgl32.Quat {
	return mgl32.Quat{
		W: utils.DecodeNormU16(raw[3]),
		V: mgl32.Vec3{utils.DecodeNormU16(raw[0]), utils.DecodeNormU16(raw[1]), utils.DecodeNormU16(raw[2])},
	}
}

func encodeQuat(q mgl32.Quat) []uint16 {
	return []uint16{
		utils.EncodeNormU16(q.V[0]),
		utils.EncodeNormU16(q.V[1]),
		utils.EncodeNormU16(q.V[2]),
		utils.EncodeNormU16(q.W),
	}
}

func decodeTransform(raw []uint16, scale mgl32.Vec3) (mgl32.Vec3, float32) {
	return mgl32.Vec3{
		utils.DecodeNormU16(raw[0]) * scale[0],
		utils.DecodeNormU16(raw[1]) * scale[1],
		utils.DecodeNormU16(raw[2]) * scale[2],
	}, utils.DecodeNormU16(raw[3])
}

func encodeTransform(t mgl32.Vec3, s float32, scale mgl32.Vec3) []uint16 {
	return []uint16{
		utils.EncodeNormU16(t[0] / scale[0]),
		utils.EncodeNormU16(t[1] / scale[1]),
		utils.EncodeNormU16(t[2] / scale[2]),
		utils.EncodeNormU16(s),
	}
}

func maskBit(mask []bool, channel int) bool {
	return channel < len(mask) && mask[channel]
}

// resolve walks used bones in order. Static arrays are consumed one entry per
// static bone. Dynamic arrays are frame major and every channel kind keeps its
// own running index over the bones that are dynamic for that kind.
func (a *Animation) resolve(bm *BoneMap) ([]BoneTrack, error) {
	used := len(bm.UsedBoneIndices)
	frames := int(a.FrameCount)
	maskBits := MaskSize(used) * 8

	tracks := make([]BoneTrack, used)
	staticQuats, staticTransforms, bindPoses := 0, 0, 0
	for i := range tracks {
		channel, err := bm.Channel(i)
		if err != nil {
			return nil, err
		}
		if channel < 0 || channel >= maskBits {
			return nil, errors.Wrapf(utils.ErrStructuralMismatch, "bone %d channel %d outside of %d mask bits", i, channel, maskBits)
		}
		tr := &tracks[i]
		tr.RigBone = int(bm.UsedBoneIndices[i])
		tr.Channel = channel
		tr.StaticRotation = maskBit(a.StaticQuatMask, channel)
		tr.StaticTranslation = maskBit(a.StaticTransformMask, channel)
		tr.Rotations = make([]mgl32.Quat, frames)
		tr.Translations = make([]mgl32.Vec3, frames)
		tr.Scales = make([]float32, frames)

		if tr.StaticRotation {
			if (staticQuats+1)*QUAT_STRIDE > len(a.StaticQuats) {
				return nil, errors.Wrapf(utils.ErrStructuralMismatch, "bone %d: static quaternion %d out of range", i, staticQuats)
			}
			q := decodeQuat(a.StaticQuats[staticQuats*QUAT_STRIDE:])
			for f := range tr.Rotations {
				tr.Rotations[f] = q
			}
			staticQuats++
		}
		if tr.StaticTranslation {
			if (staticTransforms+1)*TRANSFORM_STRIDE > len(a.StaticTransforms) {
				return nil, errors.Wrapf(utils.ErrStructuralMismatch, "bone %d: static transform %d out of range", i, staticTransforms)
			}
			t, s := decodeTransform(a.StaticTransforms[staticTransforms*TRANSFORM_STRIDE:], a.TransformScale)
			for f := range tr.Translations {
				tr.Translations[f] = t
				tr.Scales[f] = s
			}
			staticTransforms++
		}
		if a.HasBindPoses() && maskBit(a.BindPoseMask, channel) {
			if (bindPoses+1)*BIND_POSE_STRIDE > len(a.BindQuats) || (bindPoses+1)*BIND_POSE_STRIDE > len(a.BindTransforms) {
				return nil, errors.Wrapf(utils.ErrStructuralMismatch, "bone %d: bind pose %d out of range", i, bindPoses)
			}
			bp := &BindPose{}
			for k := 0; k < 2; k++ {
				off := bindPoses*BIND_POSE_STRIDE + k*4
				bp.Rotations[k] = decodeQuat(a.BindQuats[off:])
				bp.Translations[k], bp.Scales[k] = decodeTransform(a.BindTransforms[off:], a.TransformScale)
			}
			tr.BindPose = bp
			bindPoses++
		}
	}

	dynamicQuats := used - staticQuats
	dynamicTransforms := used - staticTransforms
	if len(a.DynamicQuats) != dynamicQuats*QUAT_STRIDE*frames {
		return nil, errors.Wrapf(utils.ErrStructuralMismatch, "%d dynamic quaternion values for %d bones over %d frames",
			len(a.DynamicQuats), dynamicQuats, frames)
	}
	if len(a.DynamicTransforms) != dynamicTransforms*TRANSFORM_STRIDE*frames {
		return nil, errors.Wrapf(utils.ErrStructuralMismatch, "%d dynamic transform values for %d bones over %d frames",
			len(a.DynamicTransforms), dynamicTransforms, frames)
	}

	quatIndex, transformIndex := 0, 0
	for f := 0; f < frames; f++ {
		for i := range tracks {
			tr := &tracks[i]
			if !tr.StaticRotation {
				tr.Rotations[f] = decodeQuat(a.DynamicQuats[quatIndex*QUAT_STRIDE:])
				quatIndex++
			}
			if !tr.StaticTranslation {
				tr.Translations[f], tr.Scales[f] = decodeTransform(a.DynamicTransforms[transformIndex*TRANSFORM_STRIDE:], a.TransformScale)
				transformIndex++
			}
		}
	}
	return tracks, nil
}
