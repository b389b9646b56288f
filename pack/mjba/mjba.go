package mjba

import (
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/pack/mrtr"
	"github.com/mogaika/glacier_browser/utils"
)

const (
	BONE_MAP_ALIGN       = 0x80
	BONE_MAP_TRAILER     = 0x50
	BONE_MAP_HEADER_SIZE = 0x18
)

type Header struct {
	MrtrIndex int64
	AtmdIndex int64
	Transform [12]float32
}

func (h *Header) read(c *utils.Cursor) {
	h.MrtrIndex = c.I64()
	h.AtmdIndex = c.I64()
	copy(h.Transform[:], c.F32s(len(h.Transform)))
}

func (h *Header) write(c *utils.Cursor) {
	c.WriteI64(h.MrtrIndex)
	c.WriteI64(h.AtmdIndex)
	c.WriteF32s(h.Transform[:])
}

// VariableFps holds one time value per frame.
type VariableFps struct {
	HeaderSize uint64
	Fps        uint32
	Frames     []float32
	Reserved   [8]byte
}

func (vf *VariableFps) read(c *utils.Cursor) {
	vf.HeaderSize = c.U64()
	frameCount := int(c.U32())
	vf.Fps = c.U32()
	vf.Frames = c.F32s(frameCount)
	copy(vf.Reserved[:], c.Read(len(vf.Reserved)))
}

func (vf *VariableFps) write(c *utils.Cursor) {
	c.WriteU64(vf.HeaderSize)
	c.WriteU32(uint32(len(vf.Frames)))
	c.WriteU32(vf.Fps)
	c.WriteF32s(vf.Frames)
	c.Write(vf.Reserved[:])
}

// UnknownFloats is a Rows x Columns table of 12 float records with unknown meaning.
type UnknownFloats struct {
	Rows    uint32
	Columns uint32
	Data    []float32
}

func (uf *UnknownFloats) read(c *utils.Cursor) {
	uf.Rows = c.U32()
	uf.Columns = c.U32()
	count := uint64(uf.Rows) * uint64(uf.Columns) * 12
	if count > uint64(c.Remaining()) {
		c.Failf(utils.ErrUnexpectedEndOfStream, "%dx%d float records", uf.Rows, uf.Columns)
		return
	}
	uf.Data = c.F32s(int(count))
}

func (uf *UnknownFloats) write(c *utils.Cursor) error {
	if uint64(len(uf.Data)) != uint64(uf.Rows)*uint64(uf.Columns)*12 {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d floats for %dx%d records", len(uf.Data), uf.Rows, uf.Columns)
	}
	c.WriteU32(uf.Rows)
	c.WriteU32(uf.Columns)
	c.WriteF32s(uf.Data)
	return nil
}

// BoneMap ties the clip to the MRTR rig.
// MrtrBoneIndices maps every rig bone to its channel in the occupancy masks,
// UsedBoneIndices lists the rig bones the clip animates.
type BoneMap struct {
	Fps      uint32
	Reserved [4]byte

	MrtrBoneIndices []int16
	UsedBoneIndices []int16

	// raw bytes between the two index tables, before the padding and after it
	Gap     []byte
	Pad     []byte
	Trailer [BONE_MAP_TRAILER]byte
}

func (bm *BoneMap) read(c *utils.Cursor) error {
	bm.Fps = c.U32()
	copy(bm.Reserved[:], c.Read(len(bm.Reserved)))

	// table offsets count from here
	base := c.Tell()
	mrtrCount := int(c.U32())
	usedCount := int(c.U32())
	mrtrOffset := c.U64()
	usedOffset := c.U64()
	if c.Err() != nil {
		return c.Err()
	}
	if mrtrOffset != BONE_MAP_HEADER_SIZE {
		return c.Failf(utils.ErrStructuralMismatch, "mrtr bone table at 0x%x", mrtrOffset)
	}
	mrtrEnd := mrtrOffset + uint64(mrtrCount)*2
	if usedOffset < mrtrEnd {
		return c.Failf(utils.ErrStructuralMismatch, "used bone table at 0x%x overlaps mrtr bones ending at 0x%x", usedOffset, mrtrEnd)
	}
	if usedOffset > uint64(c.Len()-base) {
		return c.Failf(utils.ErrStructuralMismatch, "used bone table at 0x%x past the 0x%x bytes after bone map base 0x%x",
			usedOffset, c.Len()-base, base)
	}

	bm.MrtrBoneIndices = c.I16s(mrtrCount)
	bm.Gap = c.Read(int(usedOffset - mrtrEnd))
	bm.UsedBoneIndices = c.I16s(usedCount)
	bm.Pad = c.Read(bonePadSize(int(usedOffset), usedCount))
	copy(bm.Trailer[:], c.Read(BONE_MAP_TRAILER))
	return c.Err()
}

// bonePadSize is never zero, an aligned table is followed by a full 0x80 block.
func bonePadSize(usedOffset, usedCount int) int {
	return BONE_MAP_ALIGN - (usedOffset+usedCount*2)%BONE_MAP_ALIGN
}

func (bm *BoneMap) write(c *utils.Cursor) {
	mrtrOffset := BONE_MAP_HEADER_SIZE
	usedOffset := mrtrOffset + len(bm.MrtrBoneIndices)*2 + len(bm.Gap)

	c.WriteU32(bm.Fps)
	c.Write(bm.Reserved[:])
	c.WriteU32(uint32(len(bm.MrtrBoneIndices)))
	c.WriteU32(uint32(len(bm.UsedBoneIndices)))
	c.WriteU64(uint64(mrtrOffset))
	c.WriteU64(uint64(usedOffset))
	c.WriteI16s(bm.MrtrBoneIndices)
	c.Write(bm.Gap)
	c.WriteI16s(bm.UsedBoneIndices)

	padSize := bonePadSize(usedOffset, len(bm.UsedBoneIndices))
	if len(bm.Pad) == padSize {
		c.Write(bm.Pad)
	} else {
		c.WriteZeros(padSize)
	}
	c.Write(bm.Trailer[:])
}

// Channel returns the occupancy mask index of a used bone.
func (bm *BoneMap) Channel(usedBone int) (int, error) {
	rigBone := int(bm.UsedBoneIndices[usedBone])
	if rigBone < 0 || rigBone >= len(bm.MrtrBoneIndices) {
		return 0, errors.Wrapf(utils.ErrStructuralMismatch, "used bone %d refers to rig bone %d of %d",
			usedBone, rigBone, len(bm.MrtrBoneIndices))
	}
	return int(bm.MrtrBoneIndices[rigBone]), nil
}

// Clip is the root of a MJBA file.
type Clip struct {
	Header      Header
	VariableFps VariableFps
	Unknown     UnknownFloats
	BoneMap     BoneMap
	Animation   Animation

	// bytes after the animation block
	Tail []byte

	tracks []BoneTrack
}

func NewFromData(buf []byte, log *utils.Logger) (*Clip, error) {
	clip := &Clip{}
	if err := clip.read(utils.NewCursor(buf), log); err != nil {
		return nil, errors.Wrap(err, "[mjba] read")
	}
	return clip, nil
}

func (clip *Clip) read(c *utils.Cursor, log *utils.Logger) error {
	clip.Header.read(c)
	clip.VariableFps.read(c)
	clip.Unknown.read(c)
	if c.Err() != nil {
		return c.Err()
	}
	if err := clip.BoneMap.read(c); err != nil {
		return errors.Wrap(err, "bone map")
	}
	if err := clip.Animation.read(c); err != nil {
		return errors.Wrap(err, "animation")
	}
	if int(clip.Animation.UsedBoneCount) != len(clip.BoneMap.UsedBoneIndices) {
		return errors.Wrapf(utils.ErrStructuralMismatch, "animation uses %d bones, bone map lists %d",
			clip.Animation.UsedBoneCount, len(clip.BoneMap.UsedBoneIndices))
	}
	if clip.BoneMap.Fps != uint32(clip.Animation.Fps) {
		log.Printf("[mjba] bone map fps %d, animation fps %v", clip.BoneMap.Fps, clip.Animation.Fps)
	}
	if rem := c.Remaining(); rem != 0 {
		log.Printf("[mjba] 0x%x bytes after animation block", rem)
		clip.Tail = c.Read(rem)
	}
	return c.Err()
}

func (clip *Clip) Marshal(log *utils.Logger) ([]byte, error) {
	c := utils.NewWriter()
	if err := clip.write(c); err != nil {
		return nil, errors.Wrap(err, "[mjba] write")
	}
	return c.Bytes(), c.Err()
}

func (clip *Clip) write(c *utils.Cursor) error {
	if int(clip.Animation.UsedBoneCount) != len(clip.BoneMap.UsedBoneIndices) {
		return errors.Wrapf(utils.ErrStructuralMismatch, "animation uses %d bones, bone map lists %d",
			clip.Animation.UsedBoneCount, len(clip.BoneMap.UsedBoneIndices))
	}
	if _, err := clip.Animation.resolve(&clip.BoneMap); err != nil {
		return err
	}

	clip.Header.write(c)
	clip.VariableFps.write(c)
	if err := clip.Unknown.write(c); err != nil {
		return errors.Wrap(err, "unknown floats")
	}
	clip.BoneMap.write(c)
	if err := clip.Animation.write(c); err != nil {
		return errors.Wrap(err, "animation")
	}
	c.Write(clip.Tail)
	return c.Err()
}

// CheckRig verifies the clip was sampled against rig.
func (clip *Clip) CheckRig(rig *mrtr.Rig) error {
	if len(clip.BoneMap.MrtrBoneIndices) != rig.BoneCount() {
		return errors.Wrapf(utils.ErrUserInputMismatch, "clip maps %d rig bones, rig has %d",
			len(clip.BoneMap.MrtrBoneIndices), rig.BoneCount())
	}
	for i, b := range clip.BoneMap.UsedBoneIndices {
		if b < 0 || int(b) >= rig.BoneCount() {
			return errors.Wrapf(utils.ErrUserInputMismatch, "used bone %d is rig bone %d of %d", i, b, rig.BoneCount())
		}
	}
	return nil
}

func init() {
	pack.SetHandler(".MJBA", func(name string, data []byte, log *utils.Logger) (pack.Instance, error) {
		return NewFromData(data, log)
	})
}
