package prim

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

const BONE_REMAP_SIZE = 255

type BoneAccel struct {
	Offset     uint32
	NumIndices uint32
}

type BoneInfo struct {
	TotalSize    uint16
	BoneRemap    [BONE_REMAP_SIZE]uint8
	Pad          uint8
	AccelEntries []BoneAccel
}

func NewBoneInfo() *BoneInfo {
	bi := &BoneInfo{}
	for i := range bi.BoneRemap {
		bi.BoneRemap[i] = 0xFF
	}
	return bi
}

func (bi *BoneInfo) read(c *utils.Cursor) {
	bi.TotalSize = c.U16()
	numAccel := int(c.U16())
	copy(bi.BoneRemap[:], c.Read(BONE_REMAP_SIZE))
	bi.Pad = c.U8()
	if !c.Need(numAccel, 8) {
		return
	}
	bi.AccelEntries = make([]BoneAccel, numAccel)
	for i := range bi.AccelEntries {
		bi.AccelEntries[i].Offset = c.U32()
		bi.AccelEntries[i].NumIndices = c.U32()
	}
}

func (bi *BoneInfo) write(c *utils.Cursor) {
	c.WriteU16(bi.TotalSize)
	c.WriteU16(uint16(len(bi.AccelEntries)))
	c.Write(bi.BoneRemap[:])
	c.WriteU8(bi.Pad)
	for _, e := range bi.AccelEntries {
		c.WriteU32(e.Offset)
		c.WriteU32(e.NumIndices)
	}
	c.Align(16)
}

// readBoneIndices reads the u16 array whose first two elements double as its u32 length,
// the accel entry offsets are relative to that start.
func readBoneIndices(c *utils.Cursor) []uint16 {
	count := int(c.U32())
	c.SeekBy(-4)
	return c.U16s(count)
}

// NewBoneIndices builds a bone index table holding entries, prefixed with its u32 length.
func NewBoneIndices(entries []uint16) []uint16 {
	n := uint32(len(entries) + 2)
	return append([]uint16{uint16(n), uint16(n >> 16)}, entries...)
}

func checkBoneIndices(indices []uint16) error {
	if len(indices) < 2 || uint32(indices[0])|uint32(indices[1])<<16 != uint32(len(indices)) {
		return errors.Wrapf(utils.ErrStructuralMismatch, "bone index table of %d elements does not start with its length", len(indices))
	}
	return nil
}

// Cloth is kept raw, its layout is not known.
type Cloth struct {
	Data []byte
}

func readCloth(c *utils.Cursor, id ClothId, numVertices int) *Cloth {
	size := 0x14 * numVertices
	if id.IsSmall() {
		size = int(c.U32())
	}
	if !c.Need(size, 1) {
		return nil
	}
	return &Cloth{Data: c.Read(size)}
}

func (cl *Cloth) write(c *utils.Cursor, id ClothId, numVertices int) error {
	if id.IsSmall() {
		c.WriteU32(uint32(len(cl.Data)))
	} else if len(cl.Data) != 0x14*numVertices {
		return errors.Wrapf(utils.ErrStructuralMismatch,
			"cloth data of %d bytes does not match %d vertices", len(cl.Data), numVertices)
	}
	c.Write(cl.Data)
	return nil
}

type Mesh struct {
	Object
	PosScale     mgl32.Vec4
	PosBias      mgl32.Vec4
	TexScaleBias mgl32.Vec4
	ClothId      ClothId
	SubMesh      SubMesh

	// only for weighted primitives
	NumCopyBones uint32
	BoneIndices  []uint16
	BoneInfo     *BoneInfo
}

func NewMesh() *Mesh {
	return &Mesh{
		Object:       NewObject(PrimTypeMesh),
		PosScale:     mgl32.Vec4{1, 1, 1, 1},
		TexScaleBias: mgl32.Vec4{1, 1, 0, 0},
		SubMesh:      SubMesh{Object: NewObject(PrimTypeMesh)},
	}
}

func (m *Mesh) read(c *utils.Cursor, flags HeaderFlags, log *utils.Logger) error {
	m.Object.read(c)
	if c.Err() == nil && m.Type != PrimTypeMesh {
		return errors.Wrapf(utils.ErrStructuralMismatch, "object type %d is not a mesh", m.Type)
	}

	// the table always holds one sub mesh, its size is never stored
	subMeshTableOffset := c.Offset32()
	m.PosScale = c.Vec4()
	m.PosBias = c.Vec4()
	m.TexScaleBias = c.Vec4()
	m.ClothId = ClothId(c.U32())

	if flags.Has(HeaderIsWeighted) {
		m.NumCopyBones = c.U32()
		c.U32() // copy bones offset
		boneIndicesOffset := c.Offset32()
		boneInfoOffset := c.Offset32()

		if m.NumCopyBones != 0 {
			log.Warnf("[prim] mesh has %d copy bones, they will not be written back", m.NumCopyBones)
		}

		c.Seek(boneIndicesOffset)
		m.BoneIndices = readBoneIndices(c)

		c.Seek(boneInfoOffset)
		m.BoneInfo = &BoneInfo{}
		m.BoneInfo.read(c)
	}

	c.Seek(subMeshTableOffset)
	c.Seek(c.Offset32())
	if c.Err() != nil {
		return c.Err()
	}
	if err := m.SubMesh.read(c, m, flags); err != nil {
		return errors.Wrap(err, "sub mesh")
	}
	return c.Err()
}

// write emits sub mesh, bone tables and the mesh header, returns the header offset
func (m *Mesh) write(c *utils.Cursor, flags HeaderFlags, log *utils.Logger) (int, error) {
	if len(m.SubMesh.Vertices) > MAX_VERTICES {
		return 0, errors.Wrapf(utils.ErrStructuralMismatch, "%d vertices do not fit u16 indices", len(m.SubMesh.Vertices))
	}
	if err := m.SubMesh.validate(); err != nil {
		return 0, err
	}
	if flags.Has(HeaderIsWeighted) {
		if m.BoneIndices == nil {
			m.BoneIndices = NewBoneIndices(nil)
		}
		if err := checkBoneIndices(m.BoneIndices); err != nil {
			return 0, err
		}
	}
	m.Update(flags)

	subMeshTableOffset, err := m.SubMesh.write(c, m, flags)
	if err != nil {
		return 0, errors.Wrap(err, "sub mesh")
	}

	var boneInfoOffset, boneIndicesOffset int
	if flags.Has(HeaderIsWeighted) {
		if m.NumCopyBones != 0 {
			log.Warnf("[prim] %d copy bones are written without data", m.NumCopyBones)
		}
		if m.BoneInfo == nil {
			m.BoneInfo = NewBoneInfo()
		}
		boneInfoOffset = c.Tell()
		m.BoneInfo.write(c)

		boneIndicesOffset = c.Tell()
		c.WriteU16s(m.BoneIndices)
		c.Align(16)
	}

	headerOffset := c.Tell()
	m.Object.write(c)
	c.WriteU32(uint32(subMeshTableOffset))
	c.WriteVec4(m.PosScale)
	c.WriteVec4(m.PosBias)
	c.WriteVec4(m.TexScaleBias)
	c.WriteU32(uint32(m.ClothId))
	if flags.Has(HeaderIsWeighted) {
		c.WriteU32(m.NumCopyBones)
		c.WriteU32(0)
		c.WriteU32(uint32(boneIndicesOffset))
		c.WriteU32(uint32(boneInfoOffset))
	}
	c.Align(16)
	return headerOffset, c.Err()
}

// Update recomputes bounding boxes and the quantization scale and bias from the vertices.
func (m *Mesh) Update(flags HeaderFlags) {
	bbox := m.SubMesh.BBox()
	m.Min, m.Max = bbox.Min, bbox.Max
	m.SubMesh.Min, m.SubMesh.Max = bbox.Min, bbox.Max

	half := bbox.HalfExtents()
	center := bbox.Center()
	m.PosScale = mgl32.Vec4{half[0], half[1], half[2], 0.5}
	m.PosBias = mgl32.Vec4{center[0], center[1], center[2], 1}

	uvMin, uvMax := m.SubMesh.UVBBox()
	m.TexScaleBias = mgl32.Vec4{
		(uvMax[0] - uvMin[0]) * 0.5,
		(uvMax[1] - uvMin[1]) * 0.5,
		(uvMax[0] + uvMin[0]) * 0.5,
		(uvMax[1] + uvMin[1]) * 0.5,
	}

	if flags.Has(HeaderIsLinked) {
		m.PosBias[3] = 0
		m.PosScale[3] = 0x7FFF
	}
}

// UVBBox returns the bounds of the first uv channel.
func (s *SubMesh) UVBBox() (min, max mgl32.Vec2) {
	if len(s.Vertices) == 0 || len(s.Vertices[0].UVs) == 0 {
		return mgl32.Vec2{}, mgl32.Vec2{}
	}
	min = mgl32.Vec2{math32.MaxFloat32, math32.MaxFloat32}
	max = mgl32.Vec2{-math32.MaxFloat32, -math32.MaxFloat32}
	for _, v := range s.Vertices {
		for axis := 0; axis < 2; axis++ {
			min[axis] = math32.Min(min[axis], v.UVs[0][axis])
			max[axis] = math32.Max(max[axis], v.UVs[0][axis])
		}
	}
	return min, max
}
