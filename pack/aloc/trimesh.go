package aloc

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

const (
	BV4_VERSION        = 1
	TRIANGLE_HEAD_SIZE = 16

	triangleMinSize = 124
)

type SerialFlags int32

const (
	SerialMaterials    SerialFlags = 1 << 0
	SerialFaceRemap    SerialFlags = 1 << 1
	Serial8BitIndices  SerialFlags = 1 << 2
	Serial16BitIndices SerialFlags = 1 << 3
	SerialAdjacencies  SerialFlags = 1 << 4
	SerialGRBData      SerialFlags = 1 << 5
)

var serialFlagNames = []struct {
	flag SerialFlags
	name string
}{
	{SerialMaterials, "materials"},
	{SerialFaceRemap, "faceRemap"},
	{Serial8BitIndices, "8bitIndices"},
	{Serial16BitIndices, "16bitIndices"},
	{SerialAdjacencies, "adjacencies"},
	{SerialGRBData, "grbData"},
}

func (f SerialFlags) Has(b SerialFlags) bool { return f&b == b }

func (f *SerialFlags) Set(b SerialFlags, on bool) {
	if on {
		*f |= b
	} else {
		*f &^= b
	}
}

func (f SerialFlags) String() string {
	names := make([]string, 0)
	for _, n := range serialFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// indexSize is the width of one stored triangle index
func (f SerialFlags) indexSize() int {
	switch {
	case f.Has(Serial8BitIndices):
		return 1
	case f.Has(Serial16BitIndices):
		return 2
	default:
		return 4
	}
}

// FaceRemap width depends on MaxId, 1 or 2 bytes per triangle up to 0xffff and 4 above.
type FaceRemap struct {
	MaxId int32
	Data  []byte
}

func faceRemapSize(maxId int32, numTriangles int) int {
	switch {
	case maxId <= 0xff:
		return numTriangles
	case maxId <= 0xffff:
		return numTriangles * 2
	default:
		return numTriangles * 4
	}
}

// BV4Tree is the quantized mid phase tree, stored big-endian where noted.
type BV4Tree struct {
	Tag         [4]byte
	LocalBounds [4]float32
	InitData    [4]byte
	CenterCoeff mgl32.Vec3
	ExtentCoeff mgl32.Vec3
	// 16 bytes per node
	Nodes []byte
}

func (t *BV4Tree) read(c *utils.Cursor) error {
	copy(t.Tag[:], c.Read(4))
	if c.Err() == nil && string(t.Tag[:3]) != "BV4" {
		return c.Failf(utils.ErrStructuralMismatch, "expected BV4 tree, got %q", t.Tag[:])
	}
	if version := c.I32BE(); c.Err() == nil && version != BV4_VERSION {
		return c.Failf(utils.ErrVersionMismatch, "BV4 version %d", version)
	}
	copy(t.LocalBounds[:], c.F32s(4))
	copy(t.InitData[:], c.Read(4))
	t.CenterCoeff = c.Vec3()
	t.ExtentCoeff = c.Vec3()
	numNodes := int(c.I32BE())
	if !c.Need(numNodes, 16) {
		return c.Err()
	}
	t.Nodes = c.Read(numNodes * 16)
	return c.Err()
}

func (t *BV4Tree) write(c *utils.Cursor) error {
	if len(t.Nodes)%16 != 0 {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of BV4 nodes", len(t.Nodes))
	}
	c.Write(t.Tag[:])
	c.WriteI32BE(BV4_VERSION)
	c.WriteF32s(t.LocalBounds[:])
	c.Write(t.InitData[:])
	c.WriteVec3(t.CenterCoeff)
	c.WriteVec3(t.ExtentCoeff)
	c.WriteI32BE(int32(len(t.Nodes) / 16))
	c.Write(t.Nodes)
	return c.Err()
}

// TriangleMesh is a cooked triangle mesh.
type TriangleMesh struct {
	Layer      Layer
	Head       [TRIANGLE_HEAD_SIZE]byte
	MidPhaseId [4]byte
	Flags      SerialFlags

	Vertices []mgl32.Vec3
	// three per triangle
	Indices []uint32

	// 2 bytes per triangle, with SerialMaterials
	Materials []byte
	// with SerialFaceRemap
	FaceRemap *FaceRemap
	// 12 bytes per triangle, with SerialAdjacencies
	Adjacencies []byte

	BV4         BV4Tree
	GeomEpsilon float32
	BBox        [6]float32
	ExtraData   []byte

	// with SerialGRBData, everything up to and including the BV32 tree
	GRB []byte
}

func (m *TriangleMesh) NumTriangles() int { return len(m.Indices) / 3 }

func (m *TriangleMesh) Triangles() [][3]uint32 {
	tris := make([][3]uint32, m.NumTriangles())
	for i := range tris {
		copy(tris[i][:], m.Indices[i*3:])
	}
	return tris
}

func readIndex(c *utils.Cursor, size int) uint32 {
	switch size {
	case 1:
		return uint32(c.U8())
	case 2:
		return uint32(c.U16())
	default:
		return c.U32()
	}
}

func (m *TriangleMesh) read(c *utils.Cursor) error {
	m.Layer = Layer(c.U32())
	copy(m.Head[:], c.Read(TRIANGLE_HEAD_SIZE))
	copy(m.MidPhaseId[:], c.Read(4))
	m.Flags = SerialFlags(c.I32())
	numVertices := int(c.U32())
	numTriangles := int(c.U32())

	if !c.Need(numVertices, 12) {
		return c.Err()
	}
	m.Vertices = utils.ReadFixedVec(c, numVertices, (*utils.Cursor).Vec3)

	indexSize := m.Flags.indexSize()
	if !c.Need(numTriangles*3, indexSize) {
		return c.Err()
	}
	m.Indices = make([]uint32, numTriangles*3)
	for i := range m.Indices {
		m.Indices[i] = readIndex(c, indexSize)
	}

	if m.Flags.Has(SerialMaterials) {
		m.Materials = c.Read(numTriangles * 2)
	}
	if m.Flags.Has(SerialFaceRemap) {
		m.FaceRemap = &FaceRemap{MaxId: c.I32()}
		m.FaceRemap.Data = c.Read(faceRemapSize(m.FaceRemap.MaxId, numTriangles))
	}
	if m.Flags.Has(SerialAdjacencies) {
		m.Adjacencies = c.Read(numTriangles * 12)
	}
	if c.Err() != nil {
		return c.Err()
	}

	if err := m.BV4.read(c); err != nil {
		return errors.Wrap(err, "mid phase")
	}

	m.GeomEpsilon = c.F32()
	copy(m.BBox[:], c.F32s(6))
	numExtra := int(c.I32())
	if !c.Need(numExtra, 1) {
		return c.Err()
	}
	m.ExtraData = c.Read(numExtra)

	if m.Flags.Has(SerialGRBData) {
		m.GRB = readGRB(c, numTriangles, indexSize)
	}
	return c.Err()
}

// readGRB walks the gpu copy of the mesh and its BV32 tree and returns it raw.
func readGRB(c *utils.Cursor, numTriangles, indexSize int) []byte {
	start := c.Tell()
	if !c.Need(numTriangles, 3*indexSize+20) {
		return nil
	}
	c.Skip(numTriangles * 3 * indexSize)
	c.Skip(numTriangles * 16) // adjacencies
	c.Skip(numTriangles * 4)  // face remap
	c.ExpectTag("BV32")
	c.Skip(4)  // version
	c.Skip(16) // local bounds
	c.Skip(4)  // init data
	numPacked := int(c.I32())
	c.I32BE()
	if !c.Need(numPacked, 8) {
		return nil
	}
	for i := 0; i < numPacked && c.Err() == nil; i++ {
		n := int(c.I32())
		c.I32BE()
		if !c.Need(n, 36) {
			return nil
		}
		c.Skip(n * 36)
	}
	if c.Err() != nil {
		return nil
	}
	end := c.Tell()
	c.Seek(start)
	return c.Read(end - start)
}

func (m *TriangleMesh) validate() error {
	numTriangles := m.NumTriangles()
	switch {
	case len(m.Indices)%3 != 0:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d indices do not form triangles", len(m.Indices))
	case m.Flags.Has(Serial8BitIndices) && m.Flags.Has(Serial16BitIndices):
		return errors.Wrap(utils.ErrStructuralMismatch, "both 8 and 16 bit indices requested")
	case m.Flags.Has(SerialMaterials) != (m.Materials != nil),
		m.Flags.Has(SerialFaceRemap) != (m.FaceRemap != nil),
		m.Flags.Has(SerialAdjacencies) != (m.Adjacencies != nil),
		m.Flags.Has(SerialGRBData) != (m.GRB != nil):
		return errors.Wrapf(utils.ErrStructuralMismatch, "flags %v disagree with the cooked data present", m.Flags)
	case m.Materials != nil && len(m.Materials) != numTriangles*2:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of materials for %d triangles", len(m.Materials), numTriangles)
	case m.FaceRemap != nil && len(m.FaceRemap.Data) != faceRemapSize(m.FaceRemap.MaxId, numTriangles):
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of face remap for %d triangles", len(m.FaceRemap.Data), numTriangles)
	case m.Adjacencies != nil && len(m.Adjacencies) != numTriangles*12:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of adjacencies for %d triangles", len(m.Adjacencies), numTriangles)
	}

	limit := uint32(1)<<(8*uint(m.Flags.indexSize())) - 1
	if m.Flags.indexSize() == 4 {
		limit = 0xFFFFFFFF
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return errors.Wrapf(utils.ErrStructuralMismatch, "index %d references vertex %d of %d", i, idx, len(m.Vertices))
		}
		if idx > limit {
			return errors.Wrapf(utils.ErrStructuralMismatch, "index %d value %d does not fit flags %v", i, idx, m.Flags)
		}
	}
	return nil
}

func (m *TriangleMesh) write(c *utils.Cursor) error {
	if err := m.validate(); err != nil {
		return err
	}
	c.WriteU32(uint32(m.Layer))
	c.Write(m.Head[:])
	c.Write(m.MidPhaseId[:])
	c.WriteI32(int32(m.Flags))
	c.WriteU32(uint32(len(m.Vertices)))
	c.WriteU32(uint32(m.NumTriangles()))
	for _, v := range m.Vertices {
		c.WriteVec3(v)
	}

	indexSize := m.Flags.indexSize()
	for _, idx := range m.Indices {
		switch indexSize {
		case 1:
			c.WriteU8(uint8(idx))
		case 2:
			c.WriteU16(uint16(idx))
		default:
			c.WriteU32(idx)
		}
	}

	c.Write(m.Materials)
	if m.FaceRemap != nil {
		c.WriteI32(m.FaceRemap.MaxId)
		c.Write(m.FaceRemap.Data)
	}
	c.Write(m.Adjacencies)

	if err := m.BV4.write(c); err != nil {
		return errors.Wrap(err, "mid phase")
	}
	c.WriteF32(m.GeomEpsilon)
	c.WriteF32s(m.BBox[:])
	c.WriteI32(int32(len(m.ExtraData)))
	c.Write(m.ExtraData)
	c.Write(m.GRB)
	return c.Err()
}
