package aloc

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

const (
	GAUSS_MAP_FLAG     = 0x3F800000
	CONVEX_GRB_FLAG    = 0x8000
	CONVEX_EDGE_MASK   = 0x7FFF
	CONVEX_COOKED_SIZE = 44

	convexMinSize = 192
)

// ConvexMesh is a cooked convex hull. Only the vertices, placement and mass
// properties are decoded, hull topology is carried as cooked bytes.
type ConvexMesh struct {
	Layer    Layer
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Cooked   [CONVEX_COOKED_SIZE]byte

	Vertices []mgl32.Vec3
	HasGRB   bool

	// 20 bytes per polygon
	HullPolygons    []byte
	PolygonVertices []byte
	// 2 bytes per edge
	FacesByEdges    []byte
	FacesByVertices []byte
	// 8 bytes per edge, only with HasGRB
	Edges []byte

	Reserved     float32
	BBox         [6]float32
	Mass         float32
	Inertia      [9]float32
	CenterOfMass mgl32.Vec3
	GaussFlag    float32
	// present only when GaussFlag is exactly 1.0
	GaussMap []byte
	Radius   float32
	Extents  mgl32.Vec3
}

func (m *ConvexMesh) NumEdges() int    { return len(m.FacesByEdges) / 2 }
func (m *ConvexMesh) NumPolygons() int { return len(m.HullPolygons) / 20 }

func (m *ConvexMesh) HasGaussMap() bool {
	return math.Float32bits(m.GaussFlag) == GAUSS_MAP_FLAG
}

func (m *ConvexMesh) read(c *utils.Cursor) error {
	m.Layer = Layer(c.U32())
	m.Position = c.Vec3()
	m.Rotation = c.Quat()
	copy(m.Cooked[:], c.Read(CONVEX_COOKED_SIZE))

	numVertices := int(c.U32())
	grbAndEdges := c.U32()
	m.HasGRB = grbAndEdges&CONVEX_GRB_FLAG != 0
	numEdges := int(grbAndEdges & CONVEX_EDGE_MASK)
	numPolygons := int(c.U32())
	numPolygonVertices := int(c.U32())

	if !c.Need(numVertices, 12) {
		return c.Err()
	}
	m.Vertices = utils.ReadFixedVec(c, numVertices, (*utils.Cursor).Vec3)

	if !c.Need(numPolygons, 20) {
		return c.Err()
	}
	m.HullPolygons = c.Read(numPolygons * 20)
	m.PolygonVertices = c.Read(numPolygonVertices)
	m.FacesByEdges = c.Read(numEdges * 2)
	m.FacesByVertices = c.Read(numVertices * 3)
	if m.HasGRB {
		m.Edges = c.Read(numEdges * 8)
	}

	m.Reserved = c.F32()
	copy(m.BBox[:], c.F32s(6))
	m.Mass = c.F32()
	copy(m.Inertia[:], c.F32s(9))
	m.CenterOfMass = c.Vec3()
	m.GaussFlag = c.F32()
	if c.Err() == nil && m.HasGaussMap() {
		m.GaussMap = readGaussMap(c)
	}
	m.Radius = c.F32()
	m.Extents = c.Vec3()
	return c.Err()
}

// readGaussMap walks the support vertex map to find its end and returns it raw.
func readGaussMap(c *utils.Cursor) []byte {
	start := c.Tell()
	c.Skip(24)
	c.I32() // subdivision
	numSamples := int(c.I32())
	if !c.Need(numSamples, 2) {
		return nil
	}
	c.Skip(numSamples * 2)
	c.Skip(4)
	c.ExpectTag("VALE")
	c.Skip(4)
	numVerts := int(c.I32())
	numAdjacent := int(c.I32())
	maxIndex := c.I32()
	if maxIndex > 0xff {
		numVerts *= 2
	}
	c.Skip(numVerts)
	c.Skip(numAdjacent)
	if c.Err() != nil {
		return nil
	}
	end := c.Tell()
	c.Seek(start)
	return c.Read(end - start)
}

func (m *ConvexMesh) validate() error {
	switch {
	case len(m.HullPolygons)%20 != 0:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of hull polygons", len(m.HullPolygons))
	case len(m.FacesByEdges)%2 != 0:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of faces by edges", len(m.FacesByEdges))
	case m.NumEdges() > CONVEX_EDGE_MASK:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d edges", m.NumEdges())
	case len(m.FacesByVertices) != len(m.Vertices)*3:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of faces by vertices for %d vertices",
			len(m.FacesByVertices), len(m.Vertices))
	case m.HasGRB && len(m.Edges) != m.NumEdges()*8:
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bytes of edges for %d edges", len(m.Edges), m.NumEdges())
	case !m.HasGRB && len(m.Edges) != 0:
		return errors.Wrap(utils.ErrStructuralMismatch, "edges without grb data")
	case m.HasGaussMap() != (m.GaussMap != nil):
		return errors.Wrapf(utils.ErrStructuralMismatch, "gauss flag %v disagrees with gauss map presence", m.GaussFlag)
	}
	return nil
}

func (m *ConvexMesh) write(c *utils.Cursor) error {
	if err := m.validate(); err != nil {
		return err
	}
	c.WriteU32(uint32(m.Layer))
	c.WriteVec3(m.Position)
	c.WriteQuat(m.Rotation)
	c.Write(m.Cooked[:])

	grbAndEdges := uint32(m.NumEdges())
	if m.HasGRB {
		grbAndEdges |= CONVEX_GRB_FLAG
	}
	c.WriteU32(uint32(len(m.Vertices)))
	c.WriteU32(grbAndEdges)
	c.WriteU32(uint32(m.NumPolygons()))
	c.WriteU32(uint32(len(m.PolygonVertices)))
	for _, v := range m.Vertices {
		c.WriteVec3(v)
	}
	c.Write(m.HullPolygons)
	c.Write(m.PolygonVertices)
	c.Write(m.FacesByEdges)
	c.Write(m.FacesByVertices)
	c.Write(m.Edges)

	c.WriteF32(m.Reserved)
	c.WriteF32s(m.BBox[:])
	c.WriteF32(m.Mass)
	c.WriteF32s(m.Inertia[:])
	c.WriteVec3(m.CenterOfMass)
	c.WriteF32(m.GaussFlag)
	c.Write(m.GaussMap)
	c.WriteF32(m.Radius)
	c.WriteVec3(m.Extents)
	return c.Err()
}
