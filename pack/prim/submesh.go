package prim

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

type Vertex struct {
	Position mgl32.Vec4
	// two skinning tetrads, the second one only uses two slots on disk
	Weights   [2]mgl32.Vec4
	Joints    [2][4]uint8
	Normal    mgl32.Vec4
	Tangent   mgl32.Vec4
	Bitangent mgl32.Vec4
	UVs       []mgl32.Vec2
	Color     [4]uint8
}

type SubMesh struct {
	Object
	// trailing indices after the triangle list, purpose unknown
	NumAdditionalIndices uint32
	Indices              []uint16
	Vertices             []Vertex
	Collision            BoxColi
	Cloth                *Cloth
}

func (s *SubMesh) NumUVChannels() int {
	if len(s.Vertices) == 0 {
		return 0
	}
	return len(s.Vertices[0].UVs)
}

// Triangles returns the index list without additional indices.
func (s *SubMesh) Triangles() []uint16 {
	n := len(s.Indices) - int(s.NumAdditionalIndices)
	if n < 0 {
		n = 0
	}
	return s.Indices[:n]
}

func (s *SubMesh) BBox() utils.BBox {
	var bbox utils.BBox
	for _, v := range s.Vertices {
		bbox.Add(v.Position.Vec3())
	}
	return bbox
}

func (s *SubMesh) validate() error {
	if int(s.NumAdditionalIndices) > len(s.Indices) {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d additional indices but only %d indices",
			s.NumAdditionalIndices, len(s.Indices))
	}
	numUV := s.NumUVChannels()
	for i, v := range s.Vertices {
		if len(v.UVs) != numUV {
			return errors.Wrapf(utils.ErrStructuralMismatch, "vertex %d has %d uv channels, expected %d", i, len(v.UVs), numUV)
		}
	}
	for i, idx := range s.Triangles() {
		if int(idx) >= len(s.Vertices) {
			return errors.Wrapf(utils.ErrStructuralMismatch, "index %d references vertex %d of %d", i, idx, len(s.Vertices))
		}
	}
	return nil
}

// meshColorsApply is false for unskinned meshes that use color1, whose vertices stay white
func meshColorsApply(m *Mesh, flags HeaderFlags) bool {
	return !m.Properties.Has(ObjectUseColor1) || flags.Has(HeaderIsWeighted)
}

// colors are stored when the mesh colors apply and the sub mesh does not use color1 itself
func hasColorStream(s *SubMesh, m *Mesh, flags HeaderFlags) bool {
	return meshColorsApply(m, flags) && !s.Properties.Has(ObjectUseColor1)
}

func vertexStride(m *Mesh, flags HeaderFlags, numUV int, colors bool) int {
	stride := 8
	if m.Properties.Has(ObjectIsHighResolution) {
		stride = 12
	}
	if flags.Has(HeaderIsWeighted) {
		stride += 12
	}
	stride += 12 + 4*numUV
	if colors {
		stride += 4
	}
	return stride
}

func (s *SubMesh) read(c *utils.Cursor, m *Mesh, flags HeaderFlags) error {
	s.Object.read(c)
	numVertices := int(c.U32())
	verticesOffset := c.Offset32()
	numIndices := int(c.U32())
	s.NumAdditionalIndices = c.U32()
	indicesOffset := c.Offset32()
	collisionOffset := c.Offset32()
	clothOffset := c.Offset32()
	numUV := int(c.U32())
	if c.Err() != nil {
		return c.Err()
	}

	c.Seek(verticesOffset)
	if numUV > 0xff {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d uv channels", numUV)
	}
	if !c.Need(numVertices, vertexStride(m, flags, numUV, hasColorStream(s, m, flags))) {
		return c.Err()
	}
	s.readVertices(c, numVertices, numUV, m, flags)

	c.Seek(indicesOffset)
	s.Indices = c.U16s(numIndices + int(s.NumAdditionalIndices))

	c.Seek(collisionOffset)
	s.Collision.read(c)

	if clothOffset != 0 {
		c.Seek(clothOffset)
		s.Cloth = readCloth(c, m.ClothId, numVertices)
	}
	return c.Err()
}

func (s *SubMesh) readVertices(c *utils.Cursor, numVertices, numUV int, m *Mesh, flags HeaderFlags) {
	s.Vertices = make([]Vertex, numVertices)
	vs := s.Vertices

	for i := range vs {
		if m.Properties.Has(ObjectIsHighResolution) {
			for axis := 0; axis < 3; axis++ {
				vs[i].Position[axis] = c.F32()*m.PosScale[axis] + m.PosBias[axis]
			}
			vs[i].Position[3] = 1
		} else {
			copy(vs[i].Position[:], c.ReadQuantizedI16Vec(m.PosScale[:], m.PosBias[:]))
		}
	}

	if flags.Has(HeaderIsWeighted) {
		for i := range vs {
			for j := 0; j < 4; j++ {
				vs[i].Weights[0][j] = utils.DecodeWeight(c.U8())
			}
			for j := 0; j < 4; j++ {
				vs[i].Joints[0][j] = c.U8()
			}
			for j := 0; j < 2; j++ {
				vs[i].Weights[1][j] = utils.DecodeWeight(c.U8())
			}
			for j := 0; j < 2; j++ {
				vs[i].Joints[1][j] = c.U8()
			}
		}
	}

	for i := range vs {
		copy(vs[i].Normal[:], c.ReadUnitU8Vec(4))
		copy(vs[i].Tangent[:], c.ReadUnitU8Vec(4))
		copy(vs[i].Bitangent[:], c.ReadUnitU8Vec(4))
		vs[i].UVs = make([]mgl32.Vec2, numUV)
		for uv := range vs[i].UVs {
			copy(vs[i].UVs[uv][:], c.ReadQuantizedI16Vec(m.TexScaleBias[0:2], m.TexScaleBias[2:4]))
		}
	}

	if hasColorStream(s, m, flags) {
		for i := range vs {
			copy(vs[i].Color[:], c.Read(4))
		}
	} else {
		color := [4]uint8{0xFF, 0xFF, 0xFF, 0xFF}
		if meshColorsApply(m, flags) {
			color = s.Color1
		}
		for i := range vs {
			vs[i].Color = color
		}
	}
}

func (s *SubMesh) writeVertices(c *utils.Cursor, m *Mesh, flags HeaderFlags) {
	vs := s.Vertices
	for i := range vs {
		if m.Properties.Has(ObjectIsHighResolution) {
			for axis := 0; axis < 3; axis++ {
				if m.PosScale[axis] == 0 {
					c.WriteF32(0)
				} else {
					c.WriteF32((vs[i].Position[axis] - m.PosBias[axis]) / m.PosScale[axis])
				}
			}
		} else {
			c.WriteQuantizedI16Vec(vs[i].Position[:], m.PosScale[:], m.PosBias[:])
		}
	}

	if flags.Has(HeaderIsWeighted) {
		for i := range vs {
			for j := 0; j < 4; j++ {
				c.WriteU8(utils.EncodeWeight(vs[i].Weights[0][j]))
			}
			c.Write(vs[i].Joints[0][:])
			for j := 0; j < 2; j++ {
				c.WriteU8(utils.EncodeWeight(vs[i].Weights[1][j]))
			}
			c.Write(vs[i].Joints[1][:2])
		}
	}

	for i := range vs {
		c.WriteUnitU8Vec(vs[i].Normal[:])
		c.WriteUnitU8Vec(vs[i].Tangent[:])
		c.WriteUnitU8Vec(vs[i].Bitangent[:])
		for _, uv := range vs[i].UVs {
			c.WriteQuantizedI16Vec(uv[:], m.TexScaleBias[0:2], m.TexScaleBias[2:4])
		}
	}

	if hasColorStream(s, m, flags) {
		for i := range vs {
			c.Write(vs[i].Color[:])
		}
	}
}

// write emits indices, vertices, collision, cloth and the sub mesh header,
// returns the offset of the one entry sub mesh table
func (s *SubMesh) write(c *utils.Cursor, m *Mesh, flags HeaderFlags) (int, error) {
	indicesOffset := c.Tell()
	c.WriteU16s(s.Indices)
	c.Align(16)

	verticesOffset := c.Tell()
	s.writeVertices(c, m, flags)
	c.Align(16)

	collisionOffset := c.Tell()
	s.Collision.write(c)
	c.Align(16)

	clothOffset := 0
	if s.Cloth != nil {
		clothOffset = c.Tell()
		if err := s.Cloth.write(c, m.ClothId, len(s.Vertices)); err != nil {
			return 0, err
		}
		c.Align(16)
	}

	headerOffset := c.Tell()
	s.Object.write(c)
	c.WriteU32(uint32(len(s.Vertices)))
	c.WriteU32(uint32(verticesOffset))
	c.WriteU32(uint32(len(s.Indices)) - s.NumAdditionalIndices)
	c.WriteU32(s.NumAdditionalIndices)
	c.WriteU32(uint32(indicesOffset))
	c.WriteU32(uint32(collisionOffset))
	c.WriteU32(uint32(clothOffset))
	c.WriteU32(uint32(s.NumUVChannels()))
	c.Align(16)

	tableOffset := c.Tell()
	c.WriteU32(uint32(headerOffset))
	c.WriteU32(0)
	c.WriteU64(0)
	return tableOffset, c.Err()
}
