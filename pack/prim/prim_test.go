package prim

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/glacier_browser/utils"
)

// quadSource is a 2x1 quad made of two triangles sharing an edge.
func quadSource() *MeshSource {
	src := &MeshSource{
		Positions: []mgl32.Vec3{
			{-1, -2, 0.5},
			{3, -2, 0.5},
			{3, 4, 1.5},
			{-1, 4, 1.5},
		},
		MaterialId: 3,
		LodMask:    0x7f,
	}
	uvs := []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, vi := range []int{0, 1, 2, 0, 2, 3} {
		src.Loops = append(src.Loops, Loop{
			VertexIndex: vi,
			Normal:      mgl32.Vec3{0, 0, 1},
			Tangent:     mgl32.Vec3{1, 0, 0},
			Bitangent:   mgl32.Vec3{0, 1, 0},
			UVs:         []mgl32.Vec2{uvs[vi]},
			Color:       [4]uint8{uint8(vi * 10), 20, 30, 255},
		})
	}
	src.Triangles = [][3]int{{0, 1, 2}, {3, 4, 5}}
	return src
}

func TestBuilderWeld(t *testing.T) {
	m, err := quadSource().Build(0)
	require.NoError(t, err)

	assert.Len(t, m.SubMesh.Vertices, 4)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, m.SubMesh.Indices)
	assert.Equal(t, uint16(0x20), m.SubMesh.Collision.TriPerChunk)
	assert.Len(t, m.SubMesh.Collision.Entries, 1)
	assert.False(t, m.Properties.Has(ObjectIsHighResolution))
}

func TestBuilderSplitsSeams(t *testing.T) {
	src := quadSource()
	// same position, different uv on the second triangle
	src.Loops[3].UVs = []mgl32.Vec2{{0.5, 0.5}}

	m, err := src.Build(0)
	require.NoError(t, err)
	assert.Len(t, m.SubMesh.Vertices, 5)
	assert.Equal(t, []uint16{0, 1, 2, 3, 2, 4}, m.SubMesh.Indices)
	assert.Equal(t, m.SubMesh.Vertices[0].Position, m.SubMesh.Vertices[3].Position)
}

func TestBuilderRequiresUVMap(t *testing.T) {
	src := quadSource()
	for i := range src.Loops {
		src.Loops[i].UVs = nil
	}
	_, err := src.Build(0)
	assert.True(t, errors.Is(err, utils.ErrUserInputMismatch), "%v", err)
}

func TestFlagsSetKeepsOtherBits(t *testing.T) {
	f := HeaderIsWeighted | HeaderUseBounds
	f.Set(HeaderIsLinked, true)
	assert.True(t, f.Has(HeaderIsWeighted|HeaderUseBounds|HeaderIsLinked))
	f.Set(HeaderIsWeighted, false)
	assert.Equal(t, HeaderIsLinked|HeaderUseBounds, f)
	assert.Equal(t, "isLinked|useBounds", f.String())

	o := ObjectUseColor1
	o.Set(ObjectNoPhysics, true)
	assert.Equal(t, ObjectUseColor1|ObjectNoPhysics, o)
	assert.True(t, ClothId(0x81).IsSmall())
	assert.False(t, ClothId(0x01).IsSmall())
}

func assertVerticesClose(t *testing.T, m *Mesh, want, got []Vertex) {
	require.Len(t, got, len(want))
	for i := range want {
		for axis := 0; axis < 3; axis++ {
			eps := float64(m.PosScale[axis])/32767 + 1e-6
			assert.InDelta(t, want[i].Position[axis], got[i].Position[axis], eps, "vertex %d axis %d", i, axis)
		}
		assert.InDelta(t, float32(1), got[i].Position[3], 1e-6)
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, want[i].Normal[axis], got[i].Normal[axis], 2.0/255)
			assert.InDelta(t, want[i].Tangent[axis], got[i].Tangent[axis], 2.0/255)
			assert.InDelta(t, want[i].Bitangent[axis], got[i].Bitangent[axis], 2.0/255)
		}
		require.Len(t, got[i].UVs, len(want[i].UVs))
		for uv := range want[i].UVs {
			for axis := 0; axis < 2; axis++ {
				eps := float64(m.TexScaleBias[axis])/32767 + 1e-6
				assert.InDelta(t, want[i].UVs[uv][axis], got[i].UVs[uv][axis], eps)
			}
		}
		assert.Equal(t, want[i].Color, got[i].Color)
	}
}

func TestPrimRoundTrip(t *testing.T) {
	m, err := quadSource().Build(0)
	require.NoError(t, err)
	m.SubMesh.Cloth = &Cloth{Data: make([]byte, 0x14*4)}
	m.SubMesh.Cloth.Data[7] = 0x42

	rp := New()
	rp.Add(m)
	rp.Add(func() *Mesh {
		m, err := quadSource().Build(1)
		require.NoError(t, err)
		m.VariantId = 2
		return m
	}())

	data, err := rp.Marshal(nil)
	require.NoError(t, err)

	// header offset placeholder is patched with the header position
	headerOffset := binary.LittleEndian.Uint64(data)
	require.Less(t, headerOffset, uint64(len(data)))
	assert.Equal(t, uint16(PrimTypeObjectHeader), binary.LittleEndian.Uint16(data[headerOffset+2:]))
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(data[8:]))

	got, err := NewFromData(data, nil)
	require.NoError(t, err)
	require.Len(t, got.Objects, 2)
	assert.Equal(t, uint32(BONE_RIG_NONE), got.BoneRigResourceIndex)
	assert.Equal(t, mgl32.Vec3{-1, -2, 0.5}, got.Min)
	assert.Equal(t, mgl32.Vec3{3, 4, 1.5}, got.Max)

	g := got.Objects[0]
	assert.Equal(t, uint16(3), g.MaterialId)
	assert.Equal(t, uint8(0x7f), g.LodMask)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, g.SubMesh.Indices)
	assertVerticesClose(t, rp.Objects[0], rp.Objects[0].SubMesh.Vertices, g.SubMesh.Vertices)
	require.NotNil(t, g.SubMesh.Cloth)
	assert.Equal(t, rp.Objects[0].SubMesh.Cloth.Data, g.SubMesh.Cloth.Data)
	assert.Equal(t, rp.Objects[0].SubMesh.Collision, g.SubMesh.Collision)

	assert.Equal(t, uint8(2), got.Objects[1].VariantId)
	assert.Nil(t, got.Objects[1].SubMesh.Cloth)
	assert.Len(t, got.Objects[1].SubMesh.Collision.Entries, 2)

	// second pass is byte identical once scale and bias settled
	again, err := got.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestPrimWeightedRoundTrip(t *testing.T) {
	src := quadSource()
	src.Joints = make([][2][4]uint8, len(src.Positions))
	src.Weights = make([][2]mgl32.Vec4, len(src.Positions))
	for i := range src.Positions {
		src.Joints[i] = [2][4]uint8{{uint8(i), 1, 2, 3}, {4, 5, 0, 0}}
		src.Weights[i] = [2]mgl32.Vec4{{0.5, 0.25, 0.25, 0}, {0, 0, 0, 0}}
	}
	m, err := src.Build(0)
	require.NoError(t, err)
	m.BoneIndices = NewBoneIndices([]uint16{7, 9})
	m.BoneInfo = NewBoneInfo()
	m.BoneInfo.TotalSize = 0x120
	m.BoneInfo.BoneRemap[7] = 1
	m.BoneInfo.AccelEntries = []BoneAccel{{Offset: 4, NumIndices: 2}}

	rp := New()
	rp.Add(m)
	require.True(t, rp.PropertyFlags.Has(HeaderIsWeighted))

	data, err := rp.Marshal(nil)
	require.NoError(t, err)

	got, err := NewFromData(data, nil)
	require.NoError(t, err)
	g := got.Objects[0]
	assert.Equal(t, []uint16{4, 0, 7, 9}, g.BoneIndices)
	assert.Equal(t, m.BoneInfo, g.BoneInfo)
	for i, v := range g.SubMesh.Vertices {
		want := m.SubMesh.Vertices[i]
		assert.Equal(t, want.Joints[0], v.Joints[0])
		assert.Equal(t, want.Joints[1][:2], v.Joints[1][:2])
		for j := 0; j < 4; j++ {
			assert.InDelta(t, want.Weights[0][j], v.Weights[0][j], 1.0/255)
		}
	}
	assertVerticesClose(t, m, m.SubMesh.Vertices, g.SubMesh.Vertices)
}

func weightedQuadSource() *MeshSource {
	src := quadSource()
	src.Joints = make([][2][4]uint8, len(src.Positions))
	src.Weights = make([][2]mgl32.Vec4, len(src.Positions))
	for i := range src.Positions {
		src.Joints[i] = [2][4]uint8{{uint8(i), 0, 0, 0}, {}}
		src.Weights[i] = [2]mgl32.Vec4{{1, 0, 0, 0}, {}}
	}
	return src
}

func TestPrimWeightedBuiltRoundTrip(t *testing.T) {
	m, err := weightedQuadSource().Build(0)
	require.NoError(t, err)
	assert.Equal(t, []uint16{2, 0}, m.BoneIndices)
	require.NotNil(t, m.BoneInfo)

	rp := New()
	rp.Add(m)
	data, err := rp.Marshal(nil)
	require.NoError(t, err)

	got, err := NewFromData(data, nil)
	require.NoError(t, err)
	require.Len(t, got.Objects, 1)
	g := got.Objects[0]
	assert.Equal(t, []uint16{2, 0}, g.BoneIndices)
	assert.Equal(t, m.BoneInfo.BoneRemap, g.BoneInfo.BoneRemap)
	assert.Empty(t, g.BoneInfo.AccelEntries)
	for i, v := range g.SubMesh.Vertices {
		assert.Equal(t, m.SubMesh.Vertices[i].Joints[0], v.Joints[0])
	}
	assertVerticesClose(t, m, m.SubMesh.Vertices, g.SubMesh.Vertices)

	// a weighted mesh without any bone table gets an empty one
	m.BoneIndices = nil
	data, err = rp.Marshal(nil)
	require.NoError(t, err)
	got, err = NewFromData(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint16{2, 0}, got.Objects[0].BoneIndices)
}

func TestPrimRejectsUnprefixedBoneIndices(t *testing.T) {
	for _, indices := range [][]uint16{{1, 2, 3}, {7}, {}, {3, 1, 0}} {
		m, err := weightedQuadSource().Build(0)
		require.NoError(t, err)
		m.BoneIndices = indices
		rp := New()
		rp.Add(m)
		_, err = rp.Marshal(nil)
		assert.True(t, errors.Is(err, utils.ErrStructuralMismatch), "%v: %v", indices, err)
	}
}

func TestPrimHighResolutionAndLinked(t *testing.T) {
	m, err := quadSource().Build(0)
	require.NoError(t, err)
	m.Properties.Set(ObjectIsHighResolution, true)

	rp := New()
	rp.PropertyFlags.Set(HeaderIsLinked, true)
	rp.Add(m)

	data, err := rp.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, float32(0x7FFF), rp.Objects[0].PosScale[3])
	assert.Equal(t, float32(0), rp.Objects[0].PosBias[3])

	got, err := NewFromData(data, nil)
	require.NoError(t, err)
	for i, v := range got.Objects[0].SubMesh.Vertices {
		assert.InDelta(t, m.SubMesh.Vertices[i].Position[0], v.Position[0], 1e-5)
		assert.InDelta(t, m.SubMesh.Vertices[i].Position[2], v.Position[2], 1e-5)
	}
}

func TestPrimColor1(t *testing.T) {
	src := quadSource()
	src.Color1 = &[4]uint8{1, 2, 3, 4}
	m, err := src.Build(0)
	require.NoError(t, err)

	rp := New()
	rp.Add(m)
	data, err := rp.Marshal(nil)
	require.NoError(t, err)

	got, err := NewFromData(data, nil)
	require.NoError(t, err)
	for _, v := range got.Objects[0].SubMesh.Vertices {
		assert.Equal(t, [4]uint8{1, 2, 3, 4}, v.Color)
	}
}

func TestPrimMeshColor1(t *testing.T) {
	roundTrip := func(src *MeshSource) *Mesh {
		m, err := src.Build(0)
		require.NoError(t, err)
		m.Properties.Set(ObjectUseColor1, true)
		rp := New()
		rp.Add(m)
		data, err := rp.Marshal(nil)
		require.NoError(t, err)
		got, err := NewFromData(data, nil)
		require.NoError(t, err)
		return got.Objects[0]
	}

	// unskinned mesh with color1 keeps white vertices, sub mesh color1 is not substituted
	src := quadSource()
	src.Color1 = &[4]uint8{1, 2, 3, 4}
	for _, v := range roundTrip(src).SubMesh.Vertices {
		assert.Equal(t, [4]uint8{0xFF, 0xFF, 0xFF, 0xFF}, v.Color)
	}

	// skinned meshes still take the sub mesh color1
	src = weightedQuadSource()
	src.Color1 = &[4]uint8{1, 2, 3, 4}
	for _, v := range roundTrip(src).SubMesh.Vertices {
		assert.Equal(t, [4]uint8{1, 2, 3, 4}, v.Color)
	}
}

func TestPrimRejectsBadInput(t *testing.T) {
	m, err := quadSource().Build(0)
	require.NoError(t, err)
	rp := New()
	rp.Add(m)
	data, err := rp.Marshal(nil)
	require.NoError(t, err)

	_, err = NewFromData(data[:len(data)/2], nil)
	assert.Error(t, err)

	_, err = NewFromData(data[:4], nil)
	assert.True(t, errors.Is(err, utils.ErrUnexpectedEndOfStream), "%v", err)

	// turn the mesh into a decal
	c := utils.NewCursor(data)
	c.Seek(c.Offset64() + 16)
	c.Seek(c.Offset32())
	meshOffset := c.Offset32()
	require.NoError(t, c.Err())
	bad := append([]byte(nil), data...)
	binary.LittleEndian.PutUint16(bad[meshOffset+2:], uint16(PrimTypeDecal))
	_, err = NewFromData(bad, nil)
	assert.True(t, errors.Is(err, utils.ErrStructuralMismatch), "%v", err)

	m.SubMesh.Indices[0] = 40
	_, err = rp.Marshal(nil)
	assert.True(t, errors.Is(err, utils.ErrStructuralMismatch), "%v", err)
}

func TestBoxColiChunks(t *testing.T) {
	s := &SubMesh{}
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {4, 4, 0}, {3, 4, 0}, {4, 3, 0}} {
		s.Vertices = append(s.Vertices, Vertex{Position: p.Vec4(1)})
	}
	s.Indices = []uint16{0, 1, 2, 3, 4, 5, 0, 1, 2}
	require.NoError(t, s.BuildBoxColi(2))

	assert.Equal(t, uint16(2), s.Collision.TriPerChunk)
	require.Len(t, s.Collision.Entries, 2)
	// first chunk spans the whole mesh, z is degenerate and quantizes to 0
	assert.Equal(t, BoxColiEntry{Min: [3]uint8{0, 0, 0}, Max: [3]uint8{255, 255, 0}}, s.Collision.Entries[0])
	assert.Equal(t, BoxColiEntry{Min: [3]uint8{0, 0, 0}, Max: [3]uint8{64, 64, 0}}, s.Collision.Entries[1])
}
