package prim

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/config"
	"github.com/mogaika/glacier_browser/utils"
)

// Loop is one triangle corner with its own shading attributes.
type Loop struct {
	VertexIndex int
	Normal      mgl32.Vec3
	Tangent     mgl32.Vec3
	Bitangent   mgl32.Vec3
	UVs         []mgl32.Vec2
	Color       [4]uint8
}

// MeshSource is per-loop geometry as handed over by a modelling tool.
type MeshSource struct {
	Positions []mgl32.Vec3
	// optional, per position
	Joints  [][2][4]uint8
	Weights [][2]mgl32.Vec4

	Loops     []Loop
	Triangles [][3]int

	MaterialId uint16
	LodMask    uint8
	ZBias      uint8
	// non nil enables ObjectUseColor1 on the sub mesh
	Color1 *[4]uint8
}

func (src *MeshSource) weighted() bool {
	return src.Joints != nil || src.Weights != nil
}

func (src *MeshSource) validate() error {
	if len(src.Loops) == 0 || len(src.Triangles) == 0 {
		return errors.Wrap(utils.ErrUserInputMismatch, "mesh has no triangles")
	}
	numUV := len(src.Loops[0].UVs)
	if numUV == 0 {
		return errors.Wrap(utils.ErrUserInputMismatch, "mesh has no uv map, tangents can not be exported")
	}
	for i, l := range src.Loops {
		if len(l.UVs) != numUV {
			return errors.Wrapf(utils.ErrUserInputMismatch, "loop %d has %d uv maps, expected %d", i, len(l.UVs), numUV)
		}
		if l.VertexIndex < 0 || l.VertexIndex >= len(src.Positions) {
			return errors.Wrapf(utils.ErrUserInputMismatch, "loop %d references vertex %d of %d", i, l.VertexIndex, len(src.Positions))
		}
	}
	for i, tri := range src.Triangles {
		for _, l := range tri {
			if l < 0 || l >= len(src.Loops) {
				return errors.Wrapf(utils.ErrUserInputMismatch, "triangle %d references loop %d of %d", i, l, len(src.Loops))
			}
		}
	}
	if src.weighted() && (len(src.Joints) != len(src.Positions) || len(src.Weights) != len(src.Positions)) {
		return errors.Wrap(utils.ErrUserInputMismatch, "joints and weights must be given for every position")
	}
	return nil
}

func (src *MeshSource) loopKey(l *Loop) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(l.VertexIndex))
	for _, v := range [][]float32{l.Normal[:], l.Tangent[:], l.Bitangent[:]} {
		for _, f := range v {
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(f))
		}
	}
	for _, uv := range l.UVs {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(uv[0]))
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(uv[1]))
	}
	buf.Write(l.Color[:])
	return buf.Bytes()
}

// weld maps every triangle corner onto a unique vertex slot.
// Corners with identical keys share a slot, slots are ordered by first use.
func (src *MeshSource) weld() (remap []int, slots []int) {
	corners := make([]int, 0, len(src.Triangles)*3)
	for _, tri := range src.Triangles {
		corners = append(corners, tri[0], tri[1], tri[2])
	}

	keys := make([][]byte, len(src.Loops))
	for i := range src.Loops {
		keys[i] = src.loopKey(&src.Loops[i])
	}

	order := make([]int, len(corners))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return bytes.Compare(keys[corners[order[a]]], keys[corners[order[b]]]) < 0
	})

	// group representative is the earliest corner of equal keys
	group := make([]int, len(corners))
	for i := 0; i < len(order); {
		j := i
		rep := order[i]
		for j < len(order) && bytes.Equal(keys[corners[order[j]]], keys[corners[order[i]]]) {
			group[order[j]] = rep
			j++
		}
		i = j
	}

	slotOf := make(map[int]int)
	remap = make([]int, len(corners))
	for i := range corners {
		rep := group[i]
		slot, ok := slotOf[rep]
		if !ok {
			slot = len(slots)
			slotOf[rep] = slot
			slots = append(slots, corners[rep])
		}
		remap[i] = slot
	}
	return remap, slots
}

// Build welds the source into a mesh ready to be written.
// triPerChunk <= 0 takes the configured default.
func (src *MeshSource) Build(triPerChunk int) (*Mesh, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}

	indices, slots := src.weld()
	if len(slots) > MAX_VERTICES {
		return nil, errors.Wrapf(utils.ErrStructuralMismatch, "%d vertices after welding, at most %d supported", len(slots), MAX_VERTICES)
	}

	m := NewMesh()
	m.MaterialId = src.MaterialId
	m.LodMask = src.LodMask
	if src.weighted() {
		m.SubType = SubtypeWeighted
		m.BoneIndices = NewBoneIndices(nil)
		m.BoneInfo = NewBoneInfo()
	}
	if len(slots) > config.GetCodec().HighResThreshold {
		m.Properties.Set(ObjectIsHighResolution, true)
	}

	s := &m.SubMesh
	s.ZBias = src.ZBias
	if src.Color1 != nil {
		s.Properties.Set(ObjectUseColor1, true)
		s.Color1 = *src.Color1
	}

	s.Indices = make([]uint16, len(indices))
	for i, slot := range indices {
		s.Indices[i] = uint16(slot)
	}

	s.Vertices = make([]Vertex, len(slots))
	for i, loopIdx := range slots {
		l := &src.Loops[loopIdx]
		v := &s.Vertices[i]
		p := src.Positions[l.VertexIndex]
		v.Position = p.Vec4(1)
		v.Normal = l.Normal.Vec4(0)
		v.Tangent = l.Tangent.Vec4(0)
		v.Bitangent = l.Bitangent.Vec4(0)
		v.UVs = append([]mgl32.Vec2(nil), l.UVs...)
		v.Color = l.Color
		if src.weighted() {
			v.Joints = src.Joints[l.VertexIndex]
			v.Weights = src.Weights[l.VertexIndex]
		}
	}

	if err := s.BuildBoxColi(triPerChunk); err != nil {
		return nil, err
	}
	return m, nil
}

// Add appends a built mesh and raises the header flags it depends on.
func (rp *RenderPrimitive) Add(m *Mesh) {
	if m.SubType == SubtypeWeighted {
		rp.PropertyFlags.Set(HeaderIsWeighted|HeaderHasBones, true)
	}
	if m.Properties.Has(ObjectIsHighResolution) {
		rp.PropertyFlags.Set(HeaderHasHighResolution, true)
	}
	rp.Objects = append(rp.Objects, m)
}
