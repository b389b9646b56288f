package mrtr

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/utils/gltfutils"
)

func testRig() *Rig {
	r := &Rig{
		Parents: []int32{-1, 0, 1, 0},
		Names:   []string{"root", "spine", "head", "l_thigh"},
	}
	for i := range r.Parents {
		r.Quaternions = append(r.Quaternions, mgl32.QuatRotate(float32(i)*0.25, mgl32.Vec3{0, 0, 1}))
		r.Positions = append(r.Positions, mgl32.Vec4{0, 0, float32(i), 0})
	}
	r.Preamble[0] = 0x4d
	r.Reserved[3] = 0x11
	r.BoneMapReserved[0] = 0x22
	return r
}

func TestRoundTrip(t *testing.T) {
	r := testRig()
	data, err := r.Marshal(nil)
	require.NoError(t, err)

	namesOffset := int(binary.LittleEndian.Uint64(data[HEADER_OFFSET:]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[namesOffset:]))
	assert.Equal(t, uint32(NAMES_HEADER_SIZE+8*4), binary.LittleEndian.Uint32(data[namesOffset+0x18:]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[BONE_MAP_OFFSET:]))

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	got, err := NewFromData(data, utils.NewLogger(logger))
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())

	assert.Equal(t, r.Parents, got.Parents)
	assert.Equal(t, r.Names, got.Names)
	assert.Equal(t, []uint32{0, 1, 2, 3}, got.NameIndices)
	assert.Equal(t, r.Quaternions, got.Quaternions)
	assert.Equal(t, r.Positions, got.Positions)
	assert.Equal(t, r.Preamble, got.Preamble)
	assert.Equal(t, r.Reserved, got.Reserved)
	assert.Equal(t, 2, got.BoneIndex("head"))
	assert.Equal(t, [][]int{{1, 3}, {2}, nil, nil}, got.Children())

	again, err := got.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestBadParents(t *testing.T) {
	for _, parents := range [][]int32{{0}, {-1, 5}, {-1, -2}, {1, 0}} {
		r := testRig()
		r.Parents = parents
		r.Quaternions = r.Quaternions[:len(parents)]
		r.Positions = r.Positions[:len(parents)]
		_, err := r.Marshal(nil)
		assert.True(t, errors.Is(err, utils.ErrStructuralMismatch), "%v: %v", parents, err)
	}
}

func TestTruncated(t *testing.T) {
	data, err := testRig().Marshal(nil)
	require.NoError(t, err)

	namesOffset := int(binary.LittleEndian.Uint64(data[HEADER_OFFSET:]))
	_, err = NewFromData(data[:namesOffset+NAMES_HEADER_SIZE], nil)
	assert.True(t, errors.Is(err, utils.ErrUnexpectedEndOfStream), "%v", err)

	_, err = NewFromData(data[:BONE_MAP_OFFSET+8], nil)
	assert.True(t, errors.Is(err, utils.ErrStructuralMismatch), "%v", err)
}

func TestExportGLTF(t *testing.T) {
	r := testRig()
	doc := gltfutils.NewDocument()
	joints, err := r.ExportGLTF(doc)
	require.NoError(t, err)

	require.Len(t, joints, 4)
	assert.Equal(t, []uint32{joints[0]}, doc.Scenes[0].Nodes)
	assert.Equal(t, []uint32{joints[1], joints[3]}, doc.Nodes[joints[0]].Children)
	assert.Equal(t, "head", doc.Nodes[joints[2]].Name)
	assert.InDelta(t, 2.0, doc.Nodes[joints[2]].Translation[1], 1e-6)
}
