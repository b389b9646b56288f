package vtxd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/glacier_browser/utils"
)

func testData() *VertexData {
	vd := &VertexData{SubMeshes: []SubMesh{{Id: 7}, {Id: 2}}}
	for i := 0; i < 5; i++ {
		vd.SubMeshes[0].Colors = append(vd.SubMeshes[0].Colors, Color{uint8(i * 50), 10, 20, 255})
	}
	return vd
}

func TestRoundTrip(t *testing.T) {
	vd := testData()
	data, err := vd.Marshal(nil)
	require.NoError(t, err)
	assert.Len(t, data, 4+8+5*4+8)

	logger, hook := test.NewNullLogger()
	got, err := NewFromData(append(data, 0, 0), utils.NewLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, vd.SubMeshes[0], got.SubMeshes[0])
	assert.Equal(t, uint32(2), got.SubMeshes[1].Id)
	assert.Empty(t, got.SubMeshes[1].Colors)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	assert.Equal(t, vd.SubMeshes[0].Colors, got.SubMesh(7).Colors)
	assert.Nil(t, got.SubMesh(3))
}

func TestTruncated(t *testing.T) {
	data, err := testData().Marshal(nil)
	require.NoError(t, err)
	_, err = NewFromData(data[:20], nil)
	assert.True(t, errors.Is(err, utils.ErrUnexpectedEndOfStream), "%v", err)
}

func TestPreview(t *testing.T) {
	sm := testData().SubMeshes[0]
	img := sm.Image()
	assert.Equal(t, image.Rect(0, 0, 3, 3), img.Bounds())
	assert.Equal(t, color.NRGBA{150, 10, 20, 255}, img.NRGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(2, 2))

	decoders := map[PreviewFormat]func(io.Reader) (image.Image, error){
		PreviewPNG: png.Decode,
		PreviewTGA: tga.Decode,
	}
	for format, decode := range decoders {
		var buf bytes.Buffer
		require.NoError(t, sm.Preview(&buf, format, 4))
		decoded, err := decode(&buf)
		require.NoError(t, err, format)
		assert.Equal(t, image.Rect(0, 0, 12, 12), decoded.Bounds())
		r, _, _, _ := decoded.At(5, 1).RGBA()
		assert.Equal(t, uint32(50)*0x101, r)
	}

	var buf bytes.Buffer
	require.NoError(t, sm.Preview(&buf, PreviewWEBP, 1))
	assert.Equal(t, "RIFF", buf.String()[:4])

	assert.Error(t, sm.Preview(&buf, "bmp", 1))
}
