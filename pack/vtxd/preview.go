package vtxd

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

type PreviewFormat string

const (
	PreviewPNG  PreviewFormat = "png"
	PreviewWEBP PreviewFormat = "webp"
	PreviewTGA  PreviewFormat = "tga"
)

// Image lays the colours out row by row on the smallest square grid that fits them.
func (sm *SubMesh) Image() *image.NRGBA {
	side := int(math.Ceil(math.Sqrt(float64(len(sm.Colors)))))
	if side == 0 {
		side = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i, col := range sm.Colors {
		off := img.PixOffset(i%side, i/side)
		copy(img.Pix[off:off+4], col[:])
	}
	return img
}

// Preview writes the colour grid upscaled so every vertex becomes a cellSize square.
func (sm *SubMesh) Preview(w io.Writer, format PreviewFormat, cellSize int) error {
	var img image.Image = sm.Image()
	if cellSize > 1 {
		b := img.Bounds()
		scaled := image.NewNRGBA(image.Rect(0, 0, b.Dx()*cellSize, b.Dy()*cellSize))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}

	switch format {
	case PreviewPNG:
		return png.Encode(w, img)
	case PreviewWEBP:
		return nativewebp.Encode(w, img, nil)
	case PreviewTGA:
		return tga.Encode(w, img)
	}
	return fmt.Errorf("[vtxd] Unknown preview format '%s'", format)
}
