package utils

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Assets are authored Z-up, glTF is Y-up: (x, y, z) -> (x, z, -y).
func ZUpToYUp(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[2], -v[1]}
}

func ZUpToYUpQuat(q mgl32.Quat) mgl32.Quat {
	return mgl32.Quat{W: q.W, V: ZUpToYUp(q.V)}
}

// ZUpToYUpMat converts an affine transform between the two bases.
func ZUpToYUpMat(m mgl32.Mat4) mgl32.Mat4 {
	basis := mgl32.Mat4{
		1, 0, 0, 0,
		0, 0, -1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	}
	return basis.Mul4(m).Mul4(basis.Transpose())
}

// BBox accumulates an axis aligned bounding box. The zero value is empty.
type BBox struct {
	Min, Max mgl32.Vec3
	Valid    bool
}

func (b *BBox) Add(v mgl32.Vec3) {
	if !b.Valid {
		b.Min, b.Max, b.Valid = v, v, true
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], v[i])
		b.Max[i] = math32.Max(b.Max[i], v[i])
	}
}

func (b *BBox) Union(o BBox) {
	if o.Valid {
		b.Add(o.Min)
		b.Add(o.Max)
	}
}

func (b BBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b BBox) HalfExtents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
