package aloc

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

const (
	PRIMITIVE_BOX     = "BOX"
	PRIMITIVE_CAPSULE = "CAP"
	PRIMITIVE_SPHERE  = "SPH"

	primitiveMinSize = 44
)

// Primitive is one of *Box, *Capsule or *Sphere.
type Primitive interface {
	Tag() string
	Place() *Placement
	readShape(c *utils.Cursor)
	writeShape(c *utils.Cursor)
}

// Placement is written after the shape parameters of every primitive.
type Placement struct {
	// byte following the type tag, normally '.'
	Terminator uint8
	Layer      uint64
	Position   mgl32.Vec3
	Rotation   mgl32.Quat
}

func (p *Placement) Place() *Placement { return p }

func (p *Placement) read(c *utils.Cursor) {
	p.Layer = c.U64()
	p.Position = c.Vec3()
	p.Rotation = c.Quat()
}

func (p *Placement) write(c *utils.Cursor) {
	c.WriteU64(p.Layer)
	c.WriteVec3(p.Position)
	c.WriteQuat(p.Rotation)
}

func (p *Placement) CollisionLayer() Layer { return Layer(p.Layer) }

type Box struct {
	Placement
	HalfExtents mgl32.Vec3
}

func (b *Box) Tag() string { return PRIMITIVE_BOX }

func (b *Box) readShape(c *utils.Cursor) {
	b.HalfExtents = c.Vec3()
	b.Placement.read(c)
}

func (b *Box) writeShape(c *utils.Cursor) {
	c.WriteVec3(b.HalfExtents)
	b.Placement.write(c)
}

type Capsule struct {
	Placement
	Radius float32
	Length float32
}

func (cp *Capsule) Tag() string { return PRIMITIVE_CAPSULE }

func (cp *Capsule) readShape(c *utils.Cursor) {
	cp.Radius = c.F32()
	cp.Length = c.F32()
	cp.Placement.read(c)
}

func (cp *Capsule) writeShape(c *utils.Cursor) {
	c.WriteF32(cp.Radius)
	c.WriteF32(cp.Length)
	cp.Placement.write(c)
}

type Sphere struct {
	Placement
	Radius float32
}

func (s *Sphere) Tag() string { return PRIMITIVE_SPHERE }

func (s *Sphere) readShape(c *utils.Cursor) {
	s.Radius = c.F32()
	s.Placement.read(c)
}

func (s *Sphere) writeShape(c *utils.Cursor) {
	c.WriteF32(s.Radius)
	s.Placement.write(c)
}

func NewPrimitive(tag string) (Primitive, error) {
	var p Primitive
	switch tag {
	case PRIMITIVE_BOX:
		p = &Box{}
	case PRIMITIVE_CAPSULE:
		p = &Capsule{}
	case PRIMITIVE_SPHERE:
		p = &Sphere{}
	default:
		return nil, errors.Wrapf(utils.ErrStructuralMismatch, "unknown primitive %q", tag)
	}
	p.Place().Terminator = '.'
	return p, nil
}

func readPrimitive(c *utils.Cursor) (Primitive, error) {
	tag := string(c.Read(3))
	terminator := c.U8()
	if c.Err() != nil {
		return nil, c.Err()
	}
	p, err := NewPrimitive(tag)
	if err != nil {
		return nil, c.Fail(errors.Wrapf(err, "at 0x%x", c.Tell()-4))
	}
	p.Place().Terminator = terminator
	p.readShape(c)
	return p, c.Err()
}

func writePrimitive(c *utils.Cursor, p Primitive) error {
	if p == nil {
		return errors.Wrap(utils.ErrStructuralMismatch, "nil primitive")
	}
	c.Write([]byte(p.Tag()))
	c.WriteU8(p.Place().Terminator)
	p.writeShape(c)
	return c.Err()
}
