package aloc

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/utils"
)

const ID_STRING = "ID\x00\x00\x00\x05PhysX"

const (
	MAGIC_CONVEX    = "CVX"
	MAGIC_TRIANGLE  = "TRI"
	MAGIC_PRIMITIVE = "ICP"
)

type DataType uint32

const (
	DataNone                      DataType = 0
	DataConvexMesh                DataType = 1
	DataTriangleMesh              DataType = 2
	DataConvexMeshAndTriangleMesh DataType = 3
	DataPrimitive                 DataType = 4
	DataConvexMeshAndPrimitive    DataType = 5
	DataTriangleMeshAndPrimitive  DataType = 6
	DataKinematicLinked           DataType = 132
	DataShatterLinked             DataType = 144
	DataKinematicLinked2          DataType = 192
)

var dataTypeNames = map[DataType]string{
	DataNone:                      "NONE",
	DataConvexMesh:                "CONVEX_MESH",
	DataTriangleMesh:              "TRIANGLE_MESH",
	DataConvexMeshAndTriangleMesh: "CONVEX_MESH_AND_TRIANGLE_MESH",
	DataPrimitive:                 "PRIMITIVE",
	DataConvexMeshAndPrimitive:    "CONVEX_MESH_AND_PRIMITIVE",
	DataTriangleMeshAndPrimitive:  "TRIANGLE_MESH_AND_PRIMITIVE",
	DataKinematicLinked:           "KINEMATIC_LINKED",
	DataShatterLinked:             "SHATTER_LINKED",
	DataKinematicLinked2:          "KINEMATIC_LINKED_2",
}

func (t DataType) String() string {
	if n, ok := dataTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("DataType(%d)", uint32(t))
}

type CollisionType uint32

const (
	CollisionNone               CollisionType = 0
	CollisionStatic             CollisionType = 1
	CollisionRigidBody          CollisionType = 2
	CollisionShatterLinked      CollisionType = 16
	CollisionKinematicLinked    CollisionType = 32
	CollisionBackwardCompatible CollisionType = 0x7FFFFFFF
)

var collisionTypeNames = map[CollisionType]string{
	CollisionNone:               "NONE",
	CollisionStatic:             "STATIC",
	CollisionRigidBody:          "RIGIDBODY",
	CollisionShatterLinked:      "SHATTER_LINKED",
	CollisionKinematicLinked:    "KINEMATIC_LINKED",
	CollisionBackwardCompatible: "BACKWARD_COMPATIBLE",
}

func (t CollisionType) String() string {
	if n, ok := collisionTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("CollisionType(%d)", uint32(t))
}

type section int

const (
	sectionConvex section = iota
	sectionTriangle
	sectionPrimitive
	sectionShatter
)

// bodyLayout lists the sections of a body in file order and the header magic they imply.
// Sections after the first are introduced by their own 4 byte tag.
type bodyLayout struct {
	magic    string
	sections []section
}

var layouts = map[DataType]bodyLayout{
	DataConvexMesh:                {MAGIC_CONVEX, []section{sectionConvex}},
	DataTriangleMesh:              {MAGIC_TRIANGLE, []section{sectionTriangle}},
	DataPrimitive:                 {MAGIC_PRIMITIVE, []section{sectionPrimitive}},
	DataConvexMeshAndTriangleMesh: {MAGIC_CONVEX, []section{sectionConvex, sectionTriangle}},
	DataConvexMeshAndPrimitive:    {MAGIC_CONVEX, []section{sectionConvex, sectionPrimitive}},
	DataTriangleMeshAndPrimitive:  {MAGIC_TRIANGLE, []section{sectionTriangle, sectionPrimitive}},
	DataShatterLinked:             {"", []section{sectionShatter}},
}

var magicLayouts = map[string]bodyLayout{
	MAGIC_CONVEX:    layouts[DataConvexMesh],
	MAGIC_TRIANGLE:  layouts[DataTriangleMesh],
	MAGIC_PRIMITIVE: layouts[DataPrimitive],
}

var sectionTags = map[section]string{
	sectionTriangle:  MAGIC_TRIANGLE + ".",
	sectionPrimitive: MAGIC_PRIMITIVE + ".",
}

// layoutFor trusts the data type. Only data types without a fixed body fall back to the magic.
func layoutFor(dt DataType, magic string) (bodyLayout, bool) {
	if l, ok := layouts[dt]; ok {
		return l, true
	}
	l, ok := magicLayouts[magic]
	return l, ok
}

// Physics is the root of an ALOC file.
type Physics struct {
	DataType      DataType
	CollisionType CollisionType
	IdString      [11]byte
	Magic         string
	// byte following the magic, normally '.'
	MagicTerminator uint8

	Convexes   []*ConvexMesh
	Triangles  []*TriangleMesh
	Primitives []Primitive

	// only for DataShatterLinked
	ShatterCount uint32

	// tags found in front of secondary sections, keyed by the section tag they replace
	SectionTags map[string]string

	// bytes after the known body, kept verbatim
	Tail []byte
}

func New(dt DataType, ct CollisionType) *Physics {
	p := &Physics{
		DataType:        dt,
		CollisionType:   ct,
		MagicTerminator: '.',
	}
	copy(p.IdString[:], ID_STRING)
	if l, ok := layouts[dt]; ok {
		p.Magic = l.magic
	}
	return p
}

func NewFromData(buf []byte, log *utils.Logger) (*Physics, error) {
	c := utils.NewCursor(buf)
	p := &Physics{}
	if err := p.read(c, log); err != nil {
		return nil, errors.Wrap(err, "[aloc] read")
	}
	return p, nil
}

func (p *Physics) read(c *utils.Cursor, log *utils.Logger) error {
	p.DataType = DataType(c.U32())
	p.CollisionType = CollisionType(c.U32())
	copy(p.IdString[:], c.Read(len(p.IdString)))
	p.Magic = string(c.Read(3))
	p.MagicTerminator = c.U8()
	if c.Err() != nil {
		return c.Err()
	}

	layout, ok := layoutFor(p.DataType, p.Magic)
	if !ok {
		log.Warnf("[aloc] unknown body %q for data type %v, kept raw", p.Magic, p.DataType)
		p.Tail = c.Read(c.Remaining())
		return c.Err()
	}
	if layout.magic != "" && layout.magic != p.Magic {
		log.Warnf("[aloc] data type %v does not match magic %q, reading as %v", p.DataType, p.Magic, p.DataType)
	}

	for i, s := range layout.sections {
		if i != 0 {
			expect := sectionTags[s]
			tag := string(c.Read(4))
			if c.Err() == nil && tag != expect {
				log.Warnf("[aloc] section tag %q where %q expected", tag, expect)
				if p.SectionTags == nil {
					p.SectionTags = make(map[string]string)
				}
				p.SectionTags[expect] = tag
			}
		}
		if err := p.readSection(c, s, log); err != nil {
			return err
		}
	}

	if rem := c.Remaining(); rem != 0 && c.Err() == nil {
		if p.DataType != DataShatterLinked {
			log.Printf("[aloc] keeping %d trailing bytes", rem)
		}
		p.Tail = c.Read(rem)
	}
	return c.Err()
}

func (p *Physics) readSection(c *utils.Cursor, s section, log *utils.Logger) error {
	if s == sectionShatter {
		p.ShatterCount = c.U32()
		return c.Err()
	}

	count := int(c.U32())
	switch s {
	case sectionConvex:
		if !c.Need(count, convexMinSize) {
			return c.Err()
		}
		p.Convexes = make([]*ConvexMesh, count)
		for i := range p.Convexes {
			m := &ConvexMesh{}
			if err := m.read(c); err != nil {
				return errors.Wrapf(err, "convex mesh %d", i)
			}
			p.Convexes[i] = m
		}
	case sectionTriangle:
		if !c.Need(count, triangleMinSize) {
			return c.Err()
		}
		p.Triangles = make([]*TriangleMesh, count)
		for i := range p.Triangles {
			m := &TriangleMesh{}
			if err := m.read(c); err != nil {
				return errors.Wrapf(err, "triangle mesh %d", i)
			}
			p.Triangles[i] = m
		}
	case sectionPrimitive:
		if !c.Need(count, primitiveMinSize) {
			return c.Err()
		}
		p.Primitives = make([]Primitive, count)
		for i := range p.Primitives {
			prim, err := readPrimitive(c)
			if err != nil {
				return errors.Wrapf(err, "primitive %d", i)
			}
			p.Primitives[i] = prim
		}
	}
	log.Printf("[aloc] read %d items of section %d", count, s)
	return c.Err()
}

func (p *Physics) Marshal(log *utils.Logger) ([]byte, error) {
	c := utils.NewWriter()
	if err := p.write(c, log); err != nil {
		return nil, errors.Wrap(err, "[aloc] write")
	}
	return c.Bytes(), c.Err()
}

func (p *Physics) write(c *utils.Cursor, log *utils.Logger) error {
	magic := p.Magic
	layout, ok := layoutFor(p.DataType, magic)
	if magic == "" && ok {
		magic = layout.magic
	}
	if len(magic) != 3 {
		return errors.Wrapf(utils.ErrStructuralMismatch, "magic %q is not 3 bytes", magic)
	}

	c.WriteU32(uint32(p.DataType))
	c.WriteU32(uint32(p.CollisionType))
	c.Write(p.IdString[:])
	c.Write([]byte(magic))
	c.WriteU8(p.MagicTerminator)

	if !ok {
		if len(p.Convexes)+len(p.Triangles)+len(p.Primitives) != 0 {
			return errors.Wrapf(utils.ErrStructuralMismatch, "data type %v with magic %q can not hold shapes", p.DataType, magic)
		}
		c.Write(p.Tail)
		return c.Err()
	}
	if err := p.checkShapesFit(layout); err != nil {
		return err
	}

	for i, s := range layout.sections {
		if i != 0 {
			tag := sectionTags[s]
			if t, ok := p.SectionTags[tag]; ok && len(t) == len(tag) {
				tag = t
			}
			c.Write([]byte(tag))
		}
		if err := p.writeSection(c, s); err != nil {
			return err
		}
	}
	c.Write(p.Tail)
	log.Printf("[aloc] wrote %v with %d bytes", p.DataType, c.Len())
	return c.Err()
}

// checkShapesFit refuses shapes the body layout has no section for.
func (p *Physics) checkShapesFit(layout bodyLayout) error {
	has := make(map[section]bool)
	for _, s := range layout.sections {
		has[s] = true
	}
	if len(p.Convexes) != 0 && !has[sectionConvex] {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%v can not hold convex meshes", p.DataType)
	}
	if len(p.Triangles) != 0 && !has[sectionTriangle] {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%v can not hold triangle meshes", p.DataType)
	}
	if len(p.Primitives) != 0 && !has[sectionPrimitive] {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%v can not hold primitives", p.DataType)
	}
	return nil
}

func (p *Physics) writeSection(c *utils.Cursor, s section) error {
	switch s {
	case sectionShatter:
		c.WriteU32(p.ShatterCount)
	case sectionConvex:
		c.WriteU32(uint32(len(p.Convexes)))
		for i, m := range p.Convexes {
			if err := m.write(c); err != nil {
				return errors.Wrapf(err, "convex mesh %d", i)
			}
		}
	case sectionTriangle:
		c.WriteU32(uint32(len(p.Triangles)))
		for i, m := range p.Triangles {
			if err := m.write(c); err != nil {
				return errors.Wrapf(err, "triangle mesh %d", i)
			}
		}
	case sectionPrimitive:
		c.WriteU32(uint32(len(p.Primitives)))
		for i, prim := range p.Primitives {
			if err := writePrimitive(c, prim); err != nil {
				return errors.Wrapf(err, "primitive %d", i)
			}
		}
	}
	return c.Err()
}

func init() {
	pack.SetHandler(".ALOC", func(name string, data []byte, log *utils.Logger) (pack.Instance, error) {
		return NewFromData(data, log)
	})
}
