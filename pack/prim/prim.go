package prim

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/utils"
)

const (
	HEADER_PLACEHOLDER = 420
	BONE_RIG_NONE      = 0xFFFFFFFF
	MAX_VERTICES       = 0xFFFF
)

type PrimType uint16

const (
	PrimTypeUnknown PrimType = iota
	PrimTypeObjectHeader
	PrimTypeMesh
	PrimTypeDecal
	PrimTypeSprites
	PrimTypeShape
	PrimTypeUnused
)

type ObjectSubtype uint8

const (
	SubtypeStandard ObjectSubtype = iota
	SubtypeLinked
	SubtypeWeighted
	SubtypeStandardUV2
	SubtypeStandardUV3
	SubtypeStandardUV4
)

type HeaderFlags uint32

const (
	HeaderHasBones          HeaderFlags = 0x1
	HeaderHasFrames         HeaderFlags = 0x2
	HeaderIsLinked          HeaderFlags = 0x4
	HeaderIsWeighted        HeaderFlags = 0x8
	HeaderUseBounds         HeaderFlags = 0x100
	HeaderHasHighResolution HeaderFlags = 0x200
)

var headerFlagNames = []struct {
	flag HeaderFlags
	name string
}{
	{HeaderHasBones, "hasBones"},
	{HeaderHasFrames, "hasFrames"},
	{HeaderIsLinked, "isLinked"},
	{HeaderIsWeighted, "isWeighted"},
	{HeaderUseBounds, "useBounds"},
	{HeaderHasHighResolution, "hasHighResolution"},
}

func (f HeaderFlags) Has(b HeaderFlags) bool { return f&b == b }

func (f *HeaderFlags) Set(b HeaderFlags, on bool) {
	if on {
		*f |= b
	} else {
		*f &^= b
	}
}

func (f HeaderFlags) String() string {
	names := make([]string, 0)
	for _, n := range headerFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

type ObjectFlags uint8

const (
	ObjectXAxisLocked      ObjectFlags = 0x1
	ObjectYAxisLocked      ObjectFlags = 0x2
	ObjectZAxisLocked      ObjectFlags = 0x4
	ObjectIsHighResolution ObjectFlags = 0x8
	ObjectHasPs3Edge       ObjectFlags = 0x10
	ObjectUseColor1        ObjectFlags = 0x20
	ObjectNoPhysics        ObjectFlags = 0x40
)

var objectFlagNames = []struct {
	flag ObjectFlags
	name string
}{
	{ObjectXAxisLocked, "xAxisLocked"},
	{ObjectYAxisLocked, "yAxisLocked"},
	{ObjectZAxisLocked, "zAxisLocked"},
	{ObjectIsHighResolution, "isHighResolution"},
	{ObjectHasPs3Edge, "hasPs3Edge"},
	{ObjectUseColor1, "useColor1"},
	{ObjectNoPhysics, "noPhysics"},
}

func (f ObjectFlags) Has(b ObjectFlags) bool { return f&b == b }

func (f *ObjectFlags) Set(b ObjectFlags, on bool) {
	if on {
		*f |= b
	} else {
		*f &^= b
	}
}

func (f ObjectFlags) String() string {
	names := make([]string, 0)
	for _, n := range objectFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

type ClothId uint32

func (c ClothId) IsSmall() bool { return c&0x80 == 0x80 }

// RenderPrimitive is the root of a PRIM file.
type RenderPrimitive struct {
	PrimHeader
	PropertyFlags        HeaderFlags
	BoneRigResourceIndex uint32
	Min, Max             mgl32.Vec3
	Objects              []*Mesh
}

func New() *RenderPrimitive {
	return &RenderPrimitive{
		PrimHeader:           PrimHeader{Type: PrimTypeObjectHeader},
		BoneRigResourceIndex: BONE_RIG_NONE,
	}
}

func NewFromData(buf []byte, log *utils.Logger) (*RenderPrimitive, error) {
	c := utils.NewCursor(buf)
	rp := &RenderPrimitive{}

	c.Seek(c.Offset64())
	if err := rp.read(c, log); err != nil {
		return nil, errors.Wrap(err, "[prim] read")
	}
	return rp, nil
}

func (rp *RenderPrimitive) read(c *utils.Cursor, log *utils.Logger) error {
	rp.PrimHeader.read(c)
	rp.PropertyFlags = HeaderFlags(c.U32())
	rp.BoneRigResourceIndex = c.U32()
	numObjects := int(c.U32())
	tableOffset := c.Offset32()
	rp.Min = c.Vec3()
	rp.Max = c.Vec3()

	c.Seek(tableOffset)
	if !c.Need(numObjects, 4) {
		return c.Err()
	}
	offsets := make([]int, numObjects)
	for i := range offsets {
		offsets[i] = c.Offset32()
	}
	if c.Err() != nil {
		return c.Err()
	}

	rp.Objects = make([]*Mesh, numObjects)
	for i, off := range offsets {
		c.Seek(off)
		m := &Mesh{}
		if err := m.read(c, rp.PropertyFlags, log.WithField("object", i)); err != nil {
			return errors.Wrapf(err, "object %d", i)
		}
		rp.Objects[i] = m
	}
	return c.Err()
}

// Marshal serializes the primitive. Bounding boxes, scale and bias are recomputed.
func (rp *RenderPrimitive) Marshal(log *utils.Logger) ([]byte, error) {
	c := utils.NewWriter()
	c.WriteU64(HEADER_PLACEHOLDER)
	c.WriteU64(0)

	headerOffset, err := rp.write(c, log)
	if err != nil {
		return nil, errors.Wrap(err, "[prim] write")
	}
	c.PatchU64At(0, uint64(headerOffset))
	return c.Bytes(), c.Err()
}

func (rp *RenderPrimitive) write(c *utils.Cursor, log *utils.Logger) (int, error) {
	offsets := make([]uint32, 0, len(rp.Objects))
	var bbox utils.BBox
	for i, m := range rp.Objects {
		if m == nil {
			continue
		}
		off, err := m.write(c, rp.PropertyFlags, log.WithField("object", i))
		if err != nil {
			return 0, errors.Wrapf(err, "object %d", i)
		}
		offsets = append(offsets, uint32(off))
		bbox.Add(m.Min)
		bbox.Add(m.Max)
	}
	rp.Min, rp.Max = bbox.Min, bbox.Max

	tableOffset := c.Tell()
	c.WriteU32s(offsets)
	c.Align(16)

	headerOffset := c.Tell()
	rp.PrimHeader.write(c)
	c.WriteU32(uint32(rp.PropertyFlags))
	c.WriteU32(rp.BoneRigResourceIndex)
	c.WriteU32(uint32(len(offsets)))
	c.WriteU32(uint32(tableOffset))
	c.WriteVec3(rp.Min)
	c.WriteVec3(rp.Max)
	if c.Tell()%8 != 0 {
		c.WriteU32(0)
	}
	return headerOffset, c.Err()
}

func init() {
	pack.SetHandler(".PRIM", func(name string, data []byte, log *utils.Logger) (pack.Instance, error) {
		return NewFromData(data, log)
	})
}
