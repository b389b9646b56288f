package prim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/glacier_browser/utils"
)

type PrimHeader struct {
	DrawDestination uint8
	PackType        uint8
	Type            PrimType
}

func (h *PrimHeader) read(c *utils.Cursor) {
	h.DrawDestination = c.U8()
	h.PackType = c.U8()
	h.Type = PrimType(c.U16())
}

func (h *PrimHeader) write(c *utils.Cursor) {
	c.WriteU8(h.DrawDestination)
	c.WriteU8(h.PackType)
	c.WriteU16(uint16(h.Type))
}

// Object is the common part of meshes and sub meshes
type Object struct {
	PrimHeader
	SubType    ObjectSubtype
	Properties ObjectFlags
	LodMask    uint8
	VariantId  uint8
	// draws mesh in front of others
	ZBias uint8
	// moves the mesh towards the camera depending on distance
	ZOffset    uint8
	MaterialId uint16
	WireColor  uint32
	// used for every vertex when ObjectUseColor1 is set on the sub mesh
	Color1   [4]uint8
	Min, Max mgl32.Vec3
}

func NewObject(t PrimType) Object {
	return Object{
		PrimHeader: PrimHeader{Type: t},
		LodMask:    0xFF,
		WireColor:  0xFFFFFFFF,
		Color1:     [4]uint8{0xFF, 0xFF, 0xFF, 0xFF},
	}
}

func (o *Object) read(c *utils.Cursor) {
	o.PrimHeader.read(c)
	o.SubType = ObjectSubtype(c.U8())
	o.Properties = ObjectFlags(c.U8())
	o.LodMask = c.U8()
	o.VariantId = c.U8()
	o.ZBias = c.U8()
	o.ZOffset = c.U8()
	o.MaterialId = c.U16()
	o.WireColor = c.U32()
	for i := range o.Color1 {
		o.Color1[i] = c.U8()
	}
	o.Min = c.Vec3()
	o.Max = c.Vec3()
}

func (o *Object) write(c *utils.Cursor) {
	o.PrimHeader.write(c)
	c.WriteU8(uint8(o.SubType))
	c.WriteU8(uint8(o.Properties))
	c.WriteU8(o.LodMask)
	c.WriteU8(o.VariantId)
	c.WriteU8(o.ZBias)
	c.WriteU8(o.ZOffset)
	c.WriteU16(o.MaterialId)
	c.WriteU32(o.WireColor)
	c.Write(o.Color1[:])
	c.WriteVec3(o.Min)
	c.WriteVec3(o.Max)
}
