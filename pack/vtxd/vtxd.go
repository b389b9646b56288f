package vtxd

import (
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/utils"
)

type Color [4]uint8

// SubMesh holds one colour per vertex of the PRIM sub mesh with the same id.
type SubMesh struct {
	Id     uint32
	Colors []Color
}

type VertexData struct {
	SubMeshes []SubMesh
}

func NewFromData(buf []byte, log *utils.Logger) (*VertexData, error) {
	vd := &VertexData{}
	c := utils.NewCursor(buf)
	if err := vd.read(c); err != nil {
		return nil, errors.Wrap(err, "[vtxd] read")
	}
	if rem := c.Remaining(); rem != 0 {
		log.Warnf("[vtxd] ignoring 0x%x trailing bytes", rem)
	}
	return vd, nil
}

func (vd *VertexData) read(c *utils.Cursor) error {
	count := int(c.U32())
	if !c.Need(count, 8) {
		return c.Err()
	}
	vd.SubMeshes = make([]SubMesh, count)
	for i := range vd.SubMeshes {
		sm := &vd.SubMeshes[i]
		sm.Id = c.U32()
		numVertices := int(c.U32())
		if !c.Need(numVertices, 4) {
			return errors.Wrapf(c.Err(), "sub mesh %d", i)
		}
		sm.Colors = make([]Color, numVertices)
		for v := range sm.Colors {
			copy(sm.Colors[v][:], c.Read(4))
		}
	}
	return c.Err()
}

func (vd *VertexData) SubMesh(id uint32) *SubMesh {
	for i := range vd.SubMeshes {
		if vd.SubMeshes[i].Id == id {
			return &vd.SubMeshes[i]
		}
	}
	return nil
}

func (vd *VertexData) Marshal(log *utils.Logger) ([]byte, error) {
	c := utils.NewWriter()
	c.WriteU32(uint32(len(vd.SubMeshes)))
	for _, sm := range vd.SubMeshes {
		c.WriteU32(sm.Id)
		c.WriteU32(uint32(len(sm.Colors)))
		for _, col := range sm.Colors {
			c.Write(col[:])
		}
	}
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "[vtxd] write")
	}
	return c.Bytes(), nil
}

func init() {
	pack.SetHandler(".VTXD", func(name string, data []byte, log *utils.Logger) (pack.Instance, error) {
		return NewFromData(data, log)
	})
}
