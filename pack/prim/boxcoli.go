package prim

import (
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/config"
	"github.com/mogaika/glacier_browser/utils"
)

// BoxColiEntry is a chunk bounding box quantized against the whole mesh bounds.
type BoxColiEntry struct {
	Min [3]uint8
	Max [3]uint8
}

type BoxColi struct {
	TriPerChunk uint16
	Entries     []BoxColiEntry
}

func (b *BoxColi) read(c *utils.Cursor) {
	numChunks := int(c.U16())
	b.TriPerChunk = c.U16()
	if !c.Need(numChunks, 6) {
		return
	}
	b.Entries = make([]BoxColiEntry, numChunks)
	for i := range b.Entries {
		copy(b.Entries[i].Min[:], c.Read(3))
		copy(b.Entries[i].Max[:], c.Read(3))
	}
}

func (b *BoxColi) write(c *utils.Cursor) {
	c.WriteU16(uint16(len(b.Entries)))
	c.WriteU16(b.TriPerChunk)
	for _, e := range b.Entries {
		c.Write(e.Min[:])
		c.Write(e.Max[:])
	}
	c.Align(4)
}

// BuildBoxColi splits the triangle list in index order into chunks of triPerChunk
// triangles and stores each chunk bounds relative to the mesh bounds.
// triPerChunk <= 0 takes the configured default.
func (s *SubMesh) BuildBoxColi(triPerChunk int) error {
	if triPerChunk <= 0 {
		triPerChunk = config.GetCodec().TriPerChunk
	}
	if triPerChunk > 0xffff {
		return errors.Wrapf(utils.ErrUserInputMismatch, "%d triangles per chunk", triPerChunk)
	}
	if err := s.validate(); err != nil {
		return err
	}

	mesh := s.BBox()
	tris := s.Triangles()
	numTris := len(tris) / 3

	s.Collision = BoxColi{TriPerChunk: uint16(triPerChunk)}
	for start := 0; start < numTris; start += triPerChunk {
		end := start + triPerChunk
		if end > numTris {
			end = numTris
		}

		var chunk utils.BBox
		for _, idx := range tris[start*3 : end*3] {
			chunk.Add(s.Vertices[idx].Position.Vec3())
		}

		var e BoxColiEntry
		for axis := 0; axis < 3; axis++ {
			e.Min[axis] = utils.QuantizeU8Range(chunk.Min[axis], mesh.Min[axis], mesh.Max[axis])
			e.Max[axis] = utils.QuantizeU8Range(chunk.Max[axis], mesh.Min[axis], mesh.Max[axis])
		}
		s.Collision.Entries = append(s.Collision.Entries, e)
	}
	if len(s.Collision.Entries) > 0xffff {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d collision chunks", len(s.Collision.Entries))
	}
	return nil
}
