package mrtr

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/utils"
)

const (
	HEADER_OFFSET   = 0x20
	BONE_MAP_OFFSET = 0x80

	NAMES_HEADER_SIZE = 0x20
	BONE_PARENT_NONE  = -1
)

// Rig is the bone topology animation clips are sampled against.
type Rig struct {
	// bytes before the header and between the header and the bone map, kept as is
	Preamble [HEADER_OFFSET]byte
	Reserved [BONE_MAP_OFFSET - HEADER_OFFSET - 24]byte

	BoneMapReserved [12]byte
	Parents         []int32
	Quaternions     []mgl32.Quat
	// W is unused
	Positions []mgl32.Vec4

	Names         []string
	NameIndices   []uint32
	NamesReserved [0x14]byte
	NamesPad      [4]byte
}

func (r *Rig) BoneCount() int {
	return len(r.Parents)
}

func (r *Rig) BoneIndex(name string) int {
	for i, n := range r.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Children lists child bone indices for every bone.
func (r *Rig) Children() [][]int {
	children := make([][]int, len(r.Parents))
	for i, p := range r.Parents {
		if p >= 0 && int(p) < len(r.Parents) {
			children[p] = append(children[p], i)
		}
	}
	return children
}

// ValidateHierarchy requires every parent to be a bone other than itself or none,
// and every bone to reach a root.
func (r *Rig) ValidateHierarchy() error {
	n := len(r.Parents)
	if len(r.Quaternions) != n || len(r.Positions) != n {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d bones with %d rotations and %d positions",
			n, len(r.Quaternions), len(r.Positions))
	}
	for i, p := range r.Parents {
		if p != BONE_PARENT_NONE && (p < 0 || int(p) >= n || int(p) == i) {
			return errors.Wrapf(utils.ErrStructuralMismatch, "bone %d has parent %d", i, p)
		}
		// a chain longer than the bone count is a cycle
		steps := 0
		for cur := p; cur != BONE_PARENT_NONE; cur = r.Parents[cur] {
			if steps++; steps > n {
				return errors.Wrapf(utils.ErrStructuralMismatch, "bone %d is part of a parent cycle", i)
			}
			if cur < 0 || int(cur) >= n {
				break
			}
		}
	}
	return nil
}

// LocalTransform returns the bind transform of a bone relative to its parent.
func (r *Rig) LocalTransform(bone int) mgl32.Mat4 {
	p := r.Positions[bone]
	return mgl32.Translate3D(p[0], p[1], p[2]).Mul4(r.Quaternions[bone].Normalize().Mat4())
}

func NewFromData(buf []byte, log *utils.Logger) (*Rig, error) {
	r := &Rig{}
	if err := r.read(utils.NewCursor(buf), log); err != nil {
		return nil, errors.Wrap(err, "[mrtr] read")
	}
	return r, nil
}

func (r *Rig) read(c *utils.Cursor, log *utils.Logger) error {
	copy(r.Preamble[:], c.Read(HEADER_OFFSET))
	namesOffset := c.Offset64()
	quatsOffset := c.Offset64()
	positionsOffset := c.Offset64()
	copy(r.Reserved[:], c.Read(len(r.Reserved)))

	c.Seek(BONE_MAP_OFFSET)
	count := int(c.U32())
	copy(r.BoneMapReserved[:], c.Read(len(r.BoneMapReserved)))
	r.Parents = c.I32s(count)

	c.Seek(quatsOffset)
	if !c.Need(count, 16) {
		return c.Err()
	}
	r.Quaternions = utils.ReadFixedVec(c, count, (*utils.Cursor).Quat)

	c.Seek(positionsOffset)
	if !c.Need(count, 16) {
		return c.Err()
	}
	r.Positions = utils.ReadFixedVec(c, count, (*utils.Cursor).Vec4)

	c.Seek(namesOffset)
	if err := r.readNames(c, namesOffset); err != nil {
		return errors.Wrap(err, "names")
	}
	if len(r.Names) != count {
		log.Warnf("[mrtr] %d names for %d bones", len(r.Names), count)
	}
	if err := c.Err(); err != nil {
		return err
	}
	return r.ValidateHierarchy()
}

func (r *Rig) readNames(c *utils.Cursor, namesOffset int) error {
	count := int(c.U32())
	copy(r.NamesReserved[:], c.Read(len(r.NamesReserved)))
	indexSize := int(c.U32())
	copy(r.NamesPad[:], c.Read(len(r.NamesPad)))
	if !c.Need(count, 8) {
		return c.Err()
	}
	r.NameIndices = c.U32s(count)
	offsets := c.U32s(count)
	if c.Err() != nil {
		return c.Err()
	}

	r.Names = make([]string, count)
	for i, off := range offsets {
		c.Seek(namesOffset + indexSize + int(off))
		r.Names[i] = c.ReadCString()
	}
	return c.Err()
}

func (r *Rig) Marshal(log *utils.Logger) ([]byte, error) {
	c := utils.NewWriter()
	if err := r.write(c); err != nil {
		return nil, errors.Wrap(err, "[mrtr] write")
	}
	return c.Bytes(), c.Err()
}

func (r *Rig) write(c *utils.Cursor) error {
	if err := r.ValidateHierarchy(); err != nil {
		return err
	}
	nameIndices := r.NameIndices
	if nameIndices == nil {
		nameIndices = make([]uint32, len(r.Names))
		for i := range nameIndices {
			nameIndices[i] = uint32(i)
		}
	}
	if len(nameIndices) != len(r.Names) {
		return errors.Wrapf(utils.ErrStructuralMismatch, "%d names with %d name indices", len(r.Names), len(nameIndices))
	}

	c.Write(r.Preamble[:])
	c.WriteU64(0)
	c.WriteU64(0)
	c.WriteU64(0)
	c.Write(r.Reserved[:])

	c.WriteU32(uint32(len(r.Parents)))
	c.Write(r.BoneMapReserved[:])
	c.WriteI32s(r.Parents)
	c.Align(16)

	quatsOffset := c.Tell()
	for _, q := range r.Quaternions {
		c.WriteQuat(q)
	}

	positionsOffset := c.Tell()
	for _, p := range r.Positions {
		c.WriteVec4(p)
	}

	namesOffset := c.Tell()
	c.WriteU32(uint32(len(r.Names)))
	c.Write(r.NamesReserved[:])
	c.WriteU32(uint32(NAMES_HEADER_SIZE + 8*len(r.Names)))
	c.Write(r.NamesPad[:])
	c.WriteU32s(nameIndices)

	stringOffset := 0
	for _, name := range r.Names {
		c.WriteU32(uint32(stringOffset))
		stringOffset += len(utils.StringToBytes(name, true))
	}
	for _, name := range r.Names {
		c.WriteCString(name)
	}
	c.Align(16)

	c.PatchU64At(HEADER_OFFSET, uint64(namesOffset))
	c.PatchU64At(HEADER_OFFSET+8, uint64(quatsOffset))
	c.PatchU64At(HEADER_OFFSET+16, uint64(positionsOffset))
	return c.Err()
}

func init() {
	pack.SetHandler(".MRTR", func(name string, data []byte, log *utils.Logger) (pack.Instance, error) {
		return NewFromData(data, log)
	})
}
