package borg

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

type ConstraintType uint8

const (
	ConstraintLookAt ConstraintType = 1
	ConstraintRotate ConstraintType = 2
)

const LOOKAT_MAX_TARGETS = 2

type BoneConstraint interface {
	Type() ConstraintType
	Bone() uint8
	read(c *utils.Cursor) error
	write(c *utils.Cursor) error
}

type LookAtTarget struct {
	ParentIdx uint8
	Weight    float32
	Position  mgl32.Vec3
}

type LookAtConstraint struct {
	BoneIndex           uint8
	LookAtAxis          uint8
	UpBoneAlignmentAxis uint8
	LookAtFlip          uint8
	UpFlip              uint8
	UpNodeControl       uint8
	UpNodeParentIdx     uint8
	Targets             []LookAtTarget
	UpPosition          mgl32.Vec3
}

func (lc *LookAtConstraint) Type() ConstraintType { return ConstraintLookAt }
func (lc *LookAtConstraint) Bone() uint8          { return lc.BoneIndex }

// read starts after the type byte
func (lc *LookAtConstraint) read(c *utils.Cursor) error {
	lc.BoneIndex = c.U8()
	numTargets := int(c.U8())
	lc.LookAtAxis = c.U8()
	lc.UpBoneAlignmentAxis = c.U8()
	lc.LookAtFlip = c.U8()
	lc.UpFlip = c.U8()
	lc.UpNodeControl = c.U8()
	lc.UpNodeParentIdx = c.U8()

	var targets [LOOKAT_MAX_TARGETS]LookAtTarget
	for i := range targets {
		targets[i].ParentIdx = c.U8()
	}
	c.U8()
	for i := range targets {
		targets[i].Weight = c.F32()
	}
	for i := range targets {
		targets[i].Position = c.Vec3()
	}
	lc.UpPosition = c.Vec3()

	if numTargets > LOOKAT_MAX_TARGETS {
		return c.Failf(utils.ErrStructuralMismatch, "look at with %d targets", numTargets)
	}
	lc.Targets = append([]LookAtTarget(nil), targets[:numTargets]...)
	return c.Err()
}

func (lc *LookAtConstraint) write(c *utils.Cursor) error {
	if len(lc.Targets) > LOOKAT_MAX_TARGETS {
		return errors.Wrapf(utils.ErrStructuralMismatch, "look at with %d targets", len(lc.Targets))
	}
	var targets [LOOKAT_MAX_TARGETS]LookAtTarget
	copy(targets[:], lc.Targets)

	c.WriteU8(uint8(ConstraintLookAt))
	c.WriteU8(lc.BoneIndex)
	c.WriteU8(uint8(len(lc.Targets)))
	c.WriteU8(lc.LookAtAxis)
	c.WriteU8(lc.UpBoneAlignmentAxis)
	c.WriteU8(lc.LookAtFlip)
	c.WriteU8(lc.UpFlip)
	c.WriteU8(lc.UpNodeControl)
	c.WriteU8(lc.UpNodeParentIdx)
	for _, t := range targets {
		c.WriteU8(t.ParentIdx)
	}
	c.WriteU8(0)
	for _, t := range targets {
		c.WriteF32(t.Weight)
	}
	for _, t := range targets {
		c.WriteVec3(t.Position)
	}
	c.WriteVec3(lc.UpPosition)
	return c.Err()
}

// RotateConstraint has never been seen in shipped rigs, its layout is unverified
// and neither read nor write is supported.
type RotateConstraint struct {
	BoneIndex        uint8
	ReferenceBoneIdx uint8
	TwistWeight      float32
}

func (rc *RotateConstraint) Type() ConstraintType { return ConstraintRotate }
func (rc *RotateConstraint) Bone() uint8          { return rc.BoneIndex }

func (rc *RotateConstraint) read(c *utils.Cursor) error {
	return c.Failf(utils.ErrVersionMismatch, "rotate constraint layout is unverified")
}

func (rc *RotateConstraint) write(c *utils.Cursor) error {
	return errors.Wrap(utils.ErrVersionMismatch, "rotate constraint layout is unverified")
}

func newConstraint(t ConstraintType) (BoneConstraint, error) {
	switch t {
	case ConstraintLookAt:
		return &LookAtConstraint{}, nil
	case ConstraintRotate:
		return &RotateConstraint{}, nil
	}
	return nil, errors.Wrapf(utils.ErrStructuralMismatch, "unknown constraint type %d", t)
}

func (rig *BoneRig) readConstraints(c *utils.Cursor, log *utils.Logger) error {
	count := int(c.U32())
	if !c.Need(count, 56) {
		return c.Err()
	}
	rig.Constraints = make([]BoneConstraint, count)
	for i := range rig.Constraints {
		t := ConstraintType(c.U8())
		if c.Err() != nil {
			return c.Err()
		}
		bc, err := newConstraint(t)
		if err != nil {
			return c.Fail(errors.Wrapf(err, "constraint %d", i))
		}
		if t == ConstraintRotate {
			log.Errorf("[borg] constraint %d is a rotate constraint", i)
		}
		if err := bc.read(c); err != nil {
			return errors.Wrapf(err, "constraint %d", i)
		}
		if int(bc.Bone()) >= len(rig.Bones) {
			return errors.Wrapf(utils.ErrStructuralMismatch, "constraint %d on bone %d of %d", i, bc.Bone(), len(rig.Bones))
		}
		rig.Constraints[i] = bc
	}
	return c.Err()
}

func (rig *BoneRig) writeConstraints(c *utils.Cursor, log *utils.Logger) error {
	c.WriteU32(uint32(len(rig.Constraints)))
	for i, bc := range rig.Constraints {
		if bc == nil {
			return errors.Wrapf(utils.ErrStructuralMismatch, "constraint %d is nil", i)
		}
		if int(bc.Bone()) >= len(rig.Bones) {
			return errors.Wrapf(utils.ErrStructuralMismatch, "constraint %d on bone %d of %d", i, bc.Bone(), len(rig.Bones))
		}
		if bc.Type() == ConstraintRotate {
			log.Errorf("[borg] constraint %d is a rotate constraint", i)
		}
		if err := bc.write(c); err != nil {
			return errors.Wrapf(err, "constraint %d", i)
		}
	}
	return c.Err()
}
