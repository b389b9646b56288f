package mjba

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/glacier_browser/pack/mrtr"
	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/utils/gltfutils"
)

const DEFAULT_FPS = 30

func (clip *Clip) SampleRate() float32 {
	if clip.Animation.Fps > 0 {
		return clip.Animation.Fps
	}
	if clip.BoneMap.Fps > 0 {
		return float32(clip.BoneMap.Fps)
	}
	return DEFAULT_FPS
}

// ExportGLTF adds an animation with a rotation and a translation channel per used bone.
// joints are the glTF nodes of rig bones as returned by mrtr.Rig.ExportGLTF.
func (clip *Clip) ExportGLTF(doc *gltf.Document, rig *mrtr.Rig, joints []uint32, name string) (uint32, error) {
	if err := clip.CheckRig(rig); err != nil {
		return 0, err
	}
	if len(joints) != rig.BoneCount() {
		return 0, errors.Wrapf(utils.ErrStructuralMismatch, "%d joints for %d rig bones", len(joints), rig.BoneCount())
	}
	tracks, err := clip.Tracks()
	if err != nil {
		return 0, err
	}

	fps := clip.SampleRate()
	times := make([]float32, clip.Animation.FrameCount)
	for i := range times {
		times[i] = float32(i) / fps
	}
	input := modeler.WriteAccessor(doc, gltf.TargetNone, times)

	anim := &gltf.Animation{Name: name}
	for _, tr := range tracks {
		if len(tr.Rotations) == 0 {
			continue
		}
		rotations := make([][4]float32, len(tr.Rotations))
		for f, q := range tr.Rotations {
			q = utils.ZUpToYUpQuat(q.Normalize())
			rotations[f] = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
		}
		translations := make([][3]float32, len(tr.Translations))
		for f, t := range tr.Translations {
			translations[f] = utils.ZUpToYUp(t)
		}

		node := joints[tr.RigBone]
		gltfutils.AddChannel(anim, node, input, modeler.WriteAccessor(doc, gltf.TargetNone, rotations), gltf.TRSRotation)
		gltfutils.AddChannel(anim, node, input, modeler.WriteAccessor(doc, gltf.TargetNone, translations), gltf.TRSTranslation)
	}

	doc.Animations = append(doc.Animations, anim)
	return uint32(len(doc.Animations) - 1), nil
}

// ExportGLTFDefault builds a document holding the rig skeleton and the clip.
func (clip *Clip) ExportGLTFDefault(name string, rig *mrtr.Rig) (*gltf.Document, error) {
	if err := clip.CheckRig(rig); err != nil {
		return nil, err
	}
	doc := gltfutils.NewDocument()
	joints, err := rig.ExportGLTF(doc)
	if err != nil {
		return nil, err
	}
	if _, err := clip.ExportGLTF(doc, rig, joints, name); err != nil {
		return nil, err
	}
	return doc, nil
}
