package mjba

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

// Tracks decodes one track per used bone, in bone map order.
// Decoding happens once; every call returns a fresh copy, so callers may modify it.
// Call InvalidateTracks after editing Animation or BoneMap directly.
func (clip *Clip) Tracks() ([]BoneTrack, error) {
	if clip.tracks == nil {
		tracks, err := clip.Animation.resolve(&clip.BoneMap)
		if err != nil {
			return nil, errors.Wrap(err, "[mjba] tracks")
		}
		clip.tracks = tracks
	}
	out := make([]BoneTrack, len(clip.tracks))
	for i := range clip.tracks {
		out[i] = clip.tracks[i].clone()
	}
	return out, nil
}

func (clip *Clip) InvalidateTracks() {
	clip.InvalidateTracks()
}

func (tr *BoneTrack) clone() BoneTrack {
	r := *tr
	r.Rotations = append([]mgl32.Quat(nil), tr.Rotations...)
	r.Translations = append([]mgl32.Vec3(nil), tr.Translations...)
	r.Scales = append([]float32(nil), tr.Scales...)
	if tr.BindPose != nil {
		bp := *tr.BindPose
		r.BindPose = &bp
	}
	return r
}

func sameRotation(rotations []mgl32.Quat) bool {
	for _, q := range rotations[1:] {
		if q != rotations[0] {
			return false
		}
	}
	return true
}

func sameTransform(translations []mgl32.Vec3, scales []float32) bool {
	for f := 1; f < len(translations); f++ {
		if translations[f] != translations[0] || scales[f] != scales[0] {
			return false
		}
	}
	return true
}

func trackScales(tr *BoneTrack, frames int) []float32 {
	if tr.Scales != nil {
		return tr.Scales
	}
	scales := make([]float32, frames)
	for i := range scales {
		scales[i] = 1
	}
	return scales
}

// SetTracks re-packs the animation from one track per used bone, in bone map order.
// A channel is stored static when its value is the same on every frame.
// The transform scale becomes the largest absolute translation per axis.
func (clip *Clip) SetTracks(frames int, tracks []BoneTrack) error {
	bm := &clip.BoneMap
	used := len(bm.UsedBoneIndices)
	if len(tracks) != used {
		return errors.Wrapf(utils.ErrUserInputMismatch, "[mjba] %d tracks for %d used bones", len(tracks), used)
	}
	maskBits := MaskSize(used) * 8

	channels := make([]int, used)
	seen := make(map[int]int, used)
	hasBindPoses := false
	scale := mgl32.Vec3{}
	grow := func(t mgl32.Vec3) {
		for axis := range scale {
			scale[axis] = math32.Max(scale[axis], math32.Abs(t[axis]))
		}
	}
	for i := range tracks {
		tr := &tracks[i]
		channel, err := bm.Channel(i)
		if err != nil {
			return errors.Wrap(err, "[mjba]")
		}
		if channel < 0 || channel >= maskBits {
			return errors.Wrapf(utils.ErrStructuralMismatch, "[mjba] bone %d channel %d outside of %d mask bits", i, channel, maskBits)
		}
		if other, ok := seen[channel]; ok {
			return errors.Wrapf(utils.ErrStructuralMismatch, "[mjba] bones %d and %d share channel %d", other, i, channel)
		}
		seen[channel] = i
		channels[i] = channel

		if len(tr.Rotations) != frames || len(tr.Translations) != frames || (tr.Scales != nil && len(tr.Scales) != frames) {
			return errors.Wrapf(utils.ErrUserInputMismatch, "[mjba] bone %d: %d rotations, %d translations and %d scales for %d frames",
				i, len(tr.Rotations), len(tr.Translations), len(tr.Scales), frames)
		}
		for _, t := range tr.Translations {
			grow(t)
		}
		if tr.BindPose != nil {
			hasBindPoses = true
			for _, t := range tr.BindPose.Translations {
				grow(t)
			}
		}
	}
	for axis := range scale {
		if scale[axis] == 0 {
			scale[axis] = 1
		}
	}

	a := &clip.Animation
	a.UsedBoneCount = uint16(used)
	a.FrameCount = uint32(frames)
	a.HeaderFrameCount = uint32(frames)
	a.TransformScale = scale
	a.StaticQuatMask = make([]bool, maskBits)
	a.StaticTransformMask = make([]bool, maskBits)
	a.BindPoseMask = nil
	if hasBindPoses {
		a.BindPoseMask = make([]bool, maskBits)
	}
	a.StaticQuats, a.DynamicQuats, a.BindQuats = nil, nil, nil
	a.StaticTransforms, a.DynamicTransforms, a.BindTransforms = nil, nil, nil
	if len(a.WorldTransforms) != 0 && len(a.WorldTransforms) != frames*WORLD_STRIDE {
		a.WorldTransforms = nil
		a.DataPad = nil
	}

	staticRotation := make([]bool, used)
	staticTranslation := make([]bool, used)
	scales := make([][]float32, used)
	for i := range tracks {
		tr := &tracks[i]
		scales[i] = trackScales(tr, frames)
		staticRotation[i] = frames > 0 && sameRotation(tr.Rotations)
		staticTranslation[i] = frames > 0 && sameTransform(tr.Translations, scales[i])

		if staticRotation[i] {
			a.StaticQuatMask[channels[i]] = true
			a.StaticQuats = append(a.StaticQuats, encodeQuat(tr.Rotations[0])...)
		}
		if staticTranslation[i] {
			a.StaticTransformMask[channels[i]] = true
			a.StaticTransforms = append(a.StaticTransforms, encodeTransform(tr.Translations[0], scales[i][0], scale)...)
		}
		if tr.BindPose != nil {
			a.BindPoseMask[channels[i]] = true
			for k := 0; k < 2; k++ {
				a.BindQuats = append(a.BindQuats, encodeQuat(tr.BindPose.Rotations[k])...)
				a.BindTransforms = append(a.BindTransforms,
					encodeTransform(tr.BindPose.Translations[k], tr.BindPose.Scales[k], scale)...)
			}
		}
	}

	for f := 0; f < frames; f++ {
		for i := range tracks {
			tr := &tracks[i]
			if !staticRotation[i] {
				a.DynamicQuats = append(a.DynamicQuats, encodeQuat(tr.Rotations[f])...)
			}
			if !staticTranslation[i] {
				a.DynamicTransforms = append(a.DynamicTransforms, encodeTransform(tr.Translations[f], scales[i][f], scale)...)
			}
		}
	}

	clip.InvalidateTracks()
	return nil
}
