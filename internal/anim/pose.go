package anim

import (
	"fmt"
	"sort"

	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/keypool"
	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/skeleton"

	"github.com/go-gl/mathgl/mgl32"
)

// KeyMatrix builds the parent-relative matrix a key stands for. Components
// the mode does not animate come from the bone's fallback pair; Skip yields
// the identity.
func KeyMatrix(b skeleton.Bone, mode Mode, k Key, pool *keypool.Pool) (mgl32.Mat4, error) {
	switch mode {
	case Skip:
		return mgl32.Ident4(), nil
	case RotationOnly:
		q, err := pool.Rotation(k.Rotation)
		return mathutil.TRS(q, b.Translation), err
	case Both:
		q, err := pool.Rotation(k.Rotation)
		if err != nil {
			return mgl32.Ident4(), err
		}
		l, err := pool.Location(k.Location)
		return mathutil.TRS(q, l), err
	case TranslationOnly:
		l, err := pool.Location(k.Location)
		return mathutil.TRS(b.Rotation, l), err
	}
	return mgl32.Ident4(), diag.New(diag.ErrMalformedContainer, "anim: key matrix", "unknown channel mode %d", mode)
}

// ToHostPose turns a key matrix into a host pose: relative to the fallback,
// conjugated by the local correction.
func ToHostPose(b skeleton.Bone, key mgl32.Mat4, c mathutil.Coords) mgl32.Mat4 {
	return c.PoseToHost(b.Fallback().Inv().Mul4(key))
}

// FromHostPose is the inverse of ToHostPose.
func FromHostPose(b skeleton.Bone, pose mgl32.Mat4, c mathutil.Coords) mgl32.Mat4 {
	return b.Fallback().Mul4(c.PoseFromHost(pose))
}

// Track is one bone's keyed host poses. Times are in seconds.
type Track struct {
	Bone        string
	HasLocation bool
	HasRotation bool
	Times       []float32
	Poses       []mgl32.Mat4
}

// HostClip is a clip as the host sees it.
type HostClip struct {
	Name     string
	Flag1    uint32
	Flag2    uint32
	Duration float32
	Tracks   []Track
}

// Looping reports whether the clip name carries the loop suffix.
func (h HostClip) Looping() bool { return Clip{Name: h.Name}.Looping() }

// ToHost converts clips into host poses. Skip channels produce no track;
// a track only animates the components its mode takes from the pool.
func ToHost(clips []Clip, s skeleton.Skeleton, pool *keypool.Pool, c mathutil.Coords, col *diag.Collector) []HostClip {
	out := make([]HostClip, 0, len(clips))
	for _, clip := range clips {
		hc := HostClip{Name: clip.Name, Flag1: clip.Flag1, Flag2: clip.Flag2, Duration: clip.Duration}
		for bi, ch := range clip.Channels {
			if ch.Mode == Skip || bi >= len(s) {
				continue
			}
			b := s[bi]
			loc, rot := ch.Mode.Animates()
			tr := Track{Bone: b.Name, HasLocation: loc, HasRotation: rot}
			for _, k := range ch.Keys {
				key, err := KeyMatrix(b, ch.Mode, k, pool)
				if err != nil {
					col.ReportErr(diag.ErrMalformedContainer, fmt.Sprintf("anim: clip %q bone %q", clip.Name, b.Name), err)
					continue
				}
				tr.Times = append(tr.Times, k.Time)
				tr.Poses = append(tr.Poses, ToHostPose(b, key, c))
			}
			hc.Tracks = append(hc.Tracks, tr)
		}
		out = append(out, hc)
	}
	return out
}

// FromHost encodes host clips against s, interning every key into pool.
// Iteration runs clip, then bone, then key, and each key interns its
// location before its rotation whatever the mode, so pool indices come out
// in a fixed order. Tracks for bones outside the skeleton are reported as
// BoneMismatch. A full pool is fatal.
func FromHost(clips []HostClip, s skeleton.Skeleton, pool *keypool.Pool, c mathutil.Coords, col *diag.Collector) ([]Clip, error) {
	out := make([]Clip, 0, len(clips))
	for _, hc := range clips {
		tracks := make(map[string]Track, len(hc.Tracks))
		for _, tr := range hc.Tracks {
			if s.Index(tr.Bone) < 0 {
				col.Reportf(diag.ErrBoneMismatch, "anim: encode "+hc.Name, "track for unknown bone %q", tr.Bone)
				continue
			}
			tracks[tr.Bone] = tr
		}

		clip := Clip{Name: hc.Name, Flag1: hc.Flag1, Flag2: hc.Flag2, Duration: hc.Duration, Channels: make([]Channel, len(s))}
		for bi, b := range s {
			tr, ok := tracks[b.Name]
			mode := ModeFor(tr.HasLocation, tr.HasRotation)
			if !ok || mode == Skip {
				clip.Channels[bi] = Channel{Mode: Skip}
				continue
			}
			if len(tr.Times) != len(tr.Poses) {
				col.Reportf(diag.ErrIncompleteKeyframes, "anim: encode "+hc.Name, "bone %q has %d times and %d poses", b.Name, len(tr.Times), len(tr.Poses))
				clip.Channels[bi] = Channel{Mode: Skip}
				continue
			}
			ch := Channel{Mode: mode, Keys: make([]Key, len(tr.Poses))}
			for ki, pose := range tr.Poses {
				key := FromHostPose(b, pose, c)
				li, err := pool.InternLocation(mathutil.Translation(key))
				if err != nil {
					return nil, err
				}
				ri, err := pool.InternRotation(mathutil.ToQuat(key))
				if err != nil {
					return nil, err
				}
				ch.Keys[ki] = Key{Time: tr.Times[ki], Location: li, Rotation: ri}
			}
			clip.Channels[bi] = ch
		}
		out = append(out, clip)
	}
	return out, nil
}

// PoseAt samples clip at time t and returns one parent-relative matrix per
// bone. Rotations are slerped and locations lerped between the surrounding
// keys; times outside the keyed range clamp. Bones without keys rest at
// their fallback.
func PoseAt(clip Clip, s skeleton.Skeleton, pool *keypool.Pool, t float32) []mgl32.Mat4 {
	locals := make([]mgl32.Mat4, len(s))
	for bi, b := range s {
		locals[bi] = b.Fallback()
		if bi >= len(clip.Channels) {
			continue
		}
		ch := clip.Channels[bi]
		if ch.Mode == Skip || len(ch.Keys) == 0 {
			continue
		}
		i := sort.Search(len(ch.Keys), func(i int) bool { return ch.Keys[i].Time >= t })
		switch {
		case i == 0:
			locals[bi] = keyOrRest(b, ch.Mode, ch.Keys[0], pool)
		case i == len(ch.Keys):
			locals[bi] = keyOrRest(b, ch.Mode, ch.Keys[i-1], pool)
		default:
			k0, k1 := ch.Keys[i-1], ch.Keys[i]
			a := keyOrRest(b, ch.Mode, k0, pool)
			z := keyOrRest(b, ch.Mode, k1, pool)
			f := float32(0)
			if span := k1.Time - k0.Time; span > 0 {
				f = (t - k0.Time) / span
			}
			q := mgl32.QuatSlerp(mathutil.ToQuat(a), mathutil.ToQuat(z), f)
			l := mathutil.Translation(a).Mul(1 - f).Add(mathutil.Translation(z).Mul(f))
			locals[bi] = mathutil.TRS(q, l)
		}
	}
	return locals
}

func keyOrRest(b skeleton.Bone, mode Mode, k Key, pool *keypool.Pool) mgl32.Mat4 {
	m, err := KeyMatrix(b, mode, k, pool)
	if err != nil {
		return b.Fallback()
	}
	return m
}
