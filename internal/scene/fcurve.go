package scene

import (
	"fmt"
	"sort"

	"jpog-tmd/internal/anim"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/mathutil"

	"github.com/go-gl/mathgl/mgl32"
)

// Evaluate samples the curve at frame with linear interpolation, clamping
// outside the keyed range. An empty curve evaluates to zero.
func (c FCurve) Evaluate(frame float32) float32 {
	n := len(c.Keys)
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return c.Keys[i].Frame >= frame })
	switch {
	case i == 0:
		return c.Keys[0].Value
	case i == n:
		return c.Keys[n-1].Value
	}
	a, b := c.Keys[i-1], c.Keys[i]
	span := b.Frame - a.Frame
	if span <= 0 {
		return b.Value
	}
	f := (frame - a.Frame) / span
	return a.Value + (b.Value-a.Value)*f
}

func (g BoneCurves) curves() []FCurve {
	out := make([]FCurve, 0, len(g.Location)+len(g.Rotation))
	out = append(out, g.Rotation...)
	return append(out, g.Location...)
}

// frames returns the key frames shared by every curve of the group. When
// the curves disagree on their key counts the sorted union of all frames is
// used instead.
func (g BoneCurves) frames() []float32 {
	curves := g.curves()
	if len(curves) == 0 {
		return nil
	}
	same := true
	for _, c := range curves[1:] {
		if len(c.Keys) != len(curves[0].Keys) {
			same = false
			break
		}
	}
	if same {
		out := make([]float32, len(curves[0].Keys))
		for i, k := range curves[0].Keys {
			out[i] = k.Frame
		}
		return out
	}

	seen := make(map[float32]struct{})
	var out []float32
	for _, c := range curves {
		for _, k := range c.Keys {
			if _, ok := seen[k.Frame]; !ok {
				seen[k.Frame] = struct{}{}
				out = append(out, k.Frame)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Sample turns a group into an animation track. Groups with a partial
// location or rotation set, or an empty curve, are IncompleteKeyframes.
func (g BoneCurves) Sample(bone string, fps float32) (anim.Track, error) {
	op := fmt.Sprintf("scene: bone %q", g.Bone)
	if n := len(g.Location); n != 0 && n != 3 {
		return anim.Track{}, diag.New(diag.ErrIncompleteKeyframes, op, "%d location curves", n)
	}
	if n := len(g.Rotation); n != 0 && n != 4 {
		return anim.Track{}, diag.New(diag.ErrIncompleteKeyframes, op, "%d rotation curves", n)
	}
	for _, c := range g.curves() {
		if len(c.Keys) == 0 {
			return anim.Track{}, diag.New(diag.ErrIncompleteKeyframes, op, "curve without keys")
		}
	}

	tr := anim.Track{Bone: bone, HasLocation: len(g.Location) == 3, HasRotation: len(g.Rotation) == 4}
	for _, f := range g.frames() {
		q := mgl32.QuatIdent()
		if tr.HasRotation {
			var wxyz [4]float32
			for i := range wxyz {
				wxyz[i] = g.Rotation[i].Evaluate(f)
			}
			q = mathutil.QuatFromWXYZ(wxyz).Normalize()
		}
		var l mgl32.Vec3
		if tr.HasLocation {
			for i := range l {
				l[i] = g.Location[i].Evaluate(f)
			}
		}
		tr.Times = append(tr.Times, f/fps)
		tr.Poses = append(tr.Poses, mathutil.TRS(q, l))
	}
	return tr, nil
}

// curvesFromTrack turns a decoded track into fcurves at the given rate.
func curvesFromTrack(tr anim.Track, name string, fps float32) BoneCurves {
	g := BoneCurves{Bone: name}
	if tr.HasLocation {
		g.Location = make([]FCurve, 3)
	}
	if tr.HasRotation {
		g.Rotation = make([]FCurve, 4)
	}
	for i, pose := range tr.Poses {
		frame := tr.Times[i] * fps
		if tr.HasLocation {
			l := mathutil.Translation(pose)
			for c := range g.Location {
				g.Location[c].Keys = append(g.Location[c].Keys, Keyframe{Frame: frame, Value: l[c]})
			}
		}
		if tr.HasRotation {
			q := mathutil.QuatWXYZ(mathutil.ToQuat(pose))
			for c := range g.Rotation {
				g.Rotation[c].Keys = append(g.Rotation[c].Keys, Keyframe{Frame: frame, Value: q[c]})
			}
		}
	}
	return g
}
