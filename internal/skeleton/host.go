package skeleton

import (
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/mathutil"

	"github.com/go-gl/mathgl/mgl32"
)

// HostBone is a bone as the host sees it: an armature-space matrix in host
// coordinates and a parent referenced by name ("" for roots).
type HostBone struct {
	Name   string
	Parent string
	Matrix mgl32.Mat4
	Deform bool
}

// ToHost converts the skeleton into host bones.
func (s Skeleton) ToHost(c mathutil.Coords) []HostBone {
	out := make([]HostBone, len(s))
	for i, b := range s {
		hb := HostBone{Name: b.Name, Matrix: c.ToHost(b.Bind), Deform: b.Deform()}
		if b.Parent >= 0 && b.Parent < len(s) {
			hb.Parent = s[b.Parent].Name
		}
		out[i] = hb
	}
	return out
}

// FromHost builds a skeleton from host bones in the given order. Binds are
// brought back to file space; the fallback pair is taken from the bind
// relative to the parent's bind.
func FromHost(bones []HostBone, c mathutil.Coords) (Skeleton, error) {
	const op = "skeleton: from host"
	index := make(map[string]int, len(bones))
	for i, hb := range bones {
		index[hb.Name] = i
	}
	binds := make([]mgl32.Mat4, len(bones))
	for i, hb := range bones {
		binds[i] = c.FromHost(hb.Matrix)
	}

	var errs diag.List
	s := make(Skeleton, len(bones))
	for i, hb := range bones {
		b := Bone{
			Name:        hb.Name,
			Parent:      -1,
			Bind:        binds[i],
			InverseBind: binds[i].Inv(),
		}
		if !hb.Deform {
			b.Updates = 1
		}
		local := binds[i]
		if hb.Parent != "" {
			p, ok := index[hb.Parent]
			if !ok {
				errs.Add(diag.New(diag.ErrBoneMismatch, op, "bone %q has unknown parent %q", hb.Name, hb.Parent))
			} else {
				b.Parent = p
				local = binds[p].Inv().Mul4(local)
			}
		}
		b.Rotation = mathutil.ToQuat(local)
		b.Translation = mathutil.Translation(local)
		s[i] = b
	}
	return s, errs.Err()
}
