package skeleton

import (
	"jpog-tmd/internal/mathutil"

	"github.com/go-gl/mathgl/mgl32"
)

// WorldMatrices chains parent-relative matrices into armature space.
// locals[i] belongs to bone i; parents may appear after their children.
func (s Skeleton) WorldMatrices(locals []mgl32.Mat4) []mgl32.Mat4 {
	worlds := make([]mgl32.Mat4, len(s))
	done := make([]bool, len(s))
	var resolve func(i, depth int) mgl32.Mat4
	resolve = func(i, depth int) mgl32.Mat4 {
		if done[i] {
			return worlds[i]
		}
		w := locals[i]
		if p := s[i].Parent; p >= 0 && p < len(s) && p != i && depth < len(s) {
			w = resolve(p, depth+1).Mul4(w)
		}
		worlds[i], done[i] = w, true
		return w
	}
	for i := range s {
		resolve(i, 0)
	}
	return worlds
}

// RestWorlds chains the fallback pairs. For a consistent skeleton the
// result matches the stored binds.
func (s Skeleton) RestWorlds() []mgl32.Mat4 {
	locals := make([]mgl32.Mat4, len(s))
	for i, b := range s {
		locals[i] = b.Fallback()
	}
	return s.WorldMatrices(locals)
}

// BindDrift returns the names of bones whose chained fallback differs from
// the stored bind by more than eps.
func (s Skeleton) BindDrift(eps float32) []string {
	var out []string
	for i, w := range s.RestWorlds() {
		if !mathutil.ApproxEqual(w, s[i].Bind, eps) {
			out = append(out, s[i].Name)
		}
	}
	return out
}

// SkinMatrices returns world·inverseBind for every bone, the transform that
// carries a rest-pose vertex to its posed position.
func (s Skeleton) SkinMatrices(worlds []mgl32.Mat4) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s))
	for i, b := range s {
		out[i] = worlds[i].Mul4(b.InverseBind)
	}
	return out
}

// Influence is one bone weight on a vertex.
type Influence struct {
	Bone   int
	Weight float32
}

// Skin blends position p by its influences. Weights are normalized; a vertex
// without usable influences stays where it is.
func Skin(p mgl32.Vec3, infl []Influence, skin []mgl32.Mat4) mgl32.Vec3 {
	var out mgl32.Vec3
	var sum float32
	for _, in := range infl {
		if in.Bone < 0 || in.Bone >= len(skin) || in.Weight <= 0 {
			continue
		}
		out = out.Add(skin[in.Bone].Mul4x1(p.Vec4(1)).Vec3().Mul(in.Weight))
		sum += in.Weight
	}
	if sum == 0 {
		return p
	}
	return out.Mul(1 / sum)
}
