// Package mathutil holds the small amount of matrix glue the codec needs on
// top of mgl32: file-order matrix conversion, rotation extraction, the
// coordinate-correction pair and bounding boxes.
package mathutil

import "github.com/go-gl/mathgl/mgl32"

// FromFileRows builds the in-memory matrix from 16 floats as they appear on
// disk. The file stores the transpose of the in-memory form, row by row.
func FromFileRows(v [16]float32) mgl32.Mat4 {
	stored := mgl32.Mat4FromRows(
		mgl32.Vec4{v[0], v[1], v[2], v[3]},
		mgl32.Vec4{v[4], v[5], v[6], v[7]},
		mgl32.Vec4{v[8], v[9], v[10], v[11]},
		mgl32.Vec4{v[12], v[13], v[14], v[15]},
	)
	return stored.Transpose()
}

// FileRows is the inverse of FromFileRows.
func FileRows(m mgl32.Mat4) [16]float32 {
	stored := m.Transpose()
	var out [16]float32
	for r := 0; r < 4; r++ {
		row := stored.Row(r)
		copy(out[r*4:], row[:])
	}
	return out
}

// TRS builds an affine matrix from a rotation and a translation.
func TRS(q mgl32.Quat, t mgl32.Vec3) mgl32.Mat4 {
	return WithTranslation(q.Mat4(), t)
}

// Translation returns the translation column of m.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// WithTranslation returns m with its translation column replaced.
func WithTranslation(m mgl32.Mat4, t mgl32.Vec3) mgl32.Mat4 {
	m.SetCol(3, t.Vec4(1))
	return m
}

// ToQuat extracts the rotation of m. The upper 3×3 is normalized first so
// scaled matrices still yield a unit quaternion; the result has w >= 0.
func ToQuat(m mgl32.Mat4) mgl32.Quat {
	c0 := m.Col(0).Vec3().Normalize()
	c1 := m.Col(1).Vec3().Normalize()
	c2 := m.Col(2).Vec3().Normalize()
	rot := mgl32.Mat4FromCols(c0.Vec4(0), c1.Vec4(0), c2.Vec4(0), mgl32.Vec4{0, 0, 0, 1})
	q := mgl32.Mat4ToQuat(rot).Normalize()
	if q.W < 0 {
		q = mgl32.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	return q
}

// QuatWXYZ returns q as (w, x, y, z).
func QuatWXYZ(q mgl32.Quat) [4]float32 {
	return [4]float32{q.W, q.V[0], q.V[1], q.V[2]}
}

// QuatFromWXYZ is the inverse of QuatWXYZ.
func QuatFromWXYZ(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[0], V: mgl32.Vec3{v[1], v[2], v[3]}}
}

// ApproxEqual compares matrices component-wise within eps.
func ApproxEqual(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		d := a[i] - b[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
}
