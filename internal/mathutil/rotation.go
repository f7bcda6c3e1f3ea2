package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// EulerXYZ returns the rotation for XYZ Euler angles in degrees, applied X
// first: Rz · Ry · Rx.
func EulerXYZ(deg [3]float64) mgl32.Mat4 {
	rx := mgl32.HomogRotate3DX(float32(Deg2Rad(deg[0])))
	ry := mgl32.HomogRotate3DY(float32(Deg2Rad(deg[1])))
	rz := mgl32.HomogRotate3DZ(float32(Deg2Rad(deg[2])))
	return rz.Mul4(ry).Mul4(rx)
}
