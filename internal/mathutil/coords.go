package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Coords is the pair of corrections between file space and host space.
// Local turns the file's X-forward bone axis into the host's Y-forward one;
// Global re-orients the whole armature afterwards.
type Coords struct {
	Global mgl32.Mat4
	Local  mgl32.Mat4
}

// Default corrections, in XYZ Euler degrees.
var (
	DefaultGlobalDeg = [3]float64{-90, -90, 0}
	DefaultLocalDeg  = [3]float64{90, 0, 90}
)

// DefaultCoords returns the standard correction pair.
func DefaultCoords() Coords {
	return CoordsFromDegrees(DefaultGlobalDeg, DefaultLocalDeg)
}

// IdentityCoords leaves every matrix in file space.
func IdentityCoords() Coords {
	return Coords{Global: mgl32.Ident4(), Local: mgl32.Ident4()}
}

// CoordsFromDegrees builds a correction pair from XYZ Euler angles.
func CoordsFromDegrees(global, local [3]float64) Coords {
	return Coords{Global: EulerXYZ(global), Local: EulerXYZ(local)}
}

// ToHost maps a file-space bind matrix to host space: G·L·bind·L⁻¹.
func (c Coords) ToHost(bind mgl32.Mat4) mgl32.Mat4 {
	return c.Global.Mul4(c.Local).Mul4(bind).Mul4(c.Local.Inv())
}

// FromHost is the inverse of ToHost: G⁻¹·L⁻¹·host·L.
func (c Coords) FromHost(host mgl32.Mat4) mgl32.Mat4 {
	return c.Global.Inv().Mul4(c.Local.Inv()).Mul4(host).Mul4(c.Local)
}

// PoseToHost maps a bone-relative key matrix to host space. Keys only get
// the local correction.
func (c Coords) PoseToHost(rel mgl32.Mat4) mgl32.Mat4 {
	return c.Local.Mul4(rel).Mul4(c.Local.Inv())
}

// PoseFromHost is the inverse of PoseToHost.
func (c Coords) PoseFromHost(pose mgl32.Mat4) mgl32.Mat4 {
	return c.Local.Inv().Mul4(pose).Mul4(c.Local)
}
