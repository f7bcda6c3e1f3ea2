package mathutil

import (
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"
)

// Bounds returns the axis-aligned box of points. An empty input yields the
// zero box.
func Bounds(points [][3]float32) dvec3.Box {
	if len(points) == 0 {
		return dvec3.Box{}
	}
	box := dvec3.MinBox
	for _, p := range points {
		t := dvec3.T{float64(p[0]), float64(p[1]), float64(p[2])}
		pb := dvec3.Box{Min: t, Max: t}
		box.Join(&pb)
	}
	return box
}

// CenterExtent returns the center and the full dimensions of box.
func CenterExtent(box dvec3.Box) (center, extent [3]float32) {
	for i := 0; i < 3; i++ {
		center[i] = float32((box.Min[i] + box.Max[i]) / 2)
		extent[i] = float32(box.Max[i] - box.Min[i])
	}
	return center, extent
}

// MaxDimension returns the largest edge of box.
func MaxDimension(box dvec3.Box) float64 {
	return math.Max(box.Max[0]-box.Min[0], math.Max(box.Max[1]-box.Min[1], box.Max[2]-box.Min[2]))
}
