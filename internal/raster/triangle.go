package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ScreenVertex is a projected vertex: pixel coordinates, depth (larger is
// nearer) and texture coordinates.
type ScreenVertex struct {
	X, Y, Z float64
	U, V    float64
}

// RasterizeTriangle fills one flat-shaded triangle with z-buffering. tex
// may be nil, in which case base is used. Texels with almost no alpha are
// discarded.
func RasterizeTriangle(fb *FrameBuffer, t [3]ScreenVertex, tex *image.NRGBA, base color.NRGBA, lc *LightConfig) {
	a, b, c := t[0], t[1], t[2]

	n := mgl64.Vec3{b.X - a.X, b.Y - a.Y, b.Z - a.Z}.Cross(mgl64.Vec3{c.X - a.X, c.Y - a.Y, c.Z - a.Z})
	if n.Len() < 1e-8 {
		return
	}
	shade := lc.Shade(n.Normalize())

	minX := max(int(math.Min(math.Min(a.X, b.X), c.X)), 0)
	maxX := min(int(math.Max(math.Max(a.X, b.X), c.X))+1, fb.Width-1)
	minY := max(int(math.Min(math.Min(a.Y, b.Y), c.Y)), 0)
	maxY := min(int(math.Max(math.Max(a.Y, b.Y), c.Y))+1, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12 := b.Y - c.Y
	dx21 := c.X - b.X
	dy20 := c.Y - a.Y
	dx02 := a.X - c.X

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - c.Y
		row := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - c.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			i := row + sx
			if z <= fb.Depth[i] {
				continue
			}

			px := base
			if tex != nil {
				px.R, px.G, px.B, px.A = SampleTexture(tex, w0*a.U+w1*b.U+w2*c.U, w0*a.V+w1*b.V+w2*c.V)
			}
			if px.A < 8 {
				continue
			}
			fb.Depth[i] = z

			o := i * 4
			fb.Color[o] = lc.Tone(srgbToLinear[px.R], shade)
			fb.Color[o+1] = lc.Tone(srgbToLinear[px.G], shade)
			fb.Color[o+2] = lc.Tone(srgbToLinear[px.B], shade)
			fb.Color[o+3] = px.A
		}
	}
}
