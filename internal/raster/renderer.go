// Package raster is a small software rasterizer for model previews.
package raster

import (
	"image"
	"image/color"
	"math"

	"jpog-tmd/internal/texture"
	"jpog-tmd/internal/tristrip"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is one textured triangle list.
type Mesh struct {
	Material  string
	Positions [][3]float32
	UVs       [][2]float32
	Triangles []tristrip.Triangle
}

// Options controls a render.
type Options struct {
	Size        int
	Supersample int
	// View rotates model space into view space: x right, y up, z toward
	// the viewer.
	View     mgl64.Mat3
	Textures texture.Resolver
}

// untextured is the base colour of meshes without a texture.
var untextured = color.NRGBA{R: 160, G: 160, B: 170, A: 255}

// Render draws meshes fitted into a square of Size × Supersample pixels.
func Render(meshes []Mesh, opts Options) *image.NRGBA {
	ss := max(opts.Supersample, 1)
	renderSize := max(opts.Size, 1) * ss

	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	views := make([][]mgl64.Vec3, len(meshes))
	for mi, m := range meshes {
		views[mi] = make([]mgl64.Vec3, len(m.Positions))
		for i, p := range m.Positions {
			v := opts.View.Mul3x1(mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])})
			views[mi][i] = v
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], v[k])
				hi[k] = math.Max(hi[k], v[k])
			}
		}
	}
	fb := NewFrameBuffer(renderSize, renderSize)
	if math.IsInf(lo[0], 1) {
		return fb.Image()
	}

	center := lo.Add(hi).Mul(0.5)
	span := math.Max(math.Max(hi[0]-lo[0], hi[1]-lo[1]), 0.001)
	margin := float64(16 * ss)
	scale := (float64(renderSize) - 2*margin) / span
	half := float64(renderSize) / 2

	lc := DefaultLightConfig()
	for mi, m := range meshes {
		var tex *image.NRGBA
		if opts.Textures != nil {
			tex = opts.Textures.Resolve(m.Material)
		}
		base := untextured
		if tex != nil && len(m.UVs) < len(m.Positions) {
			base, tex = averageColor(tex), nil
		}
		project := func(i int) ScreenVertex {
			v := views[mi][i]
			sv := ScreenVertex{
				X: (v[0]-center[0])*scale + half,
				Y: half - (v[1]-center[1])*scale,
				Z: (v[2] - center[2]) * scale,
			}
			if i < len(m.UVs) {
				sv.U, sv.V = float64(m.UVs[i][0]), float64(m.UVs[i][1])
			}
			return sv
		}
		for _, t := range m.Triangles {
			if t[0] < 0 || t[1] < 0 || t[2] < 0 || t[0] >= len(views[mi]) || t[1] >= len(views[mi]) || t[2] >= len(views[mi]) {
				continue
			}
			RasterizeTriangle(fb, [3]ScreenVertex{project(t[0]), project(t[1]), project(t[2])}, tex, base, &lc)
		}
	}
	return fb.Image()
}

// averageColor stands in for a texture on meshes without UVs.
func averageColor(tex *image.NRGBA) color.NRGBA {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return untextured
	}
	var sumR, sumG, sumB float64
	for y := 0; y < h; y++ {
		off := y * tex.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			sumR += float64(tex.Pix[i])
			sumG += float64(tex.Pix[i+1])
			sumB += float64(tex.Pix[i+2])
		}
	}
	n := float64(w * h)
	return color.NRGBA{R: uint8(sumR/n + 0.5), G: uint8(sumG/n + 0.5), B: uint8(sumB/n + 0.5), A: 255}
}
