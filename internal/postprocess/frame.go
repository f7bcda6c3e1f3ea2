package postprocess

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultFill is the share of the canvas the longer side of the model
// covers after framing.
const DefaultFill = 0.9

// Frame crops img to its visible pixels and centers them on a transparent
// size × size canvas, scaled so the longer side covers fill of it.
func Frame(img *image.NRGBA, size int, fill float64) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	box := AlphaBounds(img)
	if box.Empty() {
		return canvas
	}

	scale := float64(size) * fill / math.Max(float64(box.Dx()), float64(box.Dy()))
	w := max(int(float64(box.Dx())*scale+0.5), 1)
	h := max(int(float64(box.Dy())*scale+0.5), 1)
	off := image.Pt((size-w)/2, (size-h)/2)
	draw.CatmullRom.Scale(canvas, image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}, img, box, draw.Src, nil)
	return canvas
}

// AlphaBounds returns the smallest rectangle holding every pixel with
// non-zero alpha.
func AlphaBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	out := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] == 0 {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if out.Empty() {
				out = px
			} else {
				out = out.Union(px)
			}
		}
	}
	return out
}
