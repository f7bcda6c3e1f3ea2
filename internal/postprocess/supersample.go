// Package postprocess finishes rendered previews: supersample reduction and
// framing of the visible pixels.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to targetSize × targetSize in premultiplied alpha,
// so transparent edges do not pull in dark fringes. Images already at or
// below the target are returned as is.
func Downsample(img *image.NRGBA, targetSize int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= targetSize && b.Dy() <= targetSize {
		return img
	}

	premul := image.NewRGBA(b)
	draw.Draw(premul, b, img, b.Min, draw.Src)

	// CatmullRom approximates Lanczos
	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, b, draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	draw.Draw(out, out.Bounds(), dst, image.Point{}, draw.Src)
	return out
}
