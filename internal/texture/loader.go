package texture

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/ftrvxmtrx/tga"
)

// LoadTexture reads a TGA, PNG or BMP file and returns an NRGBA image.
func LoadTexture(path string) (*image.NRGBA, error) {
	var img image.Image
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".tga":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("texture: read %s: %w", path, err)
		}
		defer f.Close()
		if img, err = tga.Decode(f); err != nil {
			return nil, fmt.Errorf("texture: decode %s: %w", path, err)
		}
	case ".png", ".bmp":
		var err error
		if img, err = imgio.Open(path); err != nil {
			return nil, fmt.Errorf("texture: decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("texture: unknown extension: %s", ext)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}
