// Package preview renders a decoded model to a still image, optionally
// posed at a point of one of its clips, and writes it as WebP or PNG.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"jpog-tmd/internal/anim"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/keypool"
	"jpog-tmd/internal/postprocess"
	"jpog-tmd/internal/raster"
	"jpog-tmd/internal/skeleton"
	"jpog-tmd/internal/texture"
	"jpog-tmd/internal/tmd"

	"github.com/HugoSmits86/nativewebp"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Pose selects a clip frame to render instead of the bind pose.
type Pose struct {
	Clip int
	Time float32
	Pool *keypool.Pool
}

// Options controls a preview.
type Options struct {
	Size        int
	Supersample int
	// Fill is the share of the canvas the model covers; 0 keeps the
	// renderer's own fit.
	Fill float64
	// Yaw and Pitch turn the camera, in degrees.
	Yaw, Pitch float64
	LOD        int
	Textures   texture.Resolver
	Pose       *Pose
}

// Render draws one LOD of m.
func Render(m *tmd.Model, opts Options) (*image.NRGBA, error) {
	var skin []mgl32.Mat4
	if opts.Pose != nil {
		var err error
		if skin, err = poseMatrices(m, *opts.Pose); err != nil {
			return nil, err
		}
	}
	meshes, err := Meshes(m, opts.LOD, skin)
	if err != nil {
		return nil, err
	}

	view := mgl64.Rotate3DX(mgl64.DegToRad(opts.Pitch)).Mul3(mgl64.Rotate3DY(mgl64.DegToRad(opts.Yaw)))
	img := raster.Render(meshes, raster.Options{
		Size:        opts.Size,
		Supersample: opts.Supersample,
		View:        view,
		Textures:    opts.Textures,
	})
	if opts.Supersample > 1 {
		img = postprocess.Downsample(img, opts.Size)
	}
	if opts.Fill > 0 {
		img = postprocess.Frame(img, opts.Size, opts.Fill)
	}
	return img, nil
}

func poseMatrices(m *tmd.Model, p Pose) ([]mgl32.Mat4, error) {
	if p.Pool == nil {
		return nil, diag.New(diag.ErrMissingCompanion, "preview: pose", "posing needs the key pool")
	}
	if p.Clip < 0 || p.Clip >= len(m.Clips) {
		return nil, fmt.Errorf("preview: pose: clip %d of %d", p.Clip, len(m.Clips))
	}
	locals := anim.PoseAt(m.Clips[p.Clip], m.Skeleton, p.Pool, p.Time)
	return m.Skeleton.SkinMatrices(m.Skeleton.WorldMatrices(locals)), nil
}

// Meshes expands the meshes of one LOD into triangle lists. With skin
// matrices the vertices are deformed by their bone influences.
func Meshes(m *tmd.Model, lod int, skin []mgl32.Mat4) ([]raster.Mesh, error) {
	if lod < 0 || lod >= len(m.LODs) {
		return nil, fmt.Errorf("preview: LOD %d of %d", lod, len(m.LODs))
	}
	var out []raster.Mesh
	for _, mesh := range m.LODs[lod].Meshes {
		tris, err := mesh.Triangles()
		if err != nil {
			return nil, err
		}
		verts := mesh.VertexBuffer()
		rm := raster.Mesh{
			Material:  mesh.Material,
			Positions: make([][3]float32, len(verts)),
			UVs:       make([][2]float32, len(verts)),
			Triangles: tris,
		}
		var infl [][]skeleton.Influence
		if skin != nil {
			if infl, err = mesh.Influences(); err != nil {
				return nil, err
			}
		}
		for i, v := range verts {
			rm.Positions[i] = v.Position
			rm.UVs[i] = v.UV
			if infl != nil {
				p := skeleton.Skin(mgl32.Vec3(v.Position), infl[i], skin)
				rm.Positions[i] = [3]float32(p)
			}
		}
		out = append(out, rm)
	}
	return out, nil
}

// Encode writes img as "webp" or "png".
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "webp":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("preview: WebP encode: %w", err)
		}
	case "png":
		if err := imgio.PNGEncoder()(w, img); err != nil {
			return fmt.Errorf("preview: PNG encode: %w", err)
		}
	default:
		return fmt.Errorf("preview: unknown format %q", format)
	}
	return nil
}

// FormatOf picks the output format from a file extension.
func FormatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return "png"
	}
	return "webp"
}

// Save encodes img in the format of path's extension and writes it.
func Save(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatOf(path)); err != nil {
		return err
	}
	return diag.WriteFile(path, buf.Bytes())
}
