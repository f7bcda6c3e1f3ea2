package commands

import (
	"bytes"
	"path/filepath"
	"strings"

	"jpog-tmd/internal/config"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/gltfexport"
	"jpog-tmd/internal/printer"
	"jpog-tmd/internal/scene"
	"jpog-tmd/internal/texture"

	"github.com/spf13/cobra"
)

var (
	gltfOut        string
	gltfLOD        int
	gltfNoTextures bool
)

var gltfCmd = &cobra.Command{
	Use:   "gltf MODEL.tmd",
	Short: "Export a model as a skinned, animated glTF binary",
	Long: `Export a model's armature, meshes and clips as a .glb file.

Bones and clips go through the coordinate correction in the settings;
mesh vertices are written as stored. Clips are only exported when the
model's key pool is found next to it. Textures are embedded as PNG when
the material folder has them.`,
	Args: cobra.ExactArgs(1),
	RunE: runGLTF,
}

func init() {
	gltfCmd.Flags().StringVarP(&gltfOut, "out", "o", "", "Output file (default: MODEL.glb)")
	gltfCmd.Flags().IntVar(&gltfLOD, "lod", 0, "Level of detail to export, -1 for all")
	gltfCmd.Flags().BoolVar(&gltfNoTextures, "no-textures", false, "Do not embed textures")
	rootCmd.AddCommand(gltfCmd)
}

func runGLTF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Flags{})
	if err != nil {
		return err
	}
	src, col, err := openModel(args[0])
	if err != nil {
		return err
	}

	opts := gltfexport.Options{FPS: cfg.FPS, LOD: gltfLOD}
	if !gltfNoTextures {
		opts.Textures = texture.NewCache(texture.BuildIndex(src.Path, col)).Image
	}
	b := gltfexport.New(opts)
	err = scene.Import(src.Model, src.Pool, scene.ImportOptions{
		Name:      src.Name(),
		Coords:    cfg.Coords(),
		FPS:       cfg.FPS,
		SideNames: cfg.UseSideNames(),
	}, b, col)
	if err != nil {
		return failure("Cannot convert "+args[0], err)
	}

	out := gltfOut
	if out == "" {
		out = strings.TrimSuffix(src.Path, filepath.Ext(src.Path)) + ".glb"
	}
	var buf bytes.Buffer
	if err := b.WriteBinary(&buf); err != nil {
		return failure("Cannot encode "+out, err)
	}
	if err := diag.WriteFile(out, buf.Bytes()); err != nil {
		return failure("Cannot write "+out, err)
	}
	printer.Success("wrote %s (%d bones, %d clips)\n", out, len(src.Model.Skeleton), len(b.Document().Animations))
	printer.Diagnostics(col.Errors())
	return nil
}
