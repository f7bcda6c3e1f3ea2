package commands

import (
	"path/filepath"
	"strings"

	"jpog-tmd/internal/config"
	"jpog-tmd/internal/preview"
	"jpog-tmd/internal/printer"
	"jpog-tmd/internal/texture"

	"github.com/spf13/cobra"
)

var (
	previewOut  string
	previewSize int
	previewLOD  int
	previewClip int
	previewTime float32
	previewYaw  float64
	previewTilt float64
)

var previewCmd = &cobra.Command{
	Use:   "preview MODEL.tmd",
	Short: "Render a textured preview image",
	Long: `Render one level of detail of a model to a WebP or PNG image.

The bind pose is drawn unless --clip names a clip, in which case the
model is posed at --time seconds into it using its key pool.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "Output image, .webp or .png (default: MODEL.<format>)")
	previewCmd.Flags().IntVar(&previewSize, "size", 0, "Image size in pixels")
	previewCmd.Flags().IntVar(&previewLOD, "lod", 0, "Level of detail to draw")
	previewCmd.Flags().IntVar(&previewClip, "clip", -1, "Clip index to pose the model with")
	previewCmd.Flags().Float32Var(&previewTime, "time", 0, "Time into the clip, in seconds")
	previewCmd.Flags().Float64Var(&previewYaw, "yaw", 0, "Camera yaw in degrees, added to the configured yaw")
	previewCmd.Flags().Float64Var(&previewTilt, "pitch", 0, "Camera pitch in degrees, added to the configured pitch")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Flags{Size: previewSize})
	if err != nil {
		return err
	}
	src, col, err := openModel(args[0])
	if err != nil {
		return err
	}

	opts := preview.Options{
		Size:        cfg.RenderSize,
		Supersample: cfg.Supersample,
		Fill:        cfg.Fill,
		Yaw:         cfg.Yaw + previewYaw,
		Pitch:       cfg.Pitch + previewTilt,
		LOD:         previewLOD,
		Textures:    texture.NewCache(texture.BuildIndex(src.Path, col)),
	}
	if previewClip >= 0 {
		opts.Pose = &preview.Pose{Clip: previewClip, Time: previewTime, Pool: src.Pool}
	}
	img, err := preview.Render(src.Model, opts)
	if err != nil {
		return failure("Cannot render "+args[0], err)
	}

	out := previewOut
	if out == "" {
		out = strings.TrimSuffix(src.Path, filepath.Ext(src.Path)) + "." + cfg.Format
	}
	if err := preview.Save(out, img); err != nil {
		return failure("Cannot write "+out, err)
	}
	printer.Success("wrote %s\n", out)
	return nil
}
