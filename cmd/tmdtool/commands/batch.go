package commands

import (
	"path/filepath"
	"time"

	"jpog-tmd/internal/batch"
	"jpog-tmd/internal/config"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/preview"
	"jpog-tmd/internal/printer"

	"github.com/spf13/cobra"
)

var (
	batchInput   string
	batchOutput  string
	batchWorkers int
	batchFormat  string
	batchSize    int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every model in a folder",
	Long: `Process every .tmd file in the input folder with a pool of workers.

Which outputs are produced is set in the settings file (preview, gltf,
verify). Results are written to manifest.json in the output folder.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "Folder with .tmd models")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Output folder")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Worker goroutines (default: NumCPU)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "", "Preview format: webp or png")
	batchCmd.Flags().IntVar(&batchSize, "size", 0, "Preview size in pixels")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Flags{
		InputDir:  batchInput,
		OutputDir: batchOutput,
		Workers:   batchWorkers,
		Format:    batchFormat,
		Size:      batchSize,
	})
	if err != nil {
		return err
	}
	if !cfg.Preview && !cfg.GLTF && !cfg.Verify {
		return printer.Error("Nothing to do", "The settings enable no batch output.", nil,
			"Set preview, gltf or verify to true in the file given to --config")
	}

	paths, err := batch.Find(cfg.InputDir)
	if err != nil {
		return printer.Error("Cannot list models", err.Error(), map[string]string{"input": cfg.InputDir})
	}
	printer.Step("%d models in %s, %d workers\n", len(paths), cfg.InputDir, cfg.Workers)

	bc := batch.Config{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Verify:    cfg.Verify,
		Preview:   cfg.Preview,
		GLTF:      cfg.GLTF,
		Format:    cfg.Format,
		Render: preview.Options{
			Size:        cfg.RenderSize,
			Supersample: cfg.Supersample,
			Fill:        cfg.Fill,
			Yaw:         cfg.Yaw,
			Pitch:       cfg.Pitch,
		},
		Coords:    cfg.Coords(),
		FPS:       cfg.FPS,
		SideNames: cfg.UseSideNames(),
		Log:       diag.LoggerFunc(printer.Step),
	}
	start := time.Now()
	results := batch.Run(bc, paths)

	for _, r := range results {
		if !r.Success {
			printer.Warning("%s\n", r)
		}
	}
	manifest := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifest, batch.NewManifest(bc, start, results)); err != nil {
		return printer.Error("Cannot write manifest", err.Error(), map[string]string{"path": manifest})
	}

	ok, failed, warned := batch.Summary(results)
	printer.Success("%d converted (%d with warnings), %d failed in %s\n", ok, warned, failed, time.Since(start).Round(time.Millisecond))
	return nil
}
