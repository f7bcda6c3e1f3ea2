package commands

import (
	"path/filepath"
	"strings"

	"jpog-tmd/internal/batch"
	"jpog-tmd/internal/config"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/printer"
	"jpog-tmd/internal/scene"
	"jpog-tmd/internal/tmd"

	"github.com/spf13/cobra"
)

var (
	rebuildOut         string
	rebuildAnims       bool
	rebuildAppendAnims bool
	rebuildPadAnims    bool
	rebuildRef         string
	rebuildMaxPieces   int
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild MODEL.tmd",
	Short: "Re-export a model through the scene layer",
	Long: `Import a model into an in-memory scene and export it again.

Meshes are re-partitioned into strip pieces. Without --anims the bone
order and clips of the source model are kept as they are; with --anims
the clips are resampled and written to a new key pool, which is saved
next to the output model.

  --append-anims  keep the existing key pool entries and add to them
  --pad-anims     grow the new pool to the old pool's size and keep the
                  old pool name, so other models sharing it keep working`,
	Args: cobra.ExactArgs(1),
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().StringVarP(&rebuildOut, "out", "o", "", "Output model (default: MODEL_rebuilt.tmd)")
	rebuildCmd.Flags().BoolVar(&rebuildAnims, "anims", false, "Write clips to a new key pool")
	rebuildCmd.Flags().BoolVar(&rebuildAppendAnims, "append-anims", false, "Append new keys to the existing key pool")
	rebuildCmd.Flags().BoolVar(&rebuildPadAnims, "pad-anims", false, "Pad the new key pool to the old one's size")
	rebuildCmd.Flags().StringVar(&rebuildRef, "tkl", "", "Name of the new key pool, at most six characters")
	rebuildCmd.Flags().IntVar(&rebuildMaxPieces, "max-pieces", 0, "Most strip pieces per mesh")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Flags{MaxPieces: rebuildMaxPieces})
	if err != nil {
		return err
	}
	src, col, err := openModel(args[0])
	if err != nil {
		return err
	}
	if rebuildAnims && src.Pool == nil && len(src.Model.Clips) > 0 {
		printer.Warning("no key pool for %s, the rebuilt model will have no clips\n", args[0])
	}

	mem := scene.NewMemory()
	coords := cfg.Coords()
	if err := scene.Import(src.Model, src.Pool, scene.ImportOptions{
		Name:      src.Name(),
		Coords:    coords,
		FPS:       cfg.FPS,
		SideNames: cfg.UseSideNames(),
	}, mem, col); err != nil {
		return failure("Cannot import "+args[0], err)
	}

	m, pool, err := scene.Export(mem, scene.ExportOptions{
		Base:        src.Model,
		BasePool:    src.Pool,
		Anims:       rebuildAnims,
		AppendAnims: rebuildAppendAnims,
		PadAnims:    rebuildPadAnims,
		TKLRef:      rebuildRef,
		Coords:      coords,
		FPS:         cfg.FPS,
		SideNames:   cfg.UseSideNames(),
		Partition:   cfg.PartitionOptions(),
	}, col)
	if err != nil {
		return failure("Cannot export "+args[0], err)
	}

	data, err := tmd.Encode(m)
	if err != nil {
		return failure("Cannot encode "+args[0], err)
	}
	out := rebuildOut
	if out == "" {
		out = strings.TrimSuffix(src.Path, filepath.Ext(src.Path)) + "_rebuilt.tmd"
	}
	if err := diag.WriteFile(out, data); err != nil {
		return failure("Cannot write "+out, err)
	}
	printer.Success("wrote %s\n", out)

	if pool != nil {
		tkl := batch.PoolPath(out, m)
		if tkl == "" {
			printer.Warning("the rebuilt model names no key pool; pass --tkl\n")
		} else {
			if err := diag.WriteFile(tkl, pool.Serialize(m.Header.TKLRef)); err != nil {
				return failure("Cannot write "+tkl, err)
			}
			printer.Success("wrote %s\n", tkl)
		}
	}
	printer.Diagnostics(col.Errors())
	return nil
}
