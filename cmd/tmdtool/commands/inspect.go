package commands

import (
	"sort"

	"jpog-tmd/internal/printer"
	"jpog-tmd/internal/texture"

	"github.com/spf13/cobra"
)

var inspectBones bool

var inspectCmd = &cobra.Command{
	Use:   "inspect MODEL.tmd",
	Short: "Print the layout of a model and its key pool",
	Long: `Print the header fields, skeleton, clips and mesh pieces of a model,
the key pool it references, and where each material's texture and material
library were found.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectBones, "bones", false, "List every bone")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	src, col, err := openModel(args[0])
	if err != nil {
		return err
	}
	m := src.Model

	for _, line := range m.Summary() {
		printer.Info("%s\n", line)
	}
	if src.Pool != nil {
		printer.Info("%s\n", src.Pool)
	}
	if inspectBones {
		for i, b := range m.Skeleton {
			printer.Detail("%3d %-15s parent %3d updates %d\n", i, b.Name, b.Parent, b.Updates)
		}
	}
	for i, c := range m.Clips {
		printer.Detail("clip %d %q: %d keys, %.2fs\n", i, c.Name, c.KeyCount(), c.Duration)
	}
	if drift := m.Skeleton.BindDrift(1e-3); len(drift) > 0 {
		printer.Warning("bind matrices disagree with the hierarchy for %v\n", drift)
	}

	index := texture.BuildIndex(src.Path, col)
	printer.Step("materials in %s (%d textures)\n", index.Dir(), index.Len())
	materials := map[string]bool{}
	for _, lod := range m.LODs {
		for _, mesh := range lod.Meshes {
			materials[mesh.Material] = true
		}
	}
	names := make([]string, 0, len(materials))
	for name := range materials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tex, ok := index.ResolvePath(name)
		if !ok {
			tex = "(no texture)"
		}
		lib, ok := index.FindLibrary(name)
		if !ok {
			lib = "(no library)"
		}
		printer.Detail("%-20s %s  %s\n", name, tex, lib)
	}
	return nil
}
