// Package commands implements the tmdtool command line.
package commands

import (
	"jpog-tmd/internal/config"
	"jpog-tmd/internal/printer"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tmdtool",
	Short: "Inspect, convert and rebuild JPOG TMD models",
	Long: `tmdtool reads the TMD model files and TKL key pools of Jurassic Park:
Operation Genesis.

It can print a model's layout, check that a model survives a decode and
re-encode unchanged, export it as a skinned and animated glTF binary,
render a preview image, and rebuild a model from its own scene with new
partitioning or a fresh key pool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersion sets the version shown by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML settings file")
}

// loadConfig reads --config when given and fills in defaults.
func loadConfig(flags config.Flags) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, printer.Error("Cannot load settings", err.Error(), nil,
				"Check the path given to --config")
		}
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return cfg, printer.Error("Invalid settings", err.Error(), map[string]string{"config": configPath})
	}
	return cfg, nil
}
