// Package config loads tool settings from YAML and merges command-line
// overrides and defaults.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/partition"
	"jpog-tmd/internal/scene"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable paths and conversion settings.
type Config struct {
	// Paths
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	Workers int `yaml:"workers"`

	// Outputs of a batch run
	Preview bool `yaml:"preview"`
	GLTF    bool `yaml:"gltf"`
	Verify  bool `yaml:"verify"`

	// Render settings
	Format      string  `yaml:"format"`
	RenderSize  int     `yaml:"render_size"`
	Supersample int     `yaml:"supersample"`
	Fill        float64 `yaml:"fill"`
	Yaw         float64 `yaml:"yaw"`
	Pitch       float64 `yaml:"pitch"`

	// Conversion settings
	FPS       float32     `yaml:"fps"`
	MaxPieces int         `yaml:"max_pieces"`
	PieceLen  int         `yaml:"piece_len"`
	SideNames *bool       `yaml:"side_names"`
	Global    *[3]float64 `yaml:"global_correction"`
	Local     *[3]float64 `yaml:"local_correction"`
}

// Load reads a YAML config file. Fields not set in the file keep their zero
// values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir  string
	OutputDir string
	Workers   int
	Format    string
	Size      int
	MaxPieces int
}

// Resolve applies flags and fills every unset field with its default.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Size > 0 {
		c.RenderSize = flags.Size
	}
	if flags.MaxPieces > 0 {
		c.MaxPieces = flags.MaxPieces
	}

	if c.InputDir == "" {
		c.InputDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = "webp"
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Fill <= 0 {
		c.Fill = 0.9
	}
	if c.FPS <= 0 {
		c.FPS = scene.DefaultFPS
	}
	if c.MaxPieces <= 0 {
		c.MaxPieces = partition.DefaultMaxPieces
	}
	if c.PieceLen <= 0 {
		c.PieceLen = partition.PieceLen
	}
	if c.SideNames == nil {
		on := true
		c.SideNames = &on
	}
	if c.Global == nil {
		g := mathutil.DefaultGlobalDeg
		c.Global = &g
	}
	if c.Local == nil {
		l := mathutil.DefaultLocalDeg
		c.Local = &l
	}
}

// Validate rejects settings no run can use. Call it after Resolve.
func (c *Config) Validate() error {
	if c.Format != "webp" && c.Format != "png" {
		return fmt.Errorf("config: format %q (must be webp or png)", c.Format)
	}
	if c.RenderSize > 8192 {
		return fmt.Errorf("config: render_size %d exceeds 8192", c.RenderSize)
	}
	if c.Supersample > 8 {
		return fmt.Errorf("config: supersample %d exceeds 8", c.Supersample)
	}
	if c.Fill > 1 {
		return fmt.Errorf("config: fill %.2f exceeds 1", c.Fill)
	}
	if c.MaxPieces > 255 {
		return fmt.Errorf("config: max_pieces %d exceeds 255", c.MaxPieces)
	}
	// a strip piece must start on an even index to keep its winding
	if c.PieceLen%2 != 0 || c.PieceLen < 4 {
		return fmt.Errorf("config: piece_len %d must be even and at least 4", c.PieceLen)
	}
	return nil
}

// PartitionOptions returns the mesh partition bounds.
func (c *Config) PartitionOptions() partition.Options {
	return partition.Options{MaxPieces: c.MaxPieces, PieceLen: c.PieceLen}
}

// Coords returns the coordinate correction pair.
func (c *Config) Coords() mathutil.Coords {
	return mathutil.CoordsFromDegrees(*c.Global, *c.Local)
}

// UseSideNames reports whether bone names get host side suffixes.
func (c *Config) UseSideNames() bool {
	return c.SideNames == nil || *c.SideNames
}
