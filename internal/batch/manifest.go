package batch

import (
	"encoding/json"
	"time"

	"jpog-tmd/internal/diag"

	"github.com/google/uuid"
)

// Manifest records one batch run in the output directory.
type Manifest struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	InputDir string    `json:"input_dir"`
	Format   string    `json:"format,omitempty"`
	Models   []Result  `json:"models"`
}

// NewManifest starts a manifest with a fresh run id.
func NewManifest(cfg Config, started time.Time, results []Result) Manifest {
	m := Manifest{
		RunID:    uuid.NewString(),
		Started:  started.UTC(),
		InputDir: cfg.InputDir,
		Models:   results,
	}
	if cfg.Preview {
		m.Format = cfg.Format
	}
	return m
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return diag.WriteFile(path, data)
}
