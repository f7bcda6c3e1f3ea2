package batch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/keypool"
	"jpog-tmd/internal/tmd"
)

// Source is a model together with its key pool and the bytes both were
// decoded from.
type Source struct {
	Path    string
	Data    []byte
	Model   *tmd.Model
	Pool    *keypool.Pool
	PoolRaw []byte
}

// Name is the model's file name without extension.
func (s *Source) Name() string {
	return strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
}

// PoolPath returns where the key pool named by m is expected: next to the
// model, as "<ref>.tkl". The empty string means the model names no pool.
func PoolPath(modelPath string, m *tmd.Model) string {
	if m.Header.TKLRef == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(modelPath), m.Header.TKLRef+".tkl")
}

// Open decodes the model at path and its key pool. A missing or unreadable
// pool is reported to col and leaves Pool nil; the model stays usable
// without animation.
func Open(path string, col *diag.Collector) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	m, err := tmd.Decode(data, col)
	if err != nil {
		return nil, err
	}
	src := &Source{Path: path, Data: data, Model: m}

	tkl := PoolPath(path, m)
	if tkl == "" {
		return src, nil
	}
	raw, err := readPool(tkl)
	if err != nil {
		col.ReportErr(diag.ErrMissingCompanion, "batch: key pool", err)
		return src, nil
	}
	pool, err := keypool.Load(raw)
	if err != nil {
		col.ReportErr(diag.ErrMalformedContainer, "batch: key pool", err)
		return src, nil
	}
	src.Pool, src.PoolRaw = pool, raw
	return src, nil
}

// readPool tries the name as written and then lowercased.
func readPool(path string) ([]byte, error) {
	raw, err := diag.ReadCompanion(path)
	if err == nil || !errors.Is(err, diag.ErrMissingCompanion) {
		return raw, err
	}
	lower := filepath.Join(filepath.Dir(path), strings.ToLower(filepath.Base(path)))
	if lower == path {
		return nil, err
	}
	if raw, lerr := diag.ReadCompanion(lower); lerr == nil {
		return raw, nil
	}
	return nil, err
}

// Verify re-encodes the model and pool and compares them with the bytes
// they were read from.
func (s *Source) Verify() error {
	out, err := tmd.Encode(s.Model)
	if err != nil {
		return err
	}
	if err := compare("tmd", s.Data, out); err != nil {
		return err
	}
	if s.Pool != nil {
		if err := compare("tkl", s.PoolRaw, s.Pool.Serialize("")); err != nil {
			return err
		}
	}
	return nil
}

func compare(what string, want, got []byte) error {
	if bytes.Equal(want, got) {
		return nil
	}
	n := min(len(want), len(got))
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return fmt.Errorf("%s round trip differs at byte %d (%#02x, re-encoded %#02x)", what, i, want[i], got[i])
		}
	}
	return fmt.Errorf("%s round trip is %d bytes, source is %d", what, len(got), len(want))
}
