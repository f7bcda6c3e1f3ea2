// Package batch converts a folder of TMD models: round-trip verification,
// preview images and glTF exports, spread over a worker pool.
package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/gltfexport"
	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/preview"
	"jpog-tmd/internal/scene"
	"jpog-tmd/internal/texture"
)

// Config holds all shared settings for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Workers   int

	Verify  bool
	Preview bool
	GLTF    bool

	// Format is the preview encoding, "webp" or "png".
	Format string
	Render preview.Options

	Coords    mathutil.Coords
	FPS       float32
	SideNames bool

	// Log receives progress lines; nil is silent.
	Log diag.Logger
}

// Result holds the outcome of processing one model.
type Result struct {
	Name     string   `json:"name"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Clips    int      `json:"clips"`
	Bones    int      `json:"bones"`
	Preview  string   `json:"preview,omitempty"`
	GLTF     string   `json:"gltf,omitempty"`
}

// Find lists the .tmd files directly inside dir, sorted by name.
func Find(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".tmd") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Run processes all models using a worker pool. Results are in input order.
func Run(cfg Config, paths []string) []Result {
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64
	textures := &textureSet{caches: make(map[string]*texture.Cache)}

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 && cfg.Log != nil {
					rate := float64(p) / time.Since(start).Seconds()
					cfg.Log.Printf("[%d/%d] %.1f models/sec\n", p, total, rate)
				}
			}
		}
	}()

	workers := max(cfg.Workers, 1)
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processFile(cfg, textures, paths[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func processFile(cfg Config, textures *textureSet, path string) Result {
	col := diag.NewCollector(nil)
	res := Result{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	fail := func(err error) Result {
		res.Error = err.Error()
		res.Warnings = warnings(col)
		return res
	}

	src, err := Open(path, col)
	if err != nil {
		return fail(err)
	}
	res.Bones = len(src.Model.Skeleton)
	res.Clips = len(src.Model.Clips)

	if cfg.Verify {
		if err := src.Verify(); err != nil {
			return fail(err)
		}
	}

	var tex *texture.Cache
	if cfg.Preview || cfg.GLTF {
		tex = textures.forModel(path, col)
	}

	if cfg.Preview {
		opts := cfg.Render
		opts.Textures = tex
		img, err := preview.Render(src.Model, opts)
		if err != nil {
			return fail(err)
		}
		name := res.Name + "." + cfg.Format
		var buf bytes.Buffer
		if err := preview.Encode(&buf, img, cfg.Format); err != nil {
			return fail(err)
		}
		if err := diag.WriteFile(filepath.Join(cfg.OutputDir, name), buf.Bytes()); err != nil {
			return fail(err)
		}
		res.Preview = name
	}

	if cfg.GLTF {
		b := gltfexport.New(gltfexport.Options{FPS: cfg.FPS, Textures: tex.Image})
		err := scene.Import(src.Model, src.Pool, scene.ImportOptions{
			Name:      res.Name,
			Coords:    cfg.Coords,
			FPS:       cfg.FPS,
			SideNames: cfg.SideNames,
		}, b, col)
		if err != nil {
			return fail(err)
		}
		var buf bytes.Buffer
		if err := b.WriteBinary(&buf); err != nil {
			return fail(err)
		}
		name := res.Name + ".glb"
		if err := diag.WriteFile(filepath.Join(cfg.OutputDir, name), buf.Bytes()); err != nil {
			return fail(err)
		}
		res.GLTF = name
	}

	res.Success = true
	res.Warnings = warnings(col)
	return res
}

func warnings(col *diag.Collector) []string {
	var out []string
	for _, e := range col.Errors() {
		out = append(out, e.Error())
	}
	return out
}

// textureSet shares one cache per material folder between workers.
type textureSet struct {
	mu     sync.Mutex
	caches map[string]*texture.Cache
}

func (s *textureSet) forModel(path string, col *diag.Collector) *texture.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := texture.MatlibsDir(path)
	if info, err := os.Stat(key); err != nil || !info.IsDir() {
		key = filepath.Dir(path)
	}
	if c, ok := s.caches[key]; ok {
		return c
	}
	c := texture.NewCache(texture.BuildIndex(path, col))
	s.caches[key] = c
	return c
}

// Summary counts successes and failures.
func Summary(results []Result) (ok, failed, warned int) {
	for _, r := range results {
		switch {
		case !r.Success:
			failed++
		case len(r.Warnings) > 0:
			warned++
			ok++
		default:
			ok++
		}
	}
	return ok, failed, warned
}

func (r Result) String() string {
	if r.Success {
		return r.Name
	}
	return fmt.Sprintf("%s: %s", r.Name, r.Error)
}
