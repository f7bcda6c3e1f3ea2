package texture

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"jpog-tmd/internal/diag"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func writeTGA(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, tga.Encode(f, img))
}

// layout builds <root>/models/rex.tmd and <root>/matlibs.
func layout(t *testing.T) (model, matlibs string) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0755))
	matlibs = filepath.Join(root, "matlibs")
	require.NoError(t, os.MkdirAll(matlibs, 0755))
	return filepath.Join(root, "models", "rex.tmd"), matlibs
}

func TestIndexPrefersTGA(t *testing.T) {
	model, matlibs := layout(t)
	red := color.NRGBA{R: 255, A: 255}
	writeTGA(t, filepath.Join(matlibs, "RexSkin.tga"), solid(red))
	require.NoError(t, imgio.Save(filepath.Join(matlibs, "rexskin.png"), solid(color.NRGBA{B: 255, A: 255}), imgio.PNGEncoder()))
	require.NoError(t, imgio.Save(filepath.Join(matlibs, "eyes.png"), solid(red), imgio.PNGEncoder()))
	require.NoError(t, os.WriteFile(filepath.Join(matlibs, "notes.txt"), []byte("x"), 0644))

	col := diag.NewCollector(nil)
	idx := BuildIndex(model, col)
	require.NoError(t, col.Err())
	assert.Equal(t, matlibs, idx.Dir())
	assert.Equal(t, 2, idx.Len())

	path, ok := idx.ResolvePath("rexskin")
	require.True(t, ok)
	assert.Equal(t, ".tga", filepath.Ext(path))

	img, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, red, img.NRGBAAt(1, 1))

	img, err = LoadTexture(filepath.Join(matlibs, "eyes.png"))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestIndexFallsBackToModelDir(t *testing.T) {
	dir := t.TempDir()
	writeTGA(t, filepath.Join(dir, "hide.tga"), solid(color.NRGBA{G: 255, A: 255}))

	col := diag.NewCollector(nil)
	idx := BuildIndex(filepath.Join(dir, "rex.tmd"), col)
	assert.True(t, col.Has(diag.ErrMissingCompanion))
	assert.Equal(t, dir, idx.Dir())
	_, ok := idx.ResolvePath("HIDE")
	assert.True(t, ok)
}

func TestFindLibrary(t *testing.T) {
	model, matlibs := layout(t)
	body := make([]byte, 4096)
	copy(body[3000:], "\x00Rex_Skin\x00")
	require.NoError(t, os.WriteFile(filepath.Join(matlibs, "dinos.tml"), body, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(matlibs, "short.tml"), []byte("\x00eyes\x00"), 0644))

	idx := BuildIndex(model, nil)
	path, ok := idx.FindLibrary("rex_skin")
	require.True(t, ok)
	assert.Equal(t, "dinos.tml", filepath.Base(path))

	path, ok = idx.FindLibrary("EYES")
	require.True(t, ok)
	assert.Equal(t, "short.tml", filepath.Base(path))

	_, ok = idx.FindLibrary("tail")
	assert.False(t, ok)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Rex_Skin", titleCase("rex_skin"))
	assert.Equal(t, "T2X", titleCase("t2x"))
	assert.Equal(t, "Abc", titleCase("ABC"))
}

func TestLoadTextureErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadTexture(filepath.Join(dir, "x.dds"))
	assert.Error(t, err)
	_, err = LoadTexture(filepath.Join(dir, "missing.tga"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.tga")
	require.NoError(t, os.WriteFile(bad, []byte{1, 2, 3}, 0644))
	_, err = LoadTexture(bad)
	assert.Error(t, err)
}

func TestCacheConcurrentResolve(t *testing.T) {
	dir := t.TempDir()
	writeTGA(t, filepath.Join(dir, "hide.tga"), solid(color.NRGBA{R: 9, A: 255}))
	c := NewCache(ScanDir(dir))

	var wg sync.WaitGroup
	results := make([]*image.NRGBA, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Resolve("hide")
		}(i)
	}
	wg.Wait()
	for _, img := range results {
		require.NotNil(t, img)
		assert.Same(t, results[0], img)
	}

	assert.Nil(t, c.Resolve("missing"))
	img, err := c.Image("missing")
	assert.NoError(t, err)
	assert.Nil(t, img)
}
