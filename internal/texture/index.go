package texture

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"jpog-tmd/internal/diag"
)

// libraryTail is how much of the end of a material library is searched for
// material names.
const libraryTail = 2048

// extension priority: TGA is what the game ships, the rest are conversions.
var priority = map[string]int{".tga": 3, ".png": 2, ".bmp": 1}

// Index maps lowercase material names to texture paths in one directory.
type Index struct {
	dir       string
	entries   map[string]string
	libraries []string
}

// MatlibsDir returns the material folder for a model: a "matlibs" folder
// next to the model's parent directory.
func MatlibsDir(modelPath string) string {
	return filepath.Join(filepath.Dir(filepath.Dir(modelPath)), "matlibs")
}

// BuildIndex scans the material folder of modelPath. When it does not
// exist a MissingCompanion error is reported and the model's own directory
// is scanned instead.
func BuildIndex(modelPath string, col *diag.Collector) *Index {
	dir := MatlibsDir(modelPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		col.Reportf(diag.ErrMissingCompanion, "texture: index", "%s is missing, models should sit in a folder next to matlibs", dir)
		dir = filepath.Dir(modelPath)
	}
	return ScanDir(dir)
}

// ScanDir indexes the textures and material libraries directly inside dir.
func ScanDir(dir string) *Index {
	idx := &Index{dir: dir, entries: make(map[string]string)}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".tml" {
			idx.libraries = append(idx.libraries, path)
			continue
		}
		if priority[ext] == 0 {
			continue
		}
		stem := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		existing, exists := idx.entries[stem]
		if !exists || priority[ext] > priority[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
	}
	return idx
}

// Dir returns the scanned directory.
func (idx *Index) Dir() string { return idx.dir }

// ResolvePath returns the texture path for a material name, or ("", false).
func (idx *Index) ResolvePath(material string) (string, bool) {
	path, ok := idx.entries[strings.ToLower(material)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// FindLibrary returns the material library that lists material. Names are
// NUL-delimited near the end of a library and may be stored as given,
// title-cased or lowercased.
func (idx *Index) FindLibrary(material string) (string, bool) {
	needles := [][]byte{
		delimited(material),
		delimited(titleCase(material)),
		delimited(strings.ToLower(material)),
	}
	for _, path := range idx.libraries {
		tail, err := readTail(path, libraryTail)
		if err != nil {
			continue
		}
		for _, n := range needles {
			if bytes.Contains(tail, n) {
				return path, true
			}
		}
	}
	return "", false
}

func delimited(s string) []byte {
	return append(append([]byte{0}, s...), 0)
}

func readTail(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(-n, io.SeekEnd); err != nil {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}
	return io.ReadAll(f)
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest; a word is a run of letters.
func titleCase(s string) string {
	out := []rune(s)
	start := true
	for i, r := range out {
		if unicode.IsLetter(r) {
			if start {
				out[i] = unicode.ToUpper(r)
			} else {
				out[i] = unicode.ToLower(r)
			}
			start = false
		} else {
			start = true
		}
	}
	return string(out)
}
