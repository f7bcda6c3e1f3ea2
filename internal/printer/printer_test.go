package printer

import (
	"bytes"
	"testing"

	"jpog-tmd/internal/diag"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out, errOut bytes.Buffer
	Stdout, Stderr = &out, &errOut
	return &out, &errOut
}

func TestErrorReturnsTitleOnly(t *testing.T) {
	_, errOut := capture(t)

	err := Error("Cannot read rex.tmd", "The file is truncated.", map[string]string{"b": "2", "a": "1"}, "Re-extract it", "Pick another file")
	require.Error(t, err)
	assert.Equal(t, "Cannot read rex.tmd", err.Error())

	text := errOut.String()
	assert.Contains(t, text, "The file is truncated.")
	assert.Less(t, bytes.Index(errOut.Bytes(), []byte("a: 1")), bytes.Index(errOut.Bytes(), []byte("b: 2")))
	assert.Contains(t, text, "Either:")
	assert.Contains(t, text, "2. Pick another file")
}

func TestSingleSuggestion(t *testing.T) {
	_, errOut := capture(t)
	_ = Error("x", "", nil, "Only fix")
	assert.NotContains(t, errOut.String(), "Either:")
	assert.Contains(t, errOut.String(), "Only fix")
}

func TestStatusLines(t *testing.T) {
	out, _ := capture(t)
	Success("wrote %s\n", "rex.glb")
	Warning("careful\n")
	Step("decoding\n")
	Info("plain %d\n", 1)
	assert.Equal(t, "✓ wrote rex.glb\n! careful\n→ decoding\nplain 1\n", out.String())
}

func TestLoggerAndDiagnostics(t *testing.T) {
	out, _ := capture(t)
	col := diag.NewCollector(Logger())
	col.Reportf(diag.ErrBoneMismatch, "export", "bone %q", "b_tail")
	col.Reportf(diag.ErrBoneMismatch, "export", "bone %q", "b_head")
	col.Reportf(diag.ErrEmptyMesh, "export", "mesh")
	assert.Contains(t, out.String(), "! export: bone mismatch: bone \"b_tail\"\n")

	out.Reset()
	Diagnostics(col.Errors())
	text := out.String()
	assert.Contains(t, text, "bone mismatch (2)")
	assert.Contains(t, text, "mesh has no faces (1)")
}
