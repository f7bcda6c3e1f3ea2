package partition

import (
	"fmt"
	"sort"
	"testing"

	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/tmd"
	"jpog-tmd/internal/tristrip"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weighted(x, y float32, ws ...Weight) Vertex {
	return Vertex{Position: [3]float32{x, y, 0}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{x, y}, Weights: ws}
}

func w(bone string, v float32) Weight { return Weight{Bone: bone, Weight: v} }

func quad(bone string) Mesh {
	return Mesh{
		Name:     "quad",
		Material: "skin",
		Vertices: []Vertex{
			weighted(0, 0, w(bone, 1)),
			weighted(1, 0, w(bone, 1)),
			weighted(0, 1, w(bone, 1)),
			weighted(1, 1, w(bone, 1)),
		},
		Triangles: []tristrip.Triangle{{0, 1, 2}, {2, 1, 3}},
	}
}

func TestQuadSinglePiece(t *testing.T) {
	out, err := Partition(quad("b_b"), []string{"b_a", "b_b"}, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "skin", out.Material)
	require.Len(t, out.Pieces, 1)
	p := out.Pieces[0]
	assert.Equal(t, []uint32{1}, p.Palette)
	assert.Equal(t, []int16{0, 1, 2, 3}, p.Strip)
	require.Len(t, p.Vertices, 4)
	assert.Equal(t, [4]uint8{255, 0, 0, 0}, p.Vertices[0].Weights)
	assert.Equal(t, [4]uint8{0, 0, 0, 0}, p.Vertices[0].Slots)
	assert.Equal(t, [3]float32{0.5, 0.5, 0}, p.Center)
	assert.Equal(t, [3]float32{1, 1, 0}, p.Extent)
}

func TestWeightQuantization(t *testing.T) {
	m := Mesh{
		Material: "m",
		Vertices: []Vertex{
			weighted(0, 0, w("a", 0.1), w("b", 0.5), w("c", 0.2), w("d", 0.2), w("e", 0.3)),
			weighted(1, 0, w("a", 1)),
			weighted(0, 1, w("a", 1)),
		},
		Triangles: []tristrip.Triangle{{0, 1, 2}},
	}
	out, err := Partition(m, []string{"a", "b", "c", "d", "e"}, Options{}, nil)
	require.NoError(t, err)
	p := out.Pieces[0]
	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, p.Palette)
	v := p.Vertices[0]
	assert.Equal(t, [4]uint8{106, 63, 42, 42}, v.Weights)
	// palette slots of b, e, c, d times three
	assert.Equal(t, [4]uint8{3, 12, 6, 9}, v.Slots)
}

func TestIgnoresUnknownAndZeroWeights(t *testing.T) {
	m := quad("b_a")
	m.Vertices[0].Weights = append(m.Vertices[0].Weights, w("ghost", 0.9), w("b_b", 0))
	out, err := Partition(m, []string{"b_a", "b_b"}, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, out.Pieces[0].Palette)
	assert.Equal(t, [4]uint8{255, 0, 0, 0}, out.Pieces[0].Vertices[0].Weights)
}

func TestUnweightedVertex(t *testing.T) {
	m := quad("b_a")
	m.Vertices[3].Weights = nil
	_, err := Partition(m, []string{"b_a"}, Options{}, nil)
	assert.ErrorIs(t, err, diag.ErrUnweightedVertex)
}

func TestBucketsFirstFit(t *testing.T) {
	m := Mesh{
		Material: "m",
		Vertices: []Vertex{
			weighted(0, 0, w("a", 1)), weighted(1, 0, w("b", 1)), weighted(0, 1, w("a", 1)),
			weighted(2, 0, w("c", 1)), weighted(3, 0, w("c", 1)), weighted(2, 1, w("c", 1)),
			weighted(5, 0, w("a", 1)), weighted(6, 0, w("a", 1)), weighted(5, 1, w("a", 1)),
		},
		Triangles: []tristrip.Triangle{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}},
	}
	out, err := Partition(m, []string{"a", "b", "c"}, Options{MaxBones: 2}, nil)
	require.NoError(t, err)
	require.Len(t, out.Pieces, 2)
	assert.Equal(t, []uint32{0, 1}, out.Pieces[0].Palette)
	assert.Equal(t, []uint32{2}, out.Pieces[1].Palette)
	assert.Len(t, out.Pieces[0].Vertices, 9)
	assert.Nil(t, out.Pieces[1].Vertices)

	tris, err := out.Triangles()
	require.NoError(t, err)
	assert.Len(t, tris, 3)
}

func TestPieceOverflow(t *testing.T) {
	var ws []Weight
	var bones []string
	for i := 0; i <= MaxBonesPerPiece; i++ {
		name := fmt.Sprintf("b%02d", i)
		bones = append(bones, name)
		ws = append(ws, w(name, 1))
	}
	m := Mesh{
		Material:  "m",
		Vertices:  []Vertex{weighted(0, 0, ws...), weighted(1, 0, ws[0]), weighted(0, 1, ws[0])},
		Triangles: []tristrip.Triangle{{0, 1, 2}},
	}
	_, err := Partition(m, bones, Options{}, nil)
	assert.ErrorIs(t, err, diag.ErrPieceOverflow)

	m2 := Mesh{
		Material: "m",
		Vertices: []Vertex{
			weighted(0, 0, w("a", 1)), weighted(1, 0, w("a", 1)), weighted(0, 1, w("a", 1)),
			weighted(2, 0, w("b", 1)), weighted(3, 0, w("b", 1)), weighted(2, 1, w("b", 1)),
		},
		Triangles: []tristrip.Triangle{{0, 1, 2}, {3, 4, 5}},
	}
	_, err = Partition(m2, []string{"a", "b"}, Options{MaxBones: 1, MaxPieces: 1}, nil)
	assert.ErrorIs(t, err, diag.ErrPieceOverflow)
}

func canon(tris []tristrip.Triangle) []tristrip.Triangle {
	out := make([]tristrip.Triangle, len(tris))
	for i, t := range tris {
		for t[0] > t[1] || t[0] > t[2] {
			t = tristrip.Triangle{t[1], t[2], t[0]}
		}
		out[i] = t
	}
	sort.Slice(out, func(i, j int) bool {
		for k := 0; k < 3; k++ {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

func TestLongStripIsSplit(t *testing.T) {
	// a ribbon of 20 vertices, 18 triangles
	var m Mesh
	m.Material = "ribbon"
	for i := 0; i < 20; i++ {
		m.Vertices = append(m.Vertices, weighted(float32(i/2), float32(i%2), w("a", 1)))
	}
	want, err := tristrip.Triangulate([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19})
	require.NoError(t, err)
	m.Triangles = want

	out, err := Partition(m, []string{"a"}, Options{PieceLen: 4}, nil)
	require.NoError(t, err)
	require.Greater(t, len(out.Pieces), 1)
	for _, p := range out.Pieces {
		assert.LessOrEqual(t, len(p.Strip), 4+Overlap)
		assert.Equal(t, []uint32{0}, p.Palette)
	}
	got, err := out.Triangles()
	require.NoError(t, err)
	assert.Equal(t, canon(want), canon(got))
}

func TestSplitOverlap(t *testing.T) {
	strip := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	segs := split(strip, 4)
	assert.Equal(t, [][]int{{0, 1, 2, 3, 4, 5}, {4, 5, 6, 7, 8}}, segs)
	assert.Equal(t, [][]int{{0, 1, 2, 3, 4, 5}}, split(strip[:6], 4))
}

func TestDedupMergesIdenticalVertices(t *testing.T) {
	m := quad("a")
	// vertex 4 duplicates vertex 1
	m.Vertices = append(m.Vertices, m.Vertices[1])
	m.Triangles = []tristrip.Triangle{{0, 1, 2}, {2, 4, 3}}
	out, err := Partition(m, []string{"a"}, Options{}, nil)
	require.NoError(t, err)
	assert.Len(t, out.Pieces[0].Vertices, 4)
}

func TestCollapsedTrianglesAreEmptyMesh(t *testing.T) {
	// three records that merge into one vertex
	m := Mesh{
		Name:      "sliver",
		Material:  "skin",
		Vertices:  []Vertex{weighted(0, 0, w("a", 1)), weighted(0, 0, w("a", 1)), weighted(0, 0, w("a", 1))},
		Triangles: []tristrip.Triangle{{0, 1, 2}},
	}
	var err error
	require.NotPanics(t, func() {
		_, err = Partition(m, []string{"a"}, Options{}, nil)
	})
	assert.ErrorIs(t, err, diag.ErrEmptyMesh)
}

func TestMissingMaterialAndEmptyMesh(t *testing.T) {
	m := quad("a")
	m.Material = ""
	col := diag.NewCollector(nil)
	out, err := Partition(m, []string{"a"}, Options{}, col)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaterial, out.Material)
	assert.True(t, col.Has(diag.ErrMissingMaterial))

	empty := Mesh{Material: "m", Vertices: m.Vertices, Triangles: []tristrip.Triangle{{0, 0, 1}}}
	_, err = Partition(empty, []string{"a"}, Options{}, nil)
	assert.ErrorIs(t, err, diag.ErrEmptyMesh)
}

func TestPartitionInvariants(t *testing.T) {
	// a grid whose columns use different bones
	const n = 12
	var m Mesh
	m.Material = "grid"
	var bones []string
	for i := 0; i < 40; i++ {
		bones = append(bones, fmt.Sprintf("b%02d", i))
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Vertices = append(m.Vertices, weighted(float32(x), float32(y), w(bones[(x*3+y)%40], 0.7), w(bones[(x*7)%40], 0.3)))
		}
	}
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			i := y*n + x
			m.Triangles = append(m.Triangles, tristrip.Triangle{i, i + 1, i + n}, tristrip.Triangle{i + 1, i + n + 1, i + n})
		}
	}
	out, err := Partition(m, bones, Options{PieceLen: 50}, nil)
	require.NoError(t, err)
	for _, p := range out.Pieces {
		assert.LessOrEqual(t, len(p.Palette), MaxBonesPerPiece)
		assert.LessOrEqual(t, len(p.Strip), 50+Overlap)
	}
	tris, err := out.Triangles()
	require.NoError(t, err)
	assert.Len(t, tris, len(m.Triangles))
	assertWeightsResolve(t, out)
}

func assertWeightsResolve(t *testing.T, m tmd.Mesh) {
	t.Helper()
	infl, err := m.Influences()
	require.NoError(t, err)
	for i, in := range infl {
		assert.NotEmpty(t, in, "vertex %d", i)
	}
}
