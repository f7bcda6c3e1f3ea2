// Package partition splits a host mesh into TMD pieces: triangles are
// bucketed so no piece needs more than MaxBones bones, each bucket becomes
// one triangle strip, and long strips are cut into PieceLen runs.
package partition

import (
	"fmt"
	"sort"

	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/tmd"
	"jpog-tmd/internal/tristrip"
)

const (
	MaxBonesPerPiece = 27
	PieceLen         = 7500
	// Overlap is the number of indices a split strip repeats from the
	// previous run.
	Overlap          = 2
	DefaultMaxPieces = 10
	// MaxVertices is the largest buffer the signed 16-bit strip can index.
	MaxVertices = 1 << 15

	// DefaultMaterial names meshes that have none.
	DefaultMaterial = "none"
)

// Weight is one vertex group entry.
type Weight struct {
	Bone   string
	Weight float32
}

// Vertex is a host vertex. Weights keep the host's group order.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
	Weights  []Weight
}

// Mesh is one host mesh.
type Mesh struct {
	Name      string
	Material  string
	Vertices  []Vertex
	Triangles []tristrip.Triangle
}

// Options bounds the partition. Zero fields take the defaults.
type Options struct {
	MaxPieces int
	MaxBones  int
	PieceLen  int
}

func (o Options) withDefaults() Options {
	if o.MaxPieces <= 0 {
		o.MaxPieces = DefaultMaxPieces
	}
	if o.MaxBones <= 0 {
		o.MaxBones = MaxBonesPerPiece
	}
	if o.PieceLen <= 0 {
		o.PieceLen = PieceLen
	}
	return o
}

type bucket struct {
	palette []string
	index   map[string]int
	tris    []tristrip.Triangle
}

func (b *bucket) missing(names []string) int {
	n := 0
	for _, name := range names {
		if _, ok := b.index[name]; !ok {
			n++
		}
	}
	return n
}

func (b *bucket) add(names []string, t tristrip.Triangle) {
	for _, name := range names {
		if _, ok := b.index[name]; !ok {
			b.index[name] = len(b.palette)
			b.palette = append(b.palette, name)
		}
	}
	b.tris = append(b.tris, t)
}

// Partition builds the TMD mesh for m. bones is the skeleton order; weights
// naming other bones are ignored. A mesh without material is written as
// DefaultMaterial and reported to col.
func Partition(m Mesh, bones []string, opts Options, col *diag.Collector) (tmd.Mesh, error) {
	opts = opts.withDefaults()
	op := fmt.Sprintf("partition: mesh %q", m.Name)

	boneIndex := make(map[string]int, len(bones))
	for i, b := range bones {
		if _, dup := boneIndex[b]; !dup {
			boneIndex[b] = i
		}
	}

	material := m.Material
	if material == "" {
		material = DefaultMaterial
		col.Reportf(diag.ErrMissingMaterial, op, "written as %q", DefaultMaterial)
	}

	var buckets []*bucket
	faces := 0
	for ti, t := range m.Triangles {
		if t.Degenerate() {
			continue
		}
		for _, i := range t {
			if i < 0 || i >= len(m.Vertices) {
				return tmd.Mesh{}, diag.New(diag.ErrMalformedContainer, op, "triangle %d uses vertex %d of %d", ti, i, len(m.Vertices))
			}
		}
		faces++
		names := triangleBones(m, t, boneIndex)
		if len(names) > opts.MaxBones {
			return tmd.Mesh{}, diag.New(diag.ErrPieceOverflow, op, "triangle %d uses %d bones, a piece holds %d", ti, len(names), opts.MaxBones)
		}
		placed := false
		for _, b := range buckets {
			if len(b.palette)+b.missing(names) <= opts.MaxBones {
				b.add(names, t)
				placed = true
				break
			}
		}
		if !placed {
			if len(buckets) == opts.MaxPieces {
				return tmd.Mesh{}, diag.New(diag.ErrPieceOverflow, op, "triangle %d fits none of %d pieces", ti, opts.MaxPieces)
			}
			b := &bucket{index: make(map[string]int)}
			b.add(names, t)
			buckets = append(buckets, b)
		}
	}
	if faces == 0 {
		return tmd.Mesh{}, diag.New(diag.ErrEmptyMesh, op, "%d triangles, none usable", len(m.Triangles))
	}

	out := tmd.Mesh{Material: material}
	var buffer []tmd.Vertex
	seen := make(map[tmd.Vertex]int)
	for _, b := range buckets {
		tris := make([]tristrip.Triangle, len(b.tris))
		for ti, t := range b.tris {
			for c, vi := range t {
				rec, err := record(m.Vertices[vi], b, boneIndex)
				if err != nil {
					return tmd.Mesh{}, diag.Wrap(diag.ErrUnweightedVertex, op, fmt.Errorf("vertex %d: %w", vi, err))
				}
				idx, ok := seen[rec]
				if !ok {
					idx = len(buffer)
					seen[rec] = idx
					buffer = append(buffer, rec)
				}
				tris[ti][c] = idx
			}
		}
		if len(buffer) > MaxVertices {
			return tmd.Mesh{}, diag.New(diag.ErrPieceOverflow, op, "%d vertices exceed the %d a strip can index", len(buffer), MaxVertices)
		}

		palette := make([]uint32, len(b.palette))
		for i, name := range b.palette {
			palette[i] = uint32(boneIndex[name])
		}
		strip := tristrip.Stitch(tristrip.Stripify(tris))
		for _, seg := range split(strip, opts.PieceLen) {
			p := tmd.Piece{Palette: palette, Strip: make([]int16, len(seg))}
			for i, v := range seg {
				p.Strip[i] = int16(v)
			}
			out.Pieces = append(out.Pieces, p)
		}
	}

	if len(out.Pieces) == 0 {
		return tmd.Mesh{}, diag.New(diag.ErrEmptyMesh, op, "every triangle collapsed when identical vertices were merged")
	}

	points := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		points[i] = v.Position
	}
	center, extent := mathutil.CenterExtent(mathutil.Bounds(points))
	for i := range out.Pieces {
		out.Pieces[i].Center = center
		out.Pieces[i].Extent = extent
	}
	out.Pieces[0].Vertices = buffer
	return out, nil
}

// triangleBones lists the known bones with positive weight on t's vertices,
// in first-seen order.
func triangleBones(m Mesh, t tristrip.Triangle, known map[string]int) []string {
	var names []string
	for _, vi := range t {
		for _, w := range m.Vertices[vi].Weights {
			if w.Weight <= 0 {
				continue
			}
			if _, ok := known[w.Bone]; !ok {
				continue
			}
			dup := false
			for _, n := range names {
				if n == w.Bone {
					dup = true
					break
				}
			}
			if !dup {
				names = append(names, w.Bone)
			}
		}
	}
	return names
}

type slotWeight struct {
	slot   uint8
	weight float32
}

// record quantizes v against the bucket palette: the four heaviest weights,
// renormalized to 255, slots as palette index × 3.
func record(v Vertex, b *bucket, known map[string]int) (tmd.Vertex, error) {
	var ws []slotWeight
	for _, w := range v.Weights {
		if w.Weight <= 0 {
			continue
		}
		if _, ok := known[w.Bone]; !ok {
			continue
		}
		ws = append(ws, slotWeight{slot: uint8(b.index[w.Bone] * 3), weight: w.Weight})
	}
	if len(ws) == 0 {
		return tmd.Vertex{}, diag.New(diag.ErrUnweightedVertex, "partition: weights", "no positive weight on a known bone")
	}
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].weight > ws[j].weight })
	if len(ws) > 4 {
		ws = ws[:4]
	}
	var sum float64
	for _, w := range ws {
		sum += float64(w.weight)
	}

	rec := tmd.Vertex{Position: v.Position, Normal: v.Normal, UV: v.UV}
	for i, w := range ws {
		rec.Slots[i] = w.slot
		rec.Weights[i] = uint8(int(float64(w.weight) / sum * 255))
	}
	return rec, nil
}

// split cuts strip into runs of pieceLen indices plus the overlap. Runs
// that hold no real triangle are dropped.
func split(strip []int, pieceLen int) [][]int {
	var out [][]int
	for n := 0; n == 0 || n+Overlap < len(strip); n += pieceLen {
		end := n + pieceLen + Overlap
		if end > len(strip) {
			end = len(strip)
		}
		seg := strip[n:end]
		if hasTriangle(seg) {
			out = append(out, seg)
		}
	}
	return out
}

func hasTriangle(seg []int) bool {
	for k := 0; k+2 < len(seg); k++ {
		if (tristrip.Triangle{seg[k], seg[k+1], seg[k+2]}).Degenerate() {
			continue
		}
		return true
	}
	return false
}
