package tmd

import (
	"fmt"

	"jpog-tmd/internal/binio"
	"jpog-tmd/internal/diag"
)

const (
	// MaterialSize is the width of the material name field.
	MaterialSize = 32
	// VertexSize is the size of one vertex record.
	VertexSize = 40

	lodHeaderSize   = 24
	meshHeaderSize  = 12 + MaterialSize
	pieceHeaderSize = 40
)

// HintScales are the fractions of the bounding distance stored as the four
// per-LOD hints.
var HintScales = [4]float32{0.05, -0.02, 0.1, 0.9}

// Hints returns the per-LOD hint floats for a bounding distance.
func Hints(bounding float32) [4]float32 {
	var h [4]float32
	for i, s := range HintScales {
		h[i] = s * bounding
	}
	return h
}

// Vertex is one 40-byte vertex record. Slots hold palette index × 3. UV is
// in natural orientation; the file stores V negated.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Weights  [4]uint8
	Slots    [4]uint8
	UV       [2]float32
}

// Piece is a run of triangle strip sharing one bone palette. Only the first
// piece of a mesh carries vertices; the strip indexes the whole mesh buffer.
type Piece struct {
	Palette  []uint32
	Vertices []Vertex
	Strip    []int16
	Center   [3]float32
	Extent   [3]float32
}

// MaxIndex is the largest strip index, as written to the piece header.
func (p Piece) MaxIndex() uint32 {
	var m int16
	for _, i := range p.Strip {
		if i > m {
			m = i
		}
	}
	return uint32(m)
}

// Mesh is one material's geometry within a LOD.
type Mesh struct {
	Material string
	Pieces   []Piece
}

// LOD is one detail level.
type LOD struct {
	Reserved float32
	Hints    [4]float32
	Meshes   []Mesh
}

func decodeLODs(r *binio.Reader, bones int, col *diag.Collector) ([]LOD, float32, error) {
	count := int(r.U32())
	bounding := r.F32()
	if err := r.Err(); err != nil {
		return nil, 0, err
	}
	if count > (r.Len()-r.Offset())/lodHeaderSize {
		return nil, 0, fmt.Errorf("%d lods in %d bytes: %w", count, r.Len()-r.Offset(), binio.ErrTruncated)
	}
	lods := make([]LOD, 0, count)
	for li := 0; li < count; li++ {
		var lod LOD
		nmeshes := int(r.U32())
		lod.Reserved = r.F32()
		for i := range lod.Hints {
			lod.Hints[i] = r.F32()
		}
		if err := r.Err(); err != nil {
			return nil, 0, fmt.Errorf("lod %d: %w", li, err)
		}
		for mi := 0; mi < nmeshes; mi++ {
			m, err := decodeMesh(r, bones, fmt.Sprintf("tmd: lod %d mesh %d", li, mi), col)
			if err != nil {
				return nil, 0, fmt.Errorf("lod %d mesh %d: %w", li, mi, err)
			}
			lod.Meshes = append(lod.Meshes, m)
		}
		lods = append(lods, lod)
	}
	return lods, bounding, nil
}

func decodeMesh(r *binio.Reader, bones int, op string, col *diag.Collector) (Mesh, error) {
	npieces := int(r.U32())
	stripTotal := int(r.U32())
	vertTotal := int(r.U32())
	m := Mesh{Material: r.Name(MaterialSize)}
	if err := r.Err(); err != nil {
		return Mesh{}, err
	}

	strips, verts := 0, 0
	for pi := 0; pi < npieces; pi++ {
		nstrip := int(r.U32())
		nverts := int(r.U32())
		npal := int(r.U32())
		stored := r.U32()
		var p Piece
		copy(p.Center[:], r.F32s(3))
		copy(p.Extent[:], r.F32s(3))
		if err := r.Err(); err != nil {
			return Mesh{}, fmt.Errorf("piece %d: %w", pi, err)
		}
		if r.Offset()+4*npal+VertexSize*nverts+2*nstrip > r.Len() {
			return Mesh{}, fmt.Errorf("piece %d: %d palette entries, %d vertices and %d strip indices: %w",
				pi, npal, nverts, nstrip, binio.ErrTruncated)
		}
		p.Palette = make([]uint32, npal)
		for i := range p.Palette {
			p.Palette[i] = r.U32()
			if int(p.Palette[i]) >= bones {
				col.Reportf(diag.ErrMalformedContainer, op, "piece %d palette entry %d names bone %d of %d", pi, i, p.Palette[i], bones)
			}
		}
		if nverts > 0 {
			p.Vertices = make([]Vertex, nverts)
		}
		for i := range p.Vertices {
			p.Vertices[i] = readVertex(r)
		}
		if nstrip > 0 {
			p.Strip = make([]int16, nstrip)
		}
		for i := range p.Strip {
			p.Strip[i] = r.I16()
		}
		if err := r.Err(); err != nil {
			return Mesh{}, fmt.Errorf("piece %d: %w", pi, err)
		}
		if stored != p.MaxIndex() {
			col.Logf("%s: piece %d declares max index %d, strip has %d\n", op, pi, stored, p.MaxIndex())
		}
		strips += nstrip
		verts += nverts
		m.Pieces = append(m.Pieces, p)
	}
	if strips != stripTotal || verts != vertTotal {
		col.Reportf(diag.ErrMalformedContainer, op, "declares %d strip indices and %d vertices, pieces hold %d and %d",
			stripTotal, vertTotal, strips, verts)
	}
	return m, nil
}

func readVertex(r *binio.Reader) Vertex {
	var v Vertex
	copy(v.Position[:], r.F32s(3))
	copy(v.Normal[:], r.F32s(3))
	copy(v.Weights[:], r.Bytes(4))
	copy(v.Slots[:], r.Bytes(4))
	v.UV[0] = r.F32()
	v.UV[1] = -r.F32()
	return v
}

func lodSize(lods []LOD) int {
	n := 8
	for _, lod := range lods {
		n += lodHeaderSize
		for _, m := range lod.Meshes {
			n += meshHeaderSize
			for _, p := range m.Pieces {
				n += pieceHeaderSize + 4*len(p.Palette) + VertexSize*len(p.Vertices) + 2*len(p.Strip)
			}
		}
	}
	return n
}

func encodeLODs(lods []LOD, bounding float32) []byte {
	w := binio.NewWriter(lodSize(lods))
	w.U32(uint32(len(lods)))
	w.F32(bounding)
	for _, lod := range lods {
		w.U32(uint32(len(lod.Meshes)))
		w.F32(lod.Reserved)
		w.F32s(lod.Hints[:]...)
		for _, m := range lod.Meshes {
			strips, verts := 0, 0
			for _, p := range m.Pieces {
				strips += len(p.Strip)
				verts += len(p.Vertices)
			}
			w.U32(uint32(len(m.Pieces)))
			w.U32(uint32(strips))
			w.U32(uint32(verts))
			w.Name(m.Material, MaterialSize)
			for _, p := range m.Pieces {
				w.U32(uint32(len(p.Strip)))
				w.U32(uint32(len(p.Vertices)))
				w.U32(uint32(len(p.Palette)))
				w.U32(p.MaxIndex())
				w.F32s(p.Center[:]...)
				w.F32s(p.Extent[:]...)
				for _, b := range p.Palette {
					w.U32(b)
				}
				for _, v := range p.Vertices {
					writeVertex(w, v)
				}
				for _, i := range p.Strip {
					w.I16(i)
				}
			}
		}
	}
	return w.Data()
}

func writeVertex(w *binio.Writer, v Vertex) {
	w.F32s(v.Position[:]...)
	w.F32s(v.Normal[:]...)
	w.Bytes(v.Weights[:])
	w.Bytes(v.Slots[:])
	w.F32(v.UV[0])
	w.F32(-v.UV[1])
}
