package tmd

import (
	"fmt"

	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/skeleton"
	"jpog-tmd/internal/tristrip"
)

// VertexBuffer returns the vertices of all pieces in order. Strip indices
// of every piece refer to this buffer.
func (m Mesh) VertexBuffer() []Vertex {
	var out []Vertex
	for _, p := range m.Pieces {
		out = append(out, p.Vertices...)
	}
	return out
}

// Triangles expands every piece strip into triangles.
func (m Mesh) Triangles() ([]tristrip.Triangle, error) {
	var out []tristrip.Triangle
	for pi, p := range m.Pieces {
		strip := make([]int, len(p.Strip))
		for i, v := range p.Strip {
			strip[i] = int(v)
		}
		tris, err := tristrip.Triangulate(strip)
		if err != nil {
			return nil, diag.Wrap(diag.ErrMalformedContainer, fmt.Sprintf("tmd: mesh %q piece %d", m.Material, pi), err)
		}
		out = append(out, tris...)
	}
	return out, nil
}

// Influences resolves the bone weights of every vertex of the mesh buffer.
// A vertex is resolved through the palette of the first piece whose strip
// uses it; weights are scaled back to [0, 1]. Vertices no strip uses get no
// influences.
func (m Mesh) Influences() ([][]skeleton.Influence, error) {
	verts := m.VertexBuffer()
	out := make([][]skeleton.Influence, len(verts))
	seen := make([]bool, len(verts))
	for pi, p := range m.Pieces {
		for _, idx := range p.Strip {
			i := int(idx)
			if i < 0 || i >= len(verts) {
				return nil, diag.New(diag.ErrMalformedContainer, fmt.Sprintf("tmd: mesh %q piece %d", m.Material, pi),
					"strip index %d outside %d vertices", i, len(verts))
			}
			if seen[i] {
				continue
			}
			seen[i] = true
			v := verts[i]
			for k, w := range v.Weights {
				if w == 0 {
					continue
				}
				slot := int(v.Slots[k]) / 3
				if slot >= len(p.Palette) {
					return nil, diag.New(diag.ErrMalformedContainer, fmt.Sprintf("tmd: mesh %q piece %d", m.Material, pi),
						"vertex %d uses slot %d of a %d-bone palette", i, slot, len(p.Palette))
				}
				out[i] = append(out[i], skeleton.Influence{Bone: int(p.Palette[slot]), Weight: float32(w) / 255})
			}
		}
	}
	return out, nil
}
