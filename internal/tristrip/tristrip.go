// Package tristrip converts between indexed triangle lists and triangle
// strips with alternating winding.
package tristrip

import "jpog-tmd/internal/diag"

const op = "tristrip: triangulate"

// Triangle is three vertex indices in winding order.
type Triangle [3]int

// Degenerate reports whether t repeats an index.
func (t Triangle) Degenerate() bool {
	return t[0] == t[1] || t[1] == t[2] || t[0] == t[2]
}

// Triangulate expands a strip into triangles. Triangle k is (s[k], s[k+1],
// s[k+2]) for even k and (s[k], s[k+2], s[k+1]) for odd k; triangles that
// repeat an index are stitching artifacts and are skipped.
func Triangulate(strip []int) ([]Triangle, error) {
	if len(strip) < 3 {
		return nil, diag.New(diag.ErrMalformedContainer, op, "strip of %d indices has no triangles", len(strip))
	}
	tris := make([]Triangle, 0, len(strip)-2)
	for k := 0; k+2 < len(strip); k++ {
		a, b, c := strip[k], strip[k+1], strip[k+2]
		if a < 0 || b < 0 || c < 0 {
			return nil, diag.New(diag.ErrMalformedContainer, op, "negative index at strip position %d", k)
		}
		t := Triangle{a, b, c}
		if k%2 == 1 {
			t = Triangle{a, c, b}
		}
		if t.Degenerate() {
			continue
		}
		tris = append(tris, t)
	}
	if len(tris) == 0 {
		return nil, diag.New(diag.ErrMalformedContainer, op, "strip of %d indices has only degenerate triangles", len(strip))
	}
	return tris, nil
}

// TriangulateAll expands several strips into one triangle list.
func TriangulateAll(strips [][]int) ([]Triangle, error) {
	var out []Triangle
	for _, s := range strips {
		tris, err := Triangulate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, tris...)
	}
	return out, nil
}

// Stitch joins strips into one, inserting degenerate triangles so that each
// following strip starts at an even position and keeps its winding.
func Stitch(strips [][]int) []int {
	var out []int
	for _, s := range strips {
		if len(s) == 0 {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if len(out)%2 == 0 {
				out = append(out, last, s[0])
			} else {
				out = append(out, last, last, s[0])
			}
		}
		out = append(out, s...)
	}
	return out
}

type edge struct{ a, b int }

func undirected(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// directed reports whether u is immediately followed by v in t's cyclic order.
func directed(t Triangle, u, v int) bool {
	for i := 0; i < 3; i++ {
		if t[i] == u && t[(i+1)%3] == v {
			return true
		}
	}
	return false
}

func third(t Triangle, u, v int) int {
	for _, x := range t {
		if x != u && x != v {
			return x
		}
	}
	return -1
}

type stripper struct {
	tris  []Triangle
	edges map[edge][]int
	used  []bool
}

// Stripify covers tris with strips. Degenerate input triangles are dropped.
// Seeds are taken in input order; each seed is grown in all three rotations
// and the longest strip wins, the earliest rotation on ties.
func Stripify(tris []Triangle) [][]int {
	s := &stripper{
		tris:  tris,
		edges: make(map[edge][]int),
		used:  make([]bool, len(tris)),
	}
	for i, t := range tris {
		if t.Degenerate() {
			s.used[i] = true
			continue
		}
		for j := 0; j < 3; j++ {
			e := undirected(t[j], t[(j+1)%3])
			s.edges[e] = append(s.edges[e], i)
		}
	}

	var strips [][]int
	for seed := range tris {
		if s.used[seed] {
			continue
		}
		var best []int
		var bestTris []int
		for rot := 0; rot < 3; rot++ {
			strip, members := s.grow(seed, rot)
			if len(strip) > len(best) {
				best, bestTris = strip, members
			}
		}
		for _, id := range bestTris {
			s.used[id] = true
		}
		strips = append(strips, best)
	}
	return strips
}

func (s *stripper) grow(seed, rot int) ([]int, []int) {
	t := s.tris[seed]
	strip := []int{t[rot], t[(rot+1)%3], t[(rot+2)%3]}
	members := []int{seed}
	taken := map[int]bool{seed: true}

	for {
		n := len(strip)
		u, v := strip[n-2], strip[n-1]
		k := n - 2
		next := -1
		for _, id := range s.edges[undirected(u, v)] {
			if s.used[id] || taken[id] {
				continue
			}
			cand := s.tris[id]
			if k%2 == 0 && directed(cand, u, v) || k%2 == 1 && directed(cand, v, u) {
				next = id
				break
			}
		}
		if next < 0 {
			return strip, members
		}
		taken[next] = true
		members = append(members, next)
		strip = append(strip, third(s.tris[next], u, v))
	}
}
