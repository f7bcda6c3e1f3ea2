// Package keypool holds the deduplicated location and rotation pools that
// animation keys index into, and reads and writes them as TKL files.
package keypool

import (
	"jpog-tmd/internal/diag"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxEntries is the number of entries a u16 key index can address.
const MaxEntries = 1 << 16

// Pool is an append-only pair of key pools. Index assignment follows
// insertion order, so a pool is owned by one encode at a time.
type Pool struct {
	Header    Header
	Locations []mgl32.Vec3
	Rotations []mgl32.Quat
}

// New returns an empty pool with the default TKL header.
func New() *Pool {
	return &Pool{Header: DefaultHeader()}
}

// InternLocation returns the index of v, appending it if no entry is
// exactly equal.
func (p *Pool) InternLocation(v mgl32.Vec3) (uint16, error) {
	for i, l := range p.Locations {
		if l == v {
			return uint16(i), nil
		}
	}
	if len(p.Locations) >= MaxEntries {
		return 0, diag.New(diag.ErrKeyPoolOverflow, "keypool: intern location", "pool already holds %d entries", len(p.Locations))
	}
	p.Locations = append(p.Locations, v)
	return uint16(len(p.Locations) - 1), nil
}

// InternRotation returns the index of q, appending it if no entry is
// exactly equal. q and -q are distinct entries.
func (p *Pool) InternRotation(q mgl32.Quat) (uint16, error) {
	for i, r := range p.Rotations {
		if r == q {
			return uint16(i), nil
		}
	}
	if len(p.Rotations) >= MaxEntries {
		return 0, diag.New(diag.ErrKeyPoolOverflow, "keypool: intern rotation", "pool already holds %d entries", len(p.Rotations))
	}
	p.Rotations = append(p.Rotations, q)
	return uint16(len(p.Rotations) - 1), nil
}

// Location looks up a location index.
func (p *Pool) Location(i uint16) (mgl32.Vec3, error) {
	if int(i) >= len(p.Locations) {
		return mgl32.Vec3{}, diag.New(diag.ErrMalformedContainer, "keypool: location", "index %d out of %d", i, len(p.Locations))
	}
	return p.Locations[i], nil
}

// Rotation looks up a rotation index.
func (p *Pool) Rotation(i uint16) (mgl32.Quat, error) {
	if int(i) >= len(p.Rotations) {
		return mgl32.QuatIdent(), diag.New(diag.ErrMalformedContainer, "keypool: rotation", "index %d out of %d", i, len(p.Rotations))
	}
	return p.Rotations[i], nil
}

// PadTo grows the pools to at least nLoc and nRot entries with copies of
// their first entry, so a test build can stand in for a larger shipped TKL.
func (p *Pool) PadTo(nLoc, nRot int) {
	if len(p.Locations) < nLoc {
		var fill mgl32.Vec3
		if len(p.Locations) > 0 {
			fill = p.Locations[0]
		}
		for len(p.Locations) < nLoc {
			p.Locations = append(p.Locations, fill)
		}
	}
	if len(p.Rotations) < nRot {
		fill := mgl32.QuatIdent()
		if len(p.Rotations) > 0 {
			fill = p.Rotations[0]
		}
		for len(p.Rotations) < nRot {
			p.Rotations = append(p.Rotations, fill)
		}
	}
}

// Clone returns a deep copy of p.
func (p *Pool) Clone() *Pool {
	return &Pool{
		Header:    p.Header,
		Locations: append([]mgl32.Vec3(nil), p.Locations...),
		Rotations: append([]mgl32.Quat(nil), p.Rotations...),
	}
}
