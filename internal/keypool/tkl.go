package keypool

import (
	"fmt"

	"jpog-tmd/internal/binio"
	"jpog-tmd/internal/diag"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Magic opens every TKL file.
	Magic = "TPKL"
	// HeaderSize is the offset of the first location.
	HeaderSize = 56
	// NameSize is the width of the reference name field.
	NameSize = 6

	locationSize = 12
	rotationSize = 16
	// bytes counted by the remaining field besides the data
	remainingBase = HeaderSize - 12
)

// Header carries the TKL header fields that are not derived from the pools.
type Header struct {
	Lead   [4]byte
	Name   string
	Tail   [10]byte
	Opaque [4]uint32

	// SwappedSizes records a file whose data size was computed as
	// 16·locations + 12·rotations. Such files exist in the wild and are
	// re-written with the same rule.
	SwappedSizes bool

	loaded    bool
	loadedLoc int
	loadedRot int
	remaining uint32
	dataSize  uint32
}

// DefaultHeader returns the header bytes of a freshly written TKL.
func DefaultHeader() Header {
	return Header{
		Tail:   [10]byte{54, 0, 160, 152, 54, 0, 212, 254, 18, 0},
		Opaque: [4]uint32{0, 12, 16, 4},
	}
}

func dataSize(nLoc, nRot int, swapped bool) uint32 {
	if swapped {
		return uint32(nLoc*rotationSize + nRot*locationSize)
	}
	return uint32(nLoc*locationSize + nRot*rotationSize)
}

// Load parses a TKL file.
func Load(data []byte) (*Pool, error) {
	const op = "keypool: load"
	r := binio.NewReader(data)
	magic := string(r.Bytes(4))
	if r.Err() == nil && magic != Magic {
		return nil, diag.New(diag.ErrMalformedContainer, op, "bad magic %q", magic)
	}

	var h Header
	copy(h.Lead[:], r.Bytes(4))
	h.remaining = r.U32()
	h.Name = r.Name(NameSize)
	copy(h.Tail[:], r.Bytes(10))
	nLoc := int(r.U32())
	nRot := int(r.U32())
	for i := range h.Opaque {
		h.Opaque[i] = r.U32()
	}
	h.dataSize = r.U32()
	if err := r.Err(); err != nil {
		return nil, diag.Wrap(diag.ErrMalformedContainer, op+" header", err)
	}
	if nLoc > MaxEntries || nRot > MaxEntries {
		return nil, diag.New(diag.ErrMalformedContainer, op, "pool counts %d/%d exceed %d", nLoc, nRot, MaxEntries)
	}
	need := HeaderSize + nLoc*locationSize + nRot*rotationSize
	if need > len(data) {
		return nil, diag.New(diag.ErrMalformedContainer, op, "%d locations and %d rotations need %d bytes, have %d", nLoc, nRot, need, len(data))
	}
	h.SwappedSizes = h.dataSize != dataSize(nLoc, nRot, false) && h.dataSize == dataSize(nLoc, nRot, true)
	h.loaded = true
	h.loadedLoc, h.loadedRot = nLoc, nRot

	p := &Pool{
		Header:    h,
		Locations: make([]mgl32.Vec3, nLoc),
		Rotations: make([]mgl32.Quat, nRot),
	}
	for i := range p.Locations {
		p.Locations[i] = mgl32.Vec3{r.F32(), r.F32(), r.F32()}
	}
	for i := range p.Rotations {
		x, y, z, w := r.F32(), r.F32(), r.F32(), r.F32()
		p.Rotations[i] = mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
	}
	if err := r.Err(); err != nil {
		return nil, diag.Wrap(diag.ErrMalformedContainer, op+" data", err)
	}
	return p, nil
}

// Serialize writes the pool as a TKL file. ref names the file inside its
// header; an empty ref keeps the loaded name. A pool whose counts are
// unchanged since Load echoes the declared size fields as they were.
func (p *Pool) Serialize(ref string) []byte {
	h := p.Header
	if ref == "" {
		ref = h.Name
	}
	nLoc, nRot := len(p.Locations), len(p.Rotations)

	size := dataSize(nLoc, nRot, h.SwappedSizes)
	remaining := size + remainingBase
	if h.loaded && h.loadedLoc == nLoc && h.loadedRot == nRot {
		size, remaining = h.dataSize, h.remaining
	}

	w := binio.NewWriter(HeaderSize + nLoc*locationSize + nRot*rotationSize)
	w.Bytes([]byte(Magic))
	w.Bytes(h.Lead[:])
	w.U32(remaining)
	w.Name(ref, NameSize)
	w.Bytes(h.Tail[:])
	w.U32(uint32(nLoc))
	w.U32(uint32(nRot))
	for _, v := range h.Opaque {
		w.U32(v)
	}
	w.U32(size)
	for _, l := range p.Locations {
		w.F32s(l[0], l[1], l[2])
	}
	for _, q := range p.Rotations {
		w.F32s(q.V[0], q.V[1], q.V[2], q.W)
	}
	return w.Data()
}

// String summarizes the pool for inspection output.
func (p *Pool) String() string {
	return fmt.Sprintf("TKL %q: %d locations, %d rotations", p.Header.Name, len(p.Locations), len(p.Rotations))
}
