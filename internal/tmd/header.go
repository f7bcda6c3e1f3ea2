// Package tmd reads and writes TMD model files: the header with its salted
// offsets, the bone table, the animation block and the LOD/mesh block.
package tmd

import (
	"jpog-tmd/internal/binio"
	"jpog-tmd/internal/salt"
)

const (
	// Magic opens every TMD file.
	Magic = "TMDL"
	// RefSize is the width of the TKL reference field.
	RefSize = 8
	// HeaderSize is the header of the canonical layout: two pointers.
	HeaderSize = 124
	// AuxHeaderSize is the header of the layout with an auxiliary node
	// table: three pointers.
	AuxHeaderSize = 128

	pointerBlock = 116
)

// Header holds the header fields that are not derived from the body. Sizes,
// counts and offsets are recomputed on every encode.
type Header struct {
	Pad       [4]byte
	TKLRef    string
	Magic1    uint32
	Magic2    uint32
	Salt      salt.Salt
	Opaque1   uint32
	Opaque2   uint32
	Reserved1 [4]uint32
	Opaque3   uint16
	Opaque4   uint16
	Reserved2 [11]uint32
}

// layout is the derived part of the header.
type layout struct {
	remaining uint32
	lodOffset int
	lodRepeat int
	bones     int
	anims     int
	aux       int
	nodes     int
	animPtr   int
	hasAux    bool
}

func readHeader(r *binio.Reader) (Header, layout) {
	var h Header
	var l layout
	r.Seek(len(Magic))
	copy(h.Pad[:], r.Bytes(4))
	l.remaining = r.U32()
	h.TKLRef = r.Name(RefSize)
	h.Magic1 = r.U32()
	h.Magic2 = r.U32()
	l.lodOffset = salt.Unbase(r.U32())
	h.Salt = salt.Salt(r.U32())
	h.Opaque1 = r.U32()
	h.Opaque2 = r.U32()
	for i := range h.Reserved1 {
		h.Reserved1[i] = r.U32()
	}
	l.lodRepeat = salt.Unbase(r.U32())
	l.bones = int(r.U16())
	h.Opaque3 = r.U16()
	l.anims = int(r.U16())
	h.Opaque4 = r.U16()
	for i := range h.Reserved2 {
		h.Reserved2[i] = r.U32()
	}

	first := h.Salt.Reveal(r.U32())
	second := h.Salt.Reveal(r.U32())
	if first == HeaderSize {
		// the first pointer is the node table; there is no aux table
		l.nodes, l.animPtr = first, second
		return h, l
	}
	third := h.Salt.Reveal(r.U32())
	l.hasAux = true
	l.aux, l.nodes, l.animPtr = first, second, third
	return h, l
}

func writeHeader(w *binio.Writer, h Header, l layout) {
	w.Bytes([]byte(Magic))
	w.Bytes(h.Pad[:])
	w.U32(l.remaining)
	w.Name(h.TKLRef, RefSize)
	w.U32(h.Magic1)
	w.U32(h.Magic2)
	w.U32(salt.Rebase(l.lodOffset))
	w.U32(uint32(h.Salt))
	w.U32(h.Opaque1)
	w.U32(h.Opaque2)
	for _, v := range h.Reserved1 {
		w.U32(v)
	}
	w.U32(salt.Rebase(l.lodOffset))
	w.U16(uint16(l.bones))
	w.U16(h.Opaque3)
	w.U16(uint16(l.anims))
	w.U16(h.Opaque4)
	for _, v := range h.Reserved2 {
		w.U32(v)
	}
	if l.hasAux {
		w.U32(h.Salt.Hide(l.aux))
	}
	w.U32(h.Salt.Hide(l.nodes))
	w.U32(h.Salt.Hide(l.animPtr))
}
