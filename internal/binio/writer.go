package binio

import (
	"encoding/binary"
	"math"
)

// Writer appends little-endian primitives to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with capacity for n bytes.
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

func (w *Writer) Len() int { return len(w.buf) }

// Data returns the written bytes.
func (w *Writer) Data() []byte { return w.buf }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) I16(v int16) { w.U16(uint16(v)) }

func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

func (w *Writer) F32s(vs ...float32) {
	for _, v := range vs {
		w.F32(v)
	}
}

func (w *Writer) Bytes(b []byte) { w.buf = append(w.buf, b...) }

// Name writes s into a zero-padded n-byte field, truncating if needed.
func (w *Writer) Name(s string, n int) {
	field := make([]byte, n)
	copy(field, s)
	w.buf = append(w.buf, field...)
}
