// Package binio reads and writes the little-endian primitives shared by the
// TMD and TKL containers.
package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is returned when a read runs past the end of the buffer.
var ErrTruncated = errors.New("truncated")

// Reader is a bounds-checked cursor over a byte slice. The first failed read
// is remembered; every later read returns zero values and leaves the offset
// untouched, so callers check Err once per record.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first read error, if any.
func (r *Reader) Err() error { return r.err }

// Offset returns the cursor position.
func (r *Reader) Offset() int { return r.off }

// Len returns the size of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(off int) {
	if r.err != nil {
		return
	}
	if off < 0 || off > len(r.data) {
		r.err = fmt.Errorf("seek to %d of %d: %w", off, len(r.data), ErrTruncated)
		return
	}
	r.off = off
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("read %d bytes at %d of %d: %w", n, r.off, len(r.data), ErrTruncated)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) I16() int16 { return int16(r.U16()) }

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) I32() int32 { return int32(r.U32()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

// F32s reads n consecutive floats.
func (r *Reader) F32s(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = r.F32()
	}
	return out
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Name reads a fixed n-byte text field and cuts it at the first zero byte.
func (r *Reader) Name(n int) string {
	return CString(r.take(n))
}

// CString returns b up to its first zero byte.
func CString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
