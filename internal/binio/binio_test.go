package binio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderPrimitives(t *testing.T) {
	w := NewWriter(0)
	w.U8(7)
	w.I16(-1)
	w.U32(0xDEADBEEF)
	w.F32(1.5)
	w.Name("b_pelvis", 15)

	r := NewReader(w.Data())
	assert.Equal(t, uint8(7), r.U8())
	assert.Equal(t, int16(-1), r.I16())
	assert.Equal(t, uint32(0xDEADBEEF), r.U32())
	assert.Equal(t, float32(1.5), r.F32())
	assert.Equal(t, "b_pelvis", r.Name(15))
	require.NoError(t, r.Err())
	assert.Equal(t, 1+2+4+4+15, r.Offset())
}

func TestReaderStickyTruncation(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	assert.Equal(t, uint16(0x0201), r.U16())
	assert.Equal(t, uint32(0), r.U32())
	require.ErrorIs(t, r.Err(), ErrTruncated)

	// later reads keep failing and do not move the cursor
	assert.Equal(t, uint8(0), r.U8())
	assert.Equal(t, 2, r.Offset())
}

func TestSeekOutOfRange(t *testing.T) {
	r := NewReader(make([]byte, 8))
	r.Seek(8)
	require.NoError(t, r.Err())
	r.Seek(9)
	assert.ErrorIs(t, r.Err(), ErrTruncated)
}

func TestNameTruncatesLongInput(t *testing.T) {
	w := NewWriter(0)
	w.Name("abcdefgh", 6)
	assert.Equal(t, []byte("abcdef"), w.Data())
	assert.Equal(t, "ab", CString([]byte{'a', 'b', 0, 'c'}))
}
