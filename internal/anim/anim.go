// Package anim reads and writes the animation block of a TMD file: a
// directory of clips, each holding one keyed channel per bone whose keys
// index into a keypool.Pool.
package anim

import (
	"fmt"
	"strings"

	"jpog-tmd/internal/binio"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/salt"
)

// Mode says which pose components a channel animates.
type Mode uint16

const (
	RotationOnly    Mode = 0
	Both            Mode = 1
	Skip            Mode = 2
	TranslationOnly Mode = 3
)

func (m Mode) String() string {
	switch m {
	case RotationOnly:
		return "rotation"
	case Both:
		return "both"
	case Skip:
		return "skip"
	case TranslationOnly:
		return "translation"
	}
	return fmt.Sprintf("mode(%d)", uint16(m))
}

// ModeFor picks the channel mode from the components a bone animates.
func ModeFor(hasLocation, hasRotation bool) Mode {
	switch {
	case hasLocation && hasRotation:
		return Both
	case hasRotation:
		return RotationOnly
	case hasLocation:
		return TranslationOnly
	}
	return Skip
}

// Animates reports whether the mode takes location and rotation from the pool.
func (m Mode) Animates() (location, rotation bool) {
	return m == Both || m == TranslationOnly, m == Both || m == RotationOnly
}

const (
	// ClipHeaderSize is the fixed part of a clip before its channel offsets.
	ClipHeaderSize = 32
	// NameSize is the width of the clip name field.
	NameSize = 15

	keySize           = 8
	channelHeaderSize = 4
)

// Key is one keyframe. Both indices are written for every mode.
type Key struct {
	Time     float32
	Location uint16
	Rotation uint16
}

// Channel is the animation of one bone within a clip.
type Channel struct {
	Mode Mode
	Keys []Key
}

// Clip is one animation. Channels are in skeleton order.
type Clip struct {
	Name     string
	Flag1    uint32
	Flag2    uint32
	Duration float32
	Channels []Channel
}

// Looping reports whether the clip name carries the loop suffix.
func (c Clip) Looping() bool {
	return strings.HasSuffix(strings.ToLower(c.Name), "_lp")
}

// KeyCount returns the number of keys over all channels.
func (c Clip) KeyCount() int {
	n := 0
	for _, ch := range c.Channels {
		n += len(ch.Keys)
	}
	return n
}

// Decode reads count clips whose directory sits at ptr. Every clip has one
// channel per bone. A clip that cannot be read is reported to col and left
// out; an unreadable directory is fatal.
func Decode(data []byte, ptr, count, bones int, s salt.Salt, col *diag.Collector) ([]Clip, error) {
	r := binio.NewReader(data)
	r.Seek(ptr)
	dir := make([]uint32, count)
	for i := range dir {
		dir[i] = r.U32()
	}
	if err := r.Err(); err != nil {
		return nil, diag.New(diag.ErrMalformedContainer, "anim: decode directory", "%d clips at %d: %v", count, ptr, err)
	}

	clips := make([]Clip, 0, count)
	for i, stored := range dir {
		c, err := decodeClip(data, s.Reveal(stored), bones, s)
		if err != nil {
			col.ReportErr(diag.ErrMalformedContainer, fmt.Sprintf("anim: decode clip %d", i), err)
			continue
		}
		clips = append(clips, c)
	}
	return clips, nil
}

func decodeClip(data []byte, off, bones int, s salt.Salt) (Clip, error) {
	r := binio.NewReader(data)
	r.Seek(off)
	var c Clip
	n := int(r.U8())
	name := r.Bytes(NameSize)
	if n < len(name) {
		name = name[:n]
	}
	c.Name = binio.CString(name)
	c.Flag1 = r.U32()
	c.Flag2 = r.U32()
	r.U32() // bone count echo, the skeleton is authoritative
	c.Duration = r.F32()
	offsets := make([]uint32, bones)
	for i := range offsets {
		offsets[i] = r.U32()
	}
	if err := r.Err(); err != nil {
		return Clip{}, err
	}

	c.Channels = make([]Channel, bones)
	for i, stored := range offsets {
		r.Seek(s.Reveal(stored))
		ch := Channel{Mode: Mode(r.U16())}
		nkeys := int(r.U16())
		if r.Err() == nil && r.Offset()+nkeys*keySize > r.Len() {
			return Clip{}, fmt.Errorf("clip %q bone %d: %d keys run past the end", c.Name, i, nkeys)
		}
		if nkeys > 0 {
			ch.Keys = make([]Key, nkeys)
		}
		for k := range ch.Keys {
			ch.Keys[k] = Key{Time: r.F32(), Location: r.U16(), Rotation: r.U16()}
		}
		if err := r.Err(); err != nil {
			return Clip{}, fmt.Errorf("clip %q bone %d: %w", c.Name, i, err)
		}
		if ch.Mode > TranslationOnly {
			return Clip{}, fmt.Errorf("clip %q bone %d: unknown channel mode %d", c.Name, i, ch.Mode)
		}
		c.Channels[i] = ch
	}
	return c, nil
}

// Size returns the encoded size of the block.
func Size(clips []Clip) int {
	n := 4 * len(clips)
	for _, c := range clips {
		n += ClipHeaderSize + 4*len(c.Channels)
		for _, ch := range c.Channels {
			n += channelHeaderSize + keySize*len(ch.Keys)
		}
	}
	return n
}

// Encode writes the block for placement at ptr: the directory, then each
// clip header with its channel offsets followed by its channels.
func Encode(clips []Clip, ptr int, s salt.Salt) []byte {
	w := binio.NewWriter(Size(clips))
	off := ptr + 4*len(clips)
	for _, c := range clips {
		w.U32(s.Hide(off))
		off += ClipHeaderSize + 4*len(c.Channels)
		for _, ch := range c.Channels {
			off += channelHeaderSize + keySize*len(ch.Keys)
		}
	}

	off = ptr + 4*len(clips)
	for _, c := range clips {
		n := len(c.Name)
		if n > NameSize {
			n = NameSize
		}
		w.U8(uint8(n))
		w.Name(c.Name, NameSize)
		w.U32(c.Flag1)
		w.U32(c.Flag2)
		w.U32(uint32(len(c.Channels)))
		w.F32(c.Duration)
		off += ClipHeaderSize + 4*len(c.Channels)
		for _, ch := range c.Channels {
			w.U32(s.Hide(off))
			off += channelHeaderSize + keySize*len(ch.Keys)
		}
		for _, ch := range c.Channels {
			w.U16(uint16(ch.Mode))
			w.U16(uint16(len(ch.Keys)))
			for _, k := range ch.Keys {
				w.F32(k.Time)
				w.U16(k.Location)
				w.U16(k.Rotation)
			}
		}
	}
	return w.Data()
}
