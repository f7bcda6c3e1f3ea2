package tmd

import (
	"fmt"
	"reflect"

	"jpog-tmd/internal/anim"
	"jpog-tmd/internal/binio"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/salt"
	"jpog-tmd/internal/skeleton"
)

// Model is a decoded TMD file.
type Model struct {
	Header   Header
	Skeleton skeleton.Skeleton
	// AuxNodes is the auxiliary per-bone table of files with a three-pointer
	// header. nil selects the canonical layout on encode.
	AuxNodes         []int32
	Clips            []anim.Clip
	BoundingDistance float32
	LODs             []LOD

	src *animSource
}

// animSource remembers the animation block as read so that files whose
// channels are laid out differently from Encode still round-trip.
type animSource struct {
	ptr   int
	salt  salt.Salt
	raw   []byte
	clips []anim.Clip
}

// Decode parses a TMD file. Container corruption is returned as an error;
// problems that leave the rest of the file readable are reported to col.
func Decode(data []byte, col *diag.Collector) (*Model, error) {
	if len(data) < HeaderSize {
		return nil, diag.New(diag.ErrMalformedContainer, "tmd: decode header", "file has %d bytes", len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, diag.New(diag.ErrMalformedContainer, "tmd: decode header", "bad magic %q", data[:len(Magic)])
	}
	r := binio.NewReader(data)
	h, l := readHeader(r)
	if err := r.Err(); err != nil {
		return nil, diag.Wrap(diag.ErrMalformedContainer, "tmd: decode header", err)
	}
	if int(l.remaining) != len(data)-12 {
		col.Reportf(diag.ErrMalformedContainer, "tmd: decode header", "declares %d remaining bytes, file has %d", l.remaining, len(data)-12)
	}
	if l.lodRepeat != l.lodOffset {
		col.Reportf(diag.ErrMalformedContainer, "tmd: decode header", "lod offsets disagree: %d and %d", l.lodOffset, l.lodRepeat)
	}
	if l.animPtr > l.lodOffset || l.lodOffset > len(data) {
		return nil, diag.New(diag.ErrMalformedContainer, "tmd: decode header", "animation block at %d, lod block at %d, file has %d bytes",
			l.animPtr, l.lodOffset, len(data))
	}

	m := &Model{Header: h}
	if l.hasAux {
		r.Seek(l.aux)
		m.AuxNodes = make([]int32, l.bones)
		for i := range m.AuxNodes {
			m.AuxNodes[i] = r.I32()
		}
		if err := r.Err(); err != nil {
			return nil, diag.Wrap(diag.ErrMalformedContainer, "tmd: decode aux nodes", err)
		}
	}

	var err error
	m.Skeleton, err = skeleton.Decode(data, l.nodes, l.bones)
	if err != nil {
		return nil, err
	}

	m.Clips, err = anim.Decode(data, l.animPtr, l.anims, l.bones, h.Salt, col)
	if err != nil {
		return nil, err
	}
	if len(m.Clips) == l.anims {
		m.src = &animSource{
			ptr:   l.animPtr,
			salt:  h.Salt,
			raw:   append([]byte(nil), data[l.animPtr:l.lodOffset]...),
			clips: cloneClips(m.Clips),
		}
	}

	r.Seek(l.lodOffset)
	m.LODs, m.BoundingDistance, err = decodeLODs(r, l.bones, col)
	if err != nil {
		return nil, diag.Wrap(diag.ErrMalformedContainer, "tmd: decode lods", err)
	}
	if r.Offset() != len(data) {
		col.Reportf(diag.ErrMalformedContainer, "tmd: decode lods", "%d trailing bytes", len(data)-r.Offset())
	}
	return m, nil
}

func cloneClips(clips []anim.Clip) []anim.Clip {
	out := make([]anim.Clip, len(clips))
	for i, c := range clips {
		out[i] = c
		out[i].Channels = make([]anim.Channel, len(c.Channels))
		for j, ch := range c.Channels {
			out[i].Channels[j] = anim.Channel{Mode: ch.Mode, Keys: append([]anim.Key(nil), ch.Keys...)}
		}
	}
	return out
}

// Encode writes the model. Sizes, counts and offsets are derived from the
// serialized parts; the body is the bone table, the animation block and the
// LOD block in that order.
func Encode(m *Model) ([]byte, error) {
	const op = "tmd: encode"
	if len(m.Skeleton) > 0xFFFF || len(m.Clips) > 0xFFFF {
		return nil, diag.New(diag.ErrMalformedContainer, op, "%d bones and %d clips exceed the u16 counts", len(m.Skeleton), len(m.Clips))
	}
	if m.AuxNodes != nil && len(m.AuxNodes) != len(m.Skeleton) {
		return nil, diag.New(diag.ErrMalformedContainer, op, "aux table has %d entries for %d bones", len(m.AuxNodes), len(m.Skeleton))
	}
	for ci, c := range m.Clips {
		if len(c.Channels) != len(m.Skeleton) {
			return nil, diag.New(diag.ErrBoneMismatch, op, "clip %d %q has %d channels for %d bones", ci, c.Name, len(c.Channels), len(m.Skeleton))
		}
		for bi, ch := range c.Channels {
			if len(ch.Keys) > 0xFFFF {
				return nil, diag.New(diag.ErrMalformedContainer, op, "clip %q bone %d has %d keys", c.Name, bi, len(ch.Keys))
			}
		}
	}

	l := layout{bones: len(m.Skeleton), anims: len(m.Clips), nodes: HeaderSize}
	if m.AuxNodes != nil {
		l.hasAux = true
		l.aux = AuxHeaderSize
		l.nodes = AuxHeaderSize + 4*len(m.AuxNodes)
	}
	bones := skeleton.Encode(m.Skeleton)
	l.animPtr = l.nodes + len(bones)
	animBlock := m.animBlock(l.animPtr)
	l.lodOffset = l.animPtr + len(animBlock)
	lods := encodeLODs(m.LODs, m.BoundingDistance)
	total := l.lodOffset + len(lods)
	l.remaining = uint32(total - 12)

	w := binio.NewWriter(total)
	writeHeader(w, m.Header, l)
	for _, v := range m.AuxNodes {
		w.I32(v)
	}
	w.Bytes(bones)
	w.Bytes(animBlock)
	w.Bytes(lods)
	if w.Len() != total {
		return nil, diag.New(diag.ErrMalformedContainer, op, "wrote %d bytes, laid out %d", w.Len(), total)
	}
	return w.Data(), nil
}

func (m *Model) animBlock(ptr int) []byte {
	if s := m.src; s != nil && s.ptr == ptr && s.salt == m.Header.Salt && reflect.DeepEqual(s.clips, m.Clips) {
		return s.raw
	}
	return anim.Encode(m.Clips, ptr, m.Header.Salt)
}

// Summary describes the model in one line per part.
func (m *Model) Summary() []string {
	out := []string{
		fmt.Sprintf("tkl ref %q, salt %d, magic %d/%d", m.Header.TKLRef, m.Header.Salt, m.Header.Magic1, m.Header.Magic2),
		fmt.Sprintf("%d bones, %d clips, bounding distance %.3f", len(m.Skeleton), len(m.Clips), m.BoundingDistance),
	}
	if m.AuxNodes != nil {
		out = append(out, fmt.Sprintf("aux node table with %d entries", len(m.AuxNodes)))
	}
	for li, lod := range m.LODs {
		for mi, mesh := range lod.Meshes {
			verts, strips := 0, 0
			for _, p := range mesh.Pieces {
				verts += len(p.Vertices)
				strips += len(p.Strip)
			}
			out = append(out, fmt.Sprintf("lod %d mesh %d %q: %d pieces, %d vertices, %d strip indices",
				li, mi, mesh.Material, len(mesh.Pieces), verts, strips))
		}
	}
	return out
}
