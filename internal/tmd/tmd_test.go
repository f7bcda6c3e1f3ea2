package tmd

import (
	"testing"

	"jpog-tmd/internal/anim"
	"jpog-tmd/internal/binio"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/salt"
	"jpog-tmd/internal/skeleton"
	"jpog-tmd/internal/tristrip"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSkeleton(t *testing.T) skeleton.Skeleton {
	t.Helper()
	s, err := skeleton.FromHost([]skeleton.HostBone{
		{Name: "b_pelvis", Matrix: mathutil.TRS(mgl32.QuatIdent(), mgl32.Vec3{0, 0, 1}), Deform: true},
		{Name: "b_tail", Parent: "b_pelvis", Matrix: mathutil.TRS(mgl32.QuatRotate(0.3, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{0, -1, 1}), Deform: true},
	}, mathutil.DefaultCoords())
	require.NoError(t, err)
	return s
}

func vert(x, y float32, w0, w1 uint8) Vertex {
	return Vertex{
		Position: [3]float32{x, y, 0},
		Normal:   [3]float32{0, 0, 1},
		Weights:  [4]uint8{w0, w1, 0, 0},
		Slots:    [4]uint8{0, 3, 0, 0},
		UV:       [2]float32{x, y},
	}
}

func sampleModel(t *testing.T) *Model {
	return &Model{
		Header: Header{
			Pad:     [4]byte{1, 2, 3, 4},
			TKLRef:  "raptor",
			Magic1:  0x2A,
			Magic2:  0x3C,
			Salt:    salt.Salt(0xBEEF),
			Opaque1: 7,
			Opaque2: 9,
			Opaque3: 11,
			Opaque4: 13,
		},
		Skeleton: sampleSkeleton(t),
		Clips: []anim.Clip{{
			Name: "run_lp", Flag2: 1, Duration: 1,
			Channels: []anim.Channel{
				{Mode: anim.Both, Keys: []anim.Key{{Time: 0}, {Time: 1, Location: 1, Rotation: 1}}},
				{Mode: anim.Skip},
			},
		}},
		BoundingDistance: 4,
		LODs: []LOD{{
			Hints: Hints(4),
			Meshes: []Mesh{{
				Material: "raptor_skin",
				Pieces: []Piece{
					{
						Palette:  []uint32{0, 1},
						Vertices: []Vertex{vert(0, 0, 255, 0), vert(1, 0, 127, 127), vert(0, 1, 0, 255), vert(1, 1, 255, 0)},
						Strip:    []int16{0, 1, 2, 3},
						Extent:   [3]float32{1, 1, 0},
						Center:   [3]float32{0.5, 0.5, 0},
					},
					{
						Palette: []uint32{1},
						Strip:   []int16{2, 3, 0},
						Extent:  [3]float32{1, 1, 0},
						Center:  [3]float32{0.5, 0.5, 0},
					},
				},
			}},
		}},
	}
}

func assertSameModel(t *testing.T, want, got *Model) {
	t.Helper()
	assert.Equal(t, want.Header, got.Header)
	assert.Equal(t, want.Skeleton, got.Skeleton)
	assert.Equal(t, want.AuxNodes, got.AuxNodes)
	assert.Equal(t, want.Clips, got.Clips)
	assert.Equal(t, want.BoundingDistance, got.BoundingDistance)
	assert.Equal(t, want.LODs, got.LODs)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := sampleModel(t)
	data, err := Encode(m)
	require.NoError(t, err)

	col := diag.NewCollector(nil)
	got, err := Decode(data, col)
	require.NoError(t, err)
	require.NoError(t, col.Err())
	assertSameModel(t, m, got)

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestHeaderLayout(t *testing.T) {
	m := sampleModel(t)
	data, err := Encode(m)
	require.NoError(t, err)
	s := m.Header.Salt

	r := binio.NewReader(data)
	assert.Equal(t, "TMDL", string(r.Bytes(4)))
	assert.Equal(t, []byte{1, 2, 3, 4}, r.Bytes(4))
	assert.Equal(t, uint32(len(data)-12), r.U32())
	assert.Equal(t, "raptor", r.Name(RefSize))

	animPtr := HeaderSize + 2*skeleton.RecordSize
	lodOffset := animPtr + anim.Size(m.Clips)

	r.Seek(28)
	assert.Equal(t, uint32(lodOffset-60), r.U32(), "lod offset carries no salt")
	assert.Equal(t, uint32(s), r.U32())
	r.Seek(60)
	assert.Equal(t, uint32(lodOffset-60), r.U32())
	assert.Equal(t, uint16(2), r.U16())
	assert.Equal(t, uint16(11), r.U16())
	assert.Equal(t, uint16(1), r.U16())
	assert.Equal(t, uint16(13), r.U16())
	r.Seek(116)
	assert.Equal(t, HeaderSize, s.Reveal(r.U32()))
	assert.Equal(t, animPtr, s.Reveal(r.U32()))

	r.Seek(lodOffset)
	assert.Equal(t, uint32(1), r.U32())
	assert.Equal(t, float32(4), r.F32())
}

func TestAuxLayoutRoundTrip(t *testing.T) {
	m := sampleModel(t)
	m.AuxNodes = []int32{-1, 5}
	data, err := Encode(m)
	require.NoError(t, err)

	r := binio.NewReader(data)
	r.Seek(116)
	s := m.Header.Salt
	assert.Equal(t, AuxHeaderSize, s.Reveal(r.U32()))
	assert.Equal(t, AuxHeaderSize+8, s.Reveal(r.U32()))

	got, err := Decode(data, nil)
	require.NoError(t, err)
	assertSameModel(t, m, got)

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestUVStoredNegated(t *testing.T) {
	m := sampleModel(t)
	data, err := Encode(m)
	require.NoError(t, err)

	animPtr := HeaderSize + 2*skeleton.RecordSize
	lodOffset := animPtr + anim.Size(m.Clips)
	// lod header, lod entry, mesh header, piece header, palette, then vertex 2
	off := lodOffset + 8 + lodHeaderSize + meshHeaderSize + pieceHeaderSize + 8 + 2*VertexSize + 32
	r := binio.NewReader(data)
	r.Seek(off)
	assert.Equal(t, float32(0), r.F32())
	assert.Equal(t, float32(-1), r.F32())
}

func TestRawAnimationBlockPassThrough(t *testing.T) {
	s := salt.Salt(500)
	sk := sampleSkeleton(t)
	bones := skeleton.Encode(sk)
	animPtr := HeaderSize + len(bones)
	chanOff := animPtr + 4 + anim.ClipHeaderSize + 8

	// both bones share one channel record, which Encode never produces
	ab := binio.NewWriter(0)
	ab.U32(s.Hide(animPtr + 4))
	ab.U8(4)
	ab.Name("idle", anim.NameSize)
	ab.U32(1)
	ab.U32(0)
	ab.U32(2)
	ab.F32(1)
	ab.U32(s.Hide(chanOff))
	ab.U32(s.Hide(chanOff))
	ab.U16(uint16(anim.Skip))
	ab.U16(0)

	lods := encodeLODs(nil, 0)
	l := layout{bones: 2, anims: 1, nodes: HeaderSize, animPtr: animPtr, lodOffset: animPtr + ab.Len()}
	l.remaining = uint32(l.lodOffset + len(lods) - 12)
	w := binio.NewWriter(0)
	writeHeader(w, Header{TKLRef: "idle", Salt: s}, l)
	w.Bytes(bones)
	w.Bytes(ab.Data())
	w.Bytes(lods)
	data := w.Data()

	m, err := Decode(data, nil)
	require.NoError(t, err)
	require.Len(t, m.Clips, 1)
	assert.Equal(t, anim.Skip, m.Clips[0].Channels[1].Mode)

	out, err := Encode(m)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	// an edited clip is laid out afresh
	m.Clips[0].Name = "idle2"
	out, err = Encode(m)
	require.NoError(t, err)
	assert.Len(t, out, len(data)+4)
	back, err := Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, "idle2", back.Clips[0].Name)
}

func TestDecodeErrors(t *testing.T) {
	data, err := Encode(sampleModel(t))
	require.NoError(t, err)

	lodOffset := salt.Unbase(binio.NewReader(data[28:]).U32())
	hugeCount := append([]byte(nil), data...)
	copy(hugeCount[lodOffset:], []byte{0xFF, 0xFF, 0xFF, 0x7F})

	tests := []struct {
		name string
		data []byte
	}{
		{"short", data[:40]},
		{"lod count past end", hugeCount},
		{"bad magic", append([]byte("XXXX"), data[4:]...)},
		{"truncated lods", data[:len(data)-3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, diag.NewCollector(nil))
			assert.ErrorIs(t, err, diag.ErrMalformedContainer)
		})
	}
}

func TestDecodeReportsSizeMismatch(t *testing.T) {
	data, err := Encode(sampleModel(t))
	require.NoError(t, err)
	data = append(data, 0, 0)

	col := diag.NewCollector(nil)
	_, err = Decode(data, col)
	require.NoError(t, err)
	assert.True(t, col.Has(diag.ErrMalformedContainer))
}

func TestEncodeRejectsChannelMismatch(t *testing.T) {
	m := sampleModel(t)
	m.Clips[0].Channels = m.Clips[0].Channels[:1]
	_, err := Encode(m)
	assert.ErrorIs(t, err, diag.ErrBoneMismatch)
}

func TestMeshHelpers(t *testing.T) {
	mesh := sampleModel(t).LODs[0].Meshes[0]
	assert.Len(t, mesh.VertexBuffer(), 4)
	assert.Equal(t, uint32(3), mesh.Pieces[0].MaxIndex())

	tris, err := mesh.Triangles()
	require.NoError(t, err)
	assert.Equal(t, []tristrip.Triangle{{0, 1, 2}, {1, 3, 2}, {2, 3, 0}}, tris)

	infl, err := mesh.Influences()
	require.NoError(t, err)
	assert.Equal(t, []skeleton.Influence{{Bone: 0, Weight: 1}}, infl[0])
	require.Len(t, infl[1], 2)
	assert.Equal(t, 1, infl[1][1].Bone)
	// vertex 3 is first used by piece 0, so its slot resolves through that palette
	assert.Equal(t, []skeleton.Influence{{Bone: 0, Weight: 1}}, infl[3])
}

func TestHints(t *testing.T) {
	h := Hints(10)
	assert.InDelta(t, 0.5, h[0], 1e-6)
	assert.InDelta(t, -0.2, h[1], 1e-6)
	assert.InDelta(t, 1, h[2], 1e-6)
	assert.InDelta(t, 9, h[3], 1e-6)
}
