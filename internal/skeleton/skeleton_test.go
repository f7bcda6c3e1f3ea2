package skeleton

import (
	"testing"

	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/mathutil"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostChain() []HostBone {
	root := mathutil.TRS(mgl32.QuatRotate(0.3, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{0, 0, 1})
	child := root.Mul4(mathutil.TRS(mgl32.QuatRotate(-0.6, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 1, 0}))
	grand := child.Mul4(mathutil.TRS(mgl32.QuatRotate(0.2, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{0, 0.5, 0.25}))
	return []HostBone{
		{Name: "b_root", Matrix: root, Deform: true},
		{Name: "b_child", Parent: "b_root", Matrix: child, Deform: true},
		{Name: "b_tip", Parent: "b_child", Matrix: grand, Deform: false},
	}
}

func TestThreeBoneRoundTrip(t *testing.T) {
	s, err := FromHost(hostChain(), mathutil.DefaultCoords())
	require.NoError(t, err)

	data := Encode(s)
	require.Len(t, data, 3*RecordSize)

	got, err := Decode(data, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 0, 1}, []int{got[0].Parent, got[1].Parent, got[2].Parent})
	assert.True(t, got[0].Deform())
	assert.True(t, got[1].Deform())
	assert.False(t, got[2].Deform())
	assert.Equal(t, s, got)
	assert.Equal(t, data, Encode(got))
}

func TestDecodeAtOffset(t *testing.T) {
	s, err := FromHost(hostChain(), mathutil.IdentityCoords())
	require.NoError(t, err)
	data := append(make([]byte, 124), Encode(s)...)

	got, err := Decode(data, 124, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b_root", "b_child", "b_tip"}, got.Names())
	assert.Equal(t, 1, got.Index("b_child"))
	assert.Equal(t, -1, got.Index("missing"))
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(make([]byte, RecordSize+10), 0, 2)
	assert.ErrorIs(t, err, diag.ErrMalformedContainer)
}

func TestDecodeBadParent(t *testing.T) {
	s := Skeleton{{Name: "a", Parent: 5, Bind: mgl32.Ident4(), InverseBind: mgl32.Ident4(), Rotation: mgl32.QuatIdent()}}
	_, err := Decode(Encode(s), 0, 1)
	assert.ErrorIs(t, err, diag.ErrMalformedContainer)
}

func TestNameTruncatedToField(t *testing.T) {
	s := Skeleton{{Name: "a_very_long_bone_name", Parent: -1, Bind: mgl32.Ident4(), InverseBind: mgl32.Ident4(), Rotation: mgl32.QuatIdent()}}
	got, err := Decode(Encode(s), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "a_very_long_bon", got[0].Name)
}

func TestHostConversionInverse(t *testing.T) {
	c := mathutil.DefaultCoords()
	bones := hostChain()
	s, err := FromHost(bones, c)
	require.NoError(t, err)

	back := s.ToHost(c)
	for i := range bones {
		assert.Equal(t, bones[i].Name, back[i].Name)
		assert.Equal(t, bones[i].Parent, back[i].Parent)
		assert.Equal(t, bones[i].Deform, back[i].Deform)
		assert.True(t, mathutil.ApproxEqual(bones[i].Matrix, back[i].Matrix, 1e-5), "bone %s", bones[i].Name)
	}
}

func TestFallbackIsParentRelative(t *testing.T) {
	s, err := FromHost(hostChain(), mathutil.DefaultCoords())
	require.NoError(t, err)
	assert.Empty(t, s.BindDrift(1e-4))

	want := s[0].Bind.Inv().Mul4(s[1].Bind)
	assert.True(t, mathutil.ApproxEqual(want, s[1].Fallback(), 1e-5))
}

func TestFromHostUnknownParent(t *testing.T) {
	_, err := FromHost([]HostBone{{Name: "a", Parent: "ghost", Matrix: mgl32.Ident4()}}, mathutil.IdentityCoords())
	assert.ErrorIs(t, err, diag.ErrBoneMismatch)
}

func TestValidate(t *testing.T) {
	ok := Skeleton{{Name: "a", Parent: -1}, {Name: "b", Parent: 0}}
	require.NoError(t, ok.Validate())

	cycle := Skeleton{{Name: "a", Parent: 1}, {Name: "b", Parent: 0}}
	assert.ErrorIs(t, cycle.Validate(), diag.ErrMalformedContainer)

	dup := Skeleton{{Name: "a", Parent: -1}, {Name: "a", Parent: -1}}
	assert.ErrorIs(t, dup.Validate(), diag.ErrBoneMismatch)
}

func TestWorldMatricesLaterParent(t *testing.T) {
	s := Skeleton{{Name: "child", Parent: 1}, {Name: "root", Parent: -1}}
	locals := []mgl32.Mat4{mgl32.Translate3D(0, 1, 0), mgl32.Translate3D(2, 0, 0)}
	w := s.WorldMatrices(locals)
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, mathutil.Translation(w[0]))
}

func TestSkinAtRestIsIdentity(t *testing.T) {
	s, err := FromHost(hostChain(), mathutil.IdentityCoords())
	require.NoError(t, err)
	skin := s.SkinMatrices(s.RestWorlds())
	p := mgl32.Vec3{0.3, 1.2, -0.4}
	got := Skin(p, []Influence{{Bone: 1, Weight: 0.5}, {Bone: 2, Weight: 0.5}}, skin)
	assert.InDelta(t, p[0], got[0], 1e-4)
	assert.InDelta(t, p[1], got[1], 1e-4)
	assert.InDelta(t, p[2], got[2], 1e-4)

	assert.Equal(t, p, Skin(p, nil, skin))
}
