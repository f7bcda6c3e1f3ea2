// Package skeleton reads and writes the bone table of a TMD file and
// converts it to and from host armature space.
package skeleton

import (
	"jpog-tmd/internal/binio"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/mathutil"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// RecordSize is the size of one bone record.
	RecordSize = 176
	// NameSize is the width of the bone name field.
	NameSize = 15
)

// Bone is one node of the skeleton. Bind and InverseBind are in armature
// space and untransposed; Rotation and Translation are the parent-relative
// fallback used by channels that do not animate a component.
type Bone struct {
	Name        string
	Parent      int
	Bind        mgl32.Mat4
	InverseBind mgl32.Mat4
	Rotation    mgl32.Quat
	Translation mgl32.Vec3
	// Updates is the raw flag; 0 marks a deforming bone.
	Updates uint16
}

// Deform reports whether the bone deforms the mesh.
func (b Bone) Deform() bool { return b.Updates == 0 }

// Fallback returns the parent-relative rest matrix.
func (b Bone) Fallback() mgl32.Mat4 {
	return mathutil.TRS(b.Rotation, b.Translation)
}

// Skeleton is an ordered bone list. Bone indices are referenced by parents,
// piece palettes and animation channels and must stay stable.
type Skeleton []Bone

// Index returns the index of the named bone, or -1.
func (s Skeleton) Index(name string) int {
	for i, b := range s {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the bone names in order.
func (s Skeleton) Names() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.Name
	}
	return out
}

// Decode reads count bone records starting at offset.
func Decode(data []byte, offset, count int) (Skeleton, error) {
	const op = "skeleton: decode"
	r := binio.NewReader(data)
	r.Seek(offset)
	s := make(Skeleton, count)
	for i := range s {
		b := &s[i]
		x, y, z, w := r.F32(), r.F32(), r.F32(), r.F32()
		b.Rotation = mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
		b.Bind = readMatrix(r)
		b.InverseBind = readMatrix(r)
		n := int(r.U8())
		name := r.Bytes(NameSize)
		if n < len(name) {
			name = name[:n]
		}
		b.Name = binio.CString(name)
		b.Parent = int(r.I16())
		b.Updates = r.U16()
		b.Translation = mgl32.Vec3{r.F32(), r.F32(), r.F32()}
		if err := r.Err(); err != nil {
			return nil, diag.New(diag.ErrMalformedContainer, op, "bone %d of %d at %d: %v", i, count, offset, err)
		}
		if b.Parent < -1 || b.Parent >= count {
			return nil, diag.New(diag.ErrMalformedContainer, op, "bone %q has parent %d of %d", b.Name, b.Parent, count)
		}
	}
	return s, nil
}

func readMatrix(r *binio.Reader) mgl32.Mat4 {
	var rows [16]float32
	copy(rows[:], r.F32s(16))
	return mathutil.FromFileRows(rows)
}

// Encode writes the bone records.
func Encode(s Skeleton) []byte {
	w := binio.NewWriter(len(s) * RecordSize)
	for _, b := range s {
		w.F32s(b.Rotation.V[0], b.Rotation.V[1], b.Rotation.V[2], b.Rotation.W)
		bind := mathutil.FileRows(b.Bind)
		w.F32s(bind[:]...)
		inv := mathutil.FileRows(b.InverseBind)
		w.F32s(inv[:]...)
		n := len(b.Name)
		if n > NameSize {
			n = NameSize
		}
		w.U8(uint8(n))
		w.Name(b.Name, NameSize)
		w.I16(int16(b.Parent))
		w.U16(b.Updates)
		w.F32s(b.Translation[0], b.Translation[1], b.Translation[2])
	}
	return w.Data()
}

// Validate checks parent references: every parent is -1 or another bone,
// and following parents always reaches a root.
func (s Skeleton) Validate() error {
	const op = "skeleton: validate"
	var errs diag.List
	seen := make(map[string]bool, len(s))
	for i, b := range s {
		if seen[b.Name] {
			errs.Add(diag.New(diag.ErrBoneMismatch, op, "duplicate bone name %q", b.Name))
		}
		seen[b.Name] = true
		if b.Parent < -1 || b.Parent >= len(s) || b.Parent == i {
			errs.Add(diag.New(diag.ErrMalformedContainer, op, "bone %q has invalid parent %d", b.Name, b.Parent))
			continue
		}
		steps := 0
		for p := b.Parent; p >= 0; p = s[p].Parent {
			if steps++; steps > len(s) || p >= len(s) {
				errs.Add(diag.New(diag.ErrMalformedContainer, op, "bone %q is part of a parent cycle", b.Name))
				break
			}
		}
	}
	return errs.Err()
}
