// Package scene connects the codec to a host editor. The host is reached
// only through Sink (what an import produces) and Source (what an export
// reads); Memory is an in-process implementation of both.
package scene

import (
	"fmt"

	"jpog-tmd/internal/partition"
	"jpog-tmd/internal/skeleton"
	"jpog-tmd/internal/tristrip"
)

// HostMesh is one mesh object of the host scene.
type HostMesh struct {
	Name      string
	LOD       int
	Material  string
	Vertices  []partition.Vertex
	Triangles []tristrip.Triangle
}

// MeshName is the host object name of a mesh: material, LOD and position.
func MeshName(material string, lod, index int) string {
	return fmt.Sprintf("%s_LOD%d_MESH%d", material, lod, index)
}

// Keyframe is one point of an fcurve. Frames are host frames, not seconds.
type Keyframe struct {
	Frame float32
	Value float32
}

// FCurve is one animated scalar with linear interpolation.
type FCurve struct {
	Keys []Keyframe
}

// BoneCurves groups the fcurves of one bone. Location holds x, y, z and
// Rotation holds w, x, y, z; either is empty when not animated.
type BoneCurves struct {
	Bone     string
	Location []FCurve
	Rotation []FCurve
}

// HostClip is a host action. Its name ends with the two clip flags as
// digits.
type HostClip struct {
	Name     string
	FrameEnd float32
	Cyclic   bool
	Groups   []BoneCurves
}

// Sink receives an imported model.
type Sink interface {
	SetArmature(name string, bones []skeleton.HostBone) error
	AddMesh(m HostMesh) error
	AddClip(c HostClip) error
}

// Source supplies a model for export.
type Source interface {
	Armature() []skeleton.HostBone
	Meshes() []HostMesh
	Clips() []HostClip
}

// Memory is a host scene held in memory.
type Memory struct {
	name   string
	bones  []skeleton.HostBone
	meshes []HostMesh
	clips  []HostClip
}

// NewMemory returns an empty scene.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) SetArmature(name string, bones []skeleton.HostBone) error {
	m.name = name
	m.bones = append([]skeleton.HostBone(nil), bones...)
	return nil
}

func (m *Memory) AddMesh(mesh HostMesh) error {
	m.meshes = append(m.meshes, mesh)
	return nil
}

func (m *Memory) AddClip(c HostClip) error {
	m.clips = append(m.clips, c)
	return nil
}

// Name returns the armature name.
func (m *Memory) Name() string { return m.name }

func (m *Memory) Armature() []skeleton.HostBone { return m.bones }
func (m *Memory) Meshes() []HostMesh            { return m.meshes }
func (m *Memory) Clips() []HostClip             { return m.clips }

// Bone returns a pointer to the named bone for editing, or nil.
func (m *Memory) Bone(name string) *skeleton.HostBone {
	for i := range m.bones {
		if m.bones[i].Name == name {
			return &m.bones[i]
		}
	}
	return nil
}

// RemoveClips drops every clip.
func (m *Memory) RemoveClips() { m.clips = nil }
