package scene

import (
	"fmt"
	"strconv"

	"jpog-tmd/internal/anim"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/keypool"
	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/partition"
	"jpog-tmd/internal/skeleton"
	"jpog-tmd/internal/tmd"
)

// DefaultFPS is the host frame rate clips are keyed at.
const DefaultFPS = 30

// ImportOptions controls Import.
type ImportOptions struct {
	Name   string
	Coords mathutil.Coords
	FPS    float32
	// SideNames maps "_L_" style bone names to ".L" suffixes.
	SideNames bool
}

func (o ImportOptions) fps() float32 {
	if o.FPS <= 0 {
		return DefaultFPS
	}
	return o.FPS
}

// Import hands a decoded model to sink. Mesh vertices keep file space; bones
// and poses go through the coordinate correction. Clips are only imported
// when pool is non-nil. A mesh whose strips cannot be expanded is reported
// and skipped.
func Import(m *tmd.Model, pool *keypool.Pool, opts ImportOptions, sink Sink, col *diag.Collector) error {
	rename := func(s string) string { return s }
	if opts.SideNames {
		rename = HostName
	}

	bones := m.Skeleton.ToHost(opts.Coords)
	for i := range bones {
		bones[i].Name = rename(bones[i].Name)
		if bones[i].Parent != "" {
			bones[i].Parent = rename(bones[i].Parent)
		}
	}
	if err := sink.SetArmature(opts.Name, bones); err != nil {
		return err
	}

	for li, lod := range m.LODs {
		for mi, mesh := range lod.Meshes {
			hm, err := hostMesh(mesh, m.Skeleton, li, mi, rename)
			if err != nil {
				col.ReportErr(diag.ErrMalformedContainer, "scene: import", err)
				continue
			}
			if err := sink.AddMesh(hm); err != nil {
				return err
			}
		}
	}

	if pool == nil {
		if len(m.Clips) > 0 {
			col.Logf("scene: %d clips skipped without a key pool\n", len(m.Clips))
		}
		return nil
	}
	fps := opts.fps()
	for _, hc := range anim.ToHost(m.Clips, m.Skeleton, pool, opts.Coords, col) {
		clip := HostClip{
			Name:     hc.Name + strconv.FormatUint(uint64(hc.Flag1), 10) + strconv.FormatUint(uint64(hc.Flag2), 10),
			FrameEnd: hc.Duration * fps,
			Cyclic:   hc.Looping(),
		}
		for _, tr := range hc.Tracks {
			clip.Groups = append(clip.Groups, curvesFromTrack(tr, rename(tr.Bone), fps))
		}
		if err := sink.AddClip(clip); err != nil {
			return err
		}
	}
	return nil
}

func hostMesh(mesh tmd.Mesh, s skeleton.Skeleton, lod, index int, rename func(string) string) (HostMesh, error) {
	tris, err := mesh.Triangles()
	if err != nil {
		return HostMesh{}, err
	}
	infl, err := mesh.Influences()
	if err != nil {
		return HostMesh{}, err
	}
	verts := mesh.VertexBuffer()
	hm := HostMesh{
		Name:      MeshName(mesh.Material, lod, index),
		LOD:       lod,
		Material:  mesh.Material,
		Vertices:  make([]partition.Vertex, len(verts)),
		Triangles: tris,
	}
	for i, v := range verts {
		hv := partition.Vertex{Position: v.Position, Normal: v.Normal, UV: v.UV}
		for _, in := range infl[i] {
			if in.Bone < 0 || in.Bone >= len(s) {
				return HostMesh{}, fmt.Errorf("scene: mesh %q vertex %d: bone %d outside skeleton of %d", hm.Name, i, in.Bone, len(s))
			}
			hv.Weights = append(hv.Weights, partition.Weight{Bone: rename(s[in.Bone].Name), Weight: in.Weight})
		}
		hm.Vertices[i] = hv
	}
	return hm, nil
}
