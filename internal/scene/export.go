package scene

import (
	"fmt"
	"sort"
	"strings"

	"jpog-tmd/internal/anim"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/keypool"
	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/partition"
	"jpog-tmd/internal/skeleton"
	"jpog-tmd/internal/tmd"
)

// MaxLODs bounds the LOD levels an export looks for.
const MaxLODs = 10

// ExportOptions controls Export.
type ExportOptions struct {
	// Base is the model the scene was imported from. Its header is reused
	// and, when Anims is false, its bone order and clips.
	Base *tmd.Model
	// BasePool is the key pool the base model references. Its header bytes
	// are reused for the new pool.
	BasePool *keypool.Pool
	// Anims encodes the host clips instead of keeping the base clips.
	Anims bool
	// AppendAnims keeps the base pool entries and adds new keys after them.
	AppendAnims bool
	// PadAnims grows the new pool to the base pool's size and keeps the
	// base TKL reference.
	PadAnims bool
	// TKLRef names the key pool when not padding; it is cut to six bytes.
	TKLRef    string
	Coords    mathutil.Coords
	FPS       float32
	SideNames bool
	Partition partition.Options
}

func (o ExportOptions) fps() float32 {
	if o.FPS <= 0 {
		return DefaultFPS
	}
	return o.FPS
}

// Export builds a model and key pool from src. The pool is nil when the
// clips come from the base model unchanged. Per-mesh problems are reported
// to col and the mesh is left out; missing bones, an empty LOD set and a
// full key pool abort.
func Export(src Source, opts ExportOptions, col *diag.Collector) (*tmd.Model, *keypool.Pool, error) {
	const op = "scene: export"
	rename := func(s string) string { return s }
	if opts.SideNames {
		rename = FileName
	}
	if !opts.Anims && opts.Base == nil {
		return nil, nil, diag.New(diag.ErrMissingCompanion, op, "keeping the clips needs the source model")
	}

	hostBones := make([]skeleton.HostBone, 0, len(src.Armature()))
	for _, hb := range src.Armature() {
		hb.Name = rename(hb.Name)
		if hb.Parent != "" {
			hb.Parent = rename(hb.Parent)
		}
		hostBones = append(hostBones, hb)
	}

	var ordered []skeleton.HostBone
	if opts.Anims {
		ordered = deformFirst(hostBones)
	} else {
		var err error
		if ordered, err = sourceOrder(hostBones, opts.Base.Skeleton.Names()); err != nil {
			return nil, nil, err
		}
	}
	skel, err := skeleton.FromHost(ordered, opts.Coords)
	if err != nil {
		return nil, nil, err
	}

	m := &tmd.Model{Skeleton: skel}
	if opts.Base != nil {
		m.Header = opts.Base.Header
	}

	var pool *keypool.Pool
	if opts.Anims {
		if pool, err = exportClips(m, src, opts, rename, col); err != nil {
			return nil, nil, err
		}
	} else {
		m.Clips = opts.Base.Clips
	}

	if err := exportLODs(m, src, opts, rename, col); err != nil {
		return nil, nil, err
	}
	return m, pool, nil
}

func exportClips(m *tmd.Model, src Source, opts ExportOptions, rename func(string) string, col *diag.Collector) (*keypool.Pool, error) {
	pool := keypool.New()
	if opts.BasePool != nil {
		if opts.AppendAnims {
			pool = opts.BasePool.Clone()
		} else {
			pool.Header = opts.BasePool.Header
		}
	}

	fps := opts.fps()
	var clips []anim.HostClip
	for _, hc := range src.Clips() {
		if strings.HasPrefix(hc.Name, "*") {
			continue
		}
		name, f1, f2 := splitFlags(hc.Name)
		ac := anim.HostClip{Name: name, Flag1: f1, Flag2: f2, Duration: hc.FrameEnd / fps}
		for _, g := range hc.Groups {
			tr, err := g.Sample(rename(g.Bone), fps)
			if err != nil {
				col.ReportErr(diag.ErrIncompleteKeyframes, "scene: clip "+hc.Name, err)
				continue
			}
			ac.Tracks = append(ac.Tracks, tr)
		}
		clips = append(clips, ac)
	}

	encoded, err := anim.FromHost(clips, m.Skeleton, pool, opts.Coords, col)
	if err != nil {
		return nil, err
	}
	m.Clips = encoded

	ref := opts.TKLRef
	if opts.PadAnims && opts.BasePool != nil {
		pool.PadTo(len(opts.BasePool.Locations), len(opts.BasePool.Rotations))
		ref = m.Header.TKLRef
	}
	if len(ref) > keypool.NameSize {
		ref = ref[:keypool.NameSize]
	}
	if ref != "" {
		m.Header.TKLRef = ref
	}
	return pool, nil
}

// splitFlags takes the two trailing flag digits off a host clip name. Names
// without them keep their text and get zero flags.
func splitFlags(name string) (string, uint32, uint32) {
	n := len(name)
	if n < 2 || !isDigit(name[n-2]) || !isDigit(name[n-1]) {
		return name, 0, 0
	}
	return name[:n-2], uint32(name[n-2] - '0'), uint32(name[n-1] - '0')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func exportLODs(m *tmd.Model, src Source, opts ExportOptions, rename func(string) string, col *diag.Collector) error {
	byLOD := make(map[int][]HostMesh)
	for _, hm := range src.Meshes() {
		byLOD[hm.LOD] = append(byLOD[hm.LOD], hm)
	}
	levels := 0
	for levels < MaxLODs && len(byLOD[levels]) > 0 {
		levels++
	}
	if levels == 0 {
		return diag.New(diag.ErrEmptyMesh, "scene: export", "no meshes on LOD 0")
	}

	bones := m.Skeleton.Names()
	var largest float64
	m.LODs = make([]tmd.LOD, levels)
	for li := 0; li < levels; li++ {
		for _, hm := range byLOD[li] {
			points := make([][3]float32, len(hm.Vertices))
			pm := partition.Mesh{Name: hm.Name, Material: hm.Material, Triangles: hm.Triangles, Vertices: make([]partition.Vertex, len(hm.Vertices))}
			for i, v := range hm.Vertices {
				pv := v
				pv.Weights = make([]partition.Weight, len(v.Weights))
				for wi, w := range v.Weights {
					pv.Weights[wi] = partition.Weight{Bone: rename(w.Bone), Weight: w.Weight}
				}
				pm.Vertices[i] = pv
				points[i] = v.Position
			}
			largest = max(largest, mathutil.MaxDimension(mathutil.Bounds(points)))
			mesh, err := partition.Partition(pm, bones, opts.Partition, col)
			if err != nil {
				col.ReportErr(diag.ErrMalformedContainer, fmt.Sprintf("scene: mesh %q", hm.Name), err)
				continue
			}
			m.LODs[li].Meshes = append(m.LODs[li].Meshes, mesh)
		}
	}

	m.BoundingDistance = float32(2 * largest)
	for li := range m.LODs {
		m.LODs[li].Hints = tmd.Hints(m.BoundingDistance)
	}
	return nil
}

// deformFirst orders bones with deforming bones ahead of the rest, keeping
// the host order within each group.
func deformFirst(bones []skeleton.HostBone) []skeleton.HostBone {
	out := append([]skeleton.HostBone(nil), bones...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deform && !out[j].Deform })
	return out
}

// sourceOrder arranges bones in the order of names. Bones missing on either
// side are a BoneMismatch.
func sourceOrder(bones []skeleton.HostBone, names []string) ([]skeleton.HostBone, error) {
	byName := make(map[string]skeleton.HostBone, len(bones))
	for _, b := range bones {
		byName[b.Name] = b
	}
	var errs diag.List
	out := make([]skeleton.HostBone, 0, len(names))
	for _, n := range names {
		b, ok := byName[n]
		if !ok {
			errs.Add(diag.New(diag.ErrBoneMismatch, "scene: export", "bone %q of the source model is missing", n))
			continue
		}
		out = append(out, b)
		delete(byName, n)
	}
	extra := make([]string, 0, len(byName))
	for n := range byName {
		extra = append(extra, n)
	}
	sort.Strings(extra)
	for _, n := range extra {
		errs.Add(diag.New(diag.ErrBoneMismatch, "scene: export", "bone %q is not in the source model", n))
	}
	return out, errs.Err()
}
