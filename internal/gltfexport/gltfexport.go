// Package gltfexport writes an imported model as a glTF 2.0 binary. Builder
// is a scene.Sink: bones become a node hierarchy with one skin, host meshes
// become skinned meshes and clips become linear animations.
package gltfexport

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"jpog-tmd/internal/mathutil"
	"jpog-tmd/internal/partition"
	"jpog-tmd/internal/scene"
	"jpog-tmd/internal/skeleton"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// TextureFunc returns the base colour texture of a material, or nil.
type TextureFunc func(material string) (image.Image, error)

// Options controls the document.
type Options struct {
	FPS float32
	// LOD selects the level written, 0 by default; negative writes every
	// level.
	LOD      int
	Textures TextureFunc
}

// Builder accumulates a glTF document.
type Builder struct {
	opts Options
	doc  *gltf.Document

	bones     []skeleton.HostBone
	rest      []mgl32.Mat4
	nodes     map[string]uint32
	joints    map[string]int
	skin      *uint32
	root      uint32
	materials map[string]uint32
}

// New returns an empty document with a single scene.
func New(opts Options) *Builder {
	if opts.FPS <= 0 {
		opts.FPS = scene.DefaultFPS
	}
	doc := &gltf.Document{}
	doc.Asset.Version = "2.0"
	doc.Asset.Generator = "tmdtool"
	doc.Scene = gltf.Index(0)
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	return &Builder{
		opts:      opts,
		doc:       doc,
		nodes:     make(map[string]uint32),
		joints:    make(map[string]int),
		materials: make(map[string]uint32),
	}
}

// Document returns the document built so far.
func (b *Builder) Document() *gltf.Document { return b.doc }

// SetArmature adds the armature node, one node per bone and the skin.
func (b *Builder) SetArmature(name string, bones []skeleton.HostBone) error {
	b.root = uint32(len(b.doc.Nodes))
	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{Name: name})
	b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, b.root)

	b.bones = bones
	first := uint32(len(b.doc.Nodes))
	for i, hb := range bones {
		b.nodes[hb.Name] = first + uint32(i)
		b.joints[hb.Name] = i
	}

	b.rest = make([]mgl32.Mat4, len(bones))
	joints := make([]uint32, len(bones))
	inverse := make([][4][4]float32, len(bones))
	for i, hb := range bones {
		local := hb.Matrix
		if hb.Parent != "" {
			p, ok := b.joints[hb.Parent]
			if !ok {
				return fmt.Errorf("gltfexport: bone %q has unknown parent %q", hb.Name, hb.Parent)
			}
			local = bones[p].Matrix.Inv().Mul4(hb.Matrix)
		}
		b.rest[i] = local
		b.doc.Nodes = append(b.doc.Nodes, trsNode(hb.Name, local))
		joints[i] = first + uint32(i)
		inverse[i] = columns(hb.Matrix.Inv())
	}
	for i, hb := range bones {
		parent := b.root
		if hb.Parent != "" {
			parent = b.nodes[hb.Parent]
		}
		b.doc.Nodes[parent].Children = append(b.doc.Nodes[parent].Children, joints[i])
	}

	if len(bones) == 0 {
		return nil
	}
	ibm := modeler.WriteAccessor(b.doc, gltf.TargetNone, inverse)
	b.skin = gltf.Index(uint32(len(b.doc.Skins)))
	b.doc.Skins = append(b.doc.Skins, &gltf.Skin{
		Name:                name,
		InverseBindMatrices: gltf.Index(ibm),
		Skeleton:            gltf.Index(b.root),
		Joints:              joints,
	})
	return nil
}

func trsNode(name string, m mgl32.Mat4) *gltf.Node {
	q := mathutil.ToQuat(m)
	t := mathutil.Translation(m)
	return &gltf.Node{
		Name:        name,
		Rotation:    [4]float32{q.V[0], q.V[1], q.V[2], q.W},
		Translation: [3]float32{t[0], t[1], t[2]},
		Scale:       [3]float32{1, 1, 1},
	}
}

func columns(m mgl32.Mat4) [4][4]float32 {
	var out [4][4]float32
	for c := 0; c < 4; c++ {
		copy(out[c][:], m[c*4:c*4+4])
	}
	return out
}

// AddMesh writes one mesh with its vertex attributes and a skinned node.
func (b *Builder) AddMesh(m scene.HostMesh) error {
	if b.opts.LOD >= 0 && m.LOD != b.opts.LOD {
		return nil
	}
	if len(m.Triangles) == 0 {
		return nil
	}
	n := len(m.Vertices)
	pos := make([][3]float32, n)
	nrm := make([][3]float32, n)
	uv := make([][2]float32, n)
	jnt := make([][4]uint16, n)
	wgt := make([][4]float32, n)
	for i, v := range m.Vertices {
		pos[i] = v.Position
		nrm[i] = v.Normal
		uv[i] = [2]float32{v.UV[0], 1 - v.UV[1]}
		jnt[i], wgt[i] = b.influences(v.Weights)
	}
	indices := make([]uint32, 0, 3*len(m.Triangles))
	for _, t := range m.Triangles {
		for _, i := range t {
			if i < 0 || i >= n {
				return fmt.Errorf("gltfexport: mesh %q: index %d outside %d vertices", m.Name, i, n)
			}
			indices = append(indices, uint32(i))
		}
	}

	mat, err := b.material(m.Material)
	if err != nil {
		return err
	}
	attrs := gltf.Attribute{
		"POSITION":   modeler.WritePosition(b.doc, pos),
		"NORMAL":     modeler.WriteNormal(b.doc, nrm),
		"TEXCOORD_0": modeler.WriteTextureCoord(b.doc, uv),
	}
	if b.skin != nil {
		attrs["JOINTS_0"] = modeler.WriteJoints(b.doc, jnt)
		attrs["WEIGHTS_0"] = modeler.WriteWeights(b.doc, wgt)
	}
	mesh := &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    gltf.Index(modeler.WriteIndices(b.doc, indices)),
			Material:   gltf.Index(mat),
			Mode:       gltf.PrimitiveTriangles,
		}},
	}
	b.doc.Meshes = append(b.doc.Meshes, mesh)
	node := &gltf.Node{Name: m.Name, Mesh: gltf.Index(uint32(len(b.doc.Meshes) - 1)), Skin: b.skin}
	b.doc.Nodes = append(b.doc.Nodes, node)
	b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, uint32(len(b.doc.Nodes)-1))
	return nil
}

// influences keeps the four heaviest known weights, normalized. Vertices
// without one are bound fully to the first joint.
func (b *Builder) influences(ws []partition.Weight) ([4]uint16, [4]float32) {
	var j [4]uint16
	var w [4]float32
	for _, in := range ws {
		idx, ok := b.joints[in.Bone]
		if !ok || in.Weight <= 0 {
			continue
		}
		// insert keeping w sorted descending
		for k := 0; k < 4; k++ {
			if in.Weight > w[k] {
				copy(j[k+1:], j[k:3])
				copy(w[k+1:], w[k:3])
				j[k], w[k] = uint16(idx), in.Weight
				break
			}
		}
	}
	sum := w[0] + w[1] + w[2] + w[3]
	if sum == 0 {
		return [4]uint16{}, [4]float32{1, 0, 0, 0}
	}
	for k := range w {
		w[k] /= sum
	}
	return j, w
}

func (b *Builder) material(name string) (uint32, error) {
	if idx, ok := b.materials[name]; ok {
		return idx, nil
	}
	white := [4]float32{1, 1, 1, 1}
	gm := &gltf.Material{
		Name:                 name,
		DoubleSided:          true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &white},
	}
	if b.opts.Textures != nil {
		img, err := b.opts.Textures(name)
		if err != nil {
			return 0, fmt.Errorf("gltfexport: material %q: %w", name, err)
		}
		if img != nil {
			tex, err := b.texture(name, img)
			if err != nil {
				return 0, err
			}
			gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
		}
	}
	idx := uint32(len(b.doc.Materials))
	b.doc.Materials = append(b.doc.Materials, gm)
	b.materials[name] = idx
	return idx, nil
}

func (b *Builder) texture(name string, img image.Image) (uint32, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return 0, fmt.Errorf("gltfexport: encode %q: %w", name, err)
	}
	imgIdx, err := modeler.WriteImage(b.doc, name+".png", "image/png", &buf)
	if err != nil {
		return 0, fmt.Errorf("gltfexport: image %q: %w", name, err)
	}
	b.doc.Samplers = append(b.doc.Samplers, &gltf.Sampler{WrapS: gltf.WrapRepeat, WrapT: gltf.WrapRepeat})
	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{
		Sampler: gltf.Index(uint32(len(b.doc.Samplers) - 1)),
		Source:  gltf.Index(imgIdx),
	})
	return uint32(len(b.doc.Textures) - 1), nil
}

// AddClip writes a clip as an animation with a translation and a rotation
// channel per animated bone. Poses are applied on top of the rest pose.
func (b *Builder) AddClip(c scene.HostClip) error {
	a := &gltf.Animation{Name: c.Name}
	for _, g := range c.Groups {
		bi, ok := b.joints[g.Bone]
		if !ok {
			continue
		}
		tr, err := g.Sample(g.Bone, b.opts.FPS)
		if err != nil || len(tr.Times) == 0 {
			continue
		}
		locs := make([][3]float32, len(tr.Poses))
		rots := make([][4]float32, len(tr.Poses))
		for i, pose := range tr.Poses {
			m := b.rest[bi].Mul4(pose)
			t := mathutil.Translation(m)
			q := mathutil.ToQuat(m)
			locs[i] = [3]float32{t[0], t[1], t[2]}
			rots[i] = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
		}
		input := b.timeAccessor(tr.Times)
		node := b.nodes[g.Bone]
		b.channel(a, input, node, gltf.TRSTranslation, modeler.WriteAccessor(b.doc, gltf.TargetNone, locs))
		b.channel(a, input, node, gltf.TRSRotation, modeler.WriteAccessor(b.doc, gltf.TargetNone, rots))
	}
	if len(a.Channels) > 0 {
		b.doc.Animations = append(b.doc.Animations, a)
	}
	return nil
}

func (b *Builder) timeAccessor(times []float32) uint32 {
	idx := modeler.WriteAccessor(b.doc, gltf.TargetNone, times)
	acc := b.doc.Accessors[idx]
	acc.Min = []float32{times[0]}
	acc.Max = []float32{times[len(times)-1]}
	return idx
}

func (b *Builder) channel(a *gltf.Animation, input, node uint32, path gltf.TRSProperty, output uint32) {
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
		Input:         input,
		Output:        output,
		Interpolation: gltf.InterpolationLinear,
	})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target:  gltf.ChannelTarget{Node: gltf.Index(node), Path: path},
	})
}

// WriteBinary encodes the document as a .glb.
func (b *Builder) WriteBinary(w io.Writer) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(b.doc); err != nil {
		return fmt.Errorf("gltfexport: encode: %w", err)
	}
	return nil
}
