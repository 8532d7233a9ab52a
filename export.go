package fanscene

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrExport wraps every failure reported by the scene exporter.
var ErrExport = errors.New("fanscene: export failed")

// exportGenerator is written to the document's asset block.
const exportGenerator = "fanscene"

// snapNode is an immutable copy of one node taken at export time.
// Geometry is shared by reference since it never changes after Build.
type snapNode struct {
	name     string
	local    Transform
	visible  bool
	children []int
	geometry *Geometry
	material *Material // copy
	light    *Light    // copy
	camera   *Camera   // copy
}

// sceneSnapshot is a flattened, depth-first copy of the scene graph.
type sceneSnapshot struct {
	nodes []snapNode
}

// snapshotScene copies the tree rooted at s.Root(). It only reads the graph.
func snapshotScene(s *Scene) *sceneSnapshot {
	snap := &sceneSnapshot{}
	var walk func(n *Node) int
	walk = func(n *Node) int {
		idx := len(snap.nodes)
		sn := snapNode{name: n.Name, local: n.LocalTransform(), visible: n.Visible}
		if n.Mesh != nil {
			sn.geometry = n.Mesh.Geometry
			if n.Mesh.Material != nil {
				m := *n.Mesh.Material
				sn.material = &m
			}
		}
		if n.Light != nil {
			l := *n.Light
			sn.light = &l
		}
		if n.Camera != nil {
			c := *n.Camera
			sn.camera = &c
		}
		snap.nodes = append(snap.nodes, sn)
		for _, c := range n.children {
			ci := walk(c)
			snap.nodes[idx].children = append(snap.nodes[idx].children, ci)
		}
		return idx
	}
	walk(s.root)
	return snap
}

// Export serializes the scene synchronously to a glTF 2.0 JSON document
// with embedded base64 buffers.
func Export(s *Scene) ([]byte, error) {
	return encodeSnapshot(snapshotScene(s))
}

// ParseDocument decodes a document produced by Export.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Asset.Version != "2.0" {
		return nil, fmt.Errorf("parse document: unsupported asset version %q", doc.Asset.Version)
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return nil, fmt.Errorf("parse document: node %d has invalid child %d", i, c)
			}
		}
	}
	return &doc, nil
}

// --- Encoding ---

// meshKey identifies a glTF mesh: one geometry drawn with one material.
type meshKey struct {
	geometry *Geometry
	material int
}

// docEncoder accumulates buffers and tables while walking a snapshot.
type docEncoder struct {
	doc Document
	bin bytes.Buffer

	geom   map[*Geometry][2]int // POSITION and NORMAL accessors (-1 when absent)
	idx    map[*Geometry]int    // indices accessor
	meshes map[meshKey]int
	// Snapshot materials are copies, so they are deduplicated by value.
	mats map[Material]int
}

func encodeSnapshot(snap *sceneSnapshot) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrExport, r)
		}
	}()

	e := &docEncoder{
		geom:   make(map[*Geometry][2]int),
		idx:    make(map[*Geometry]int),
		meshes: make(map[meshKey]int),
		mats:   make(map[Material]int),
	}
	e.doc.Asset = DocumentAsset{Version: "2.0", Generator: exportGenerator}
	e.doc.Nodes = make([]DocumentNode, 0, len(snap.nodes))

	for i := range snap.nodes {
		dn, err := e.node(&snap.nodes[i])
		if err != nil {
			return nil, err
		}
		e.doc.Nodes = append(e.doc.Nodes, dn)
	}
	e.doc.Scenes = []DocumentScene{{Name: "scene", Nodes: []int{0}}}

	if e.bin.Len() > 0 {
		e.doc.Buffers = []DocumentBuffer{{
			ByteLength: e.bin.Len(),
			URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(e.bin.Bytes()),
		}}
	}
	if e.doc.Extensions != nil {
		e.doc.ExtensionsUsed = append(e.doc.ExtensionsUsed, extLightsPunctual)
	}
	for i := range e.doc.Materials {
		if e.doc.Materials[i].Extensions != nil {
			e.doc.ExtensionsUsed = append(e.doc.ExtensionsUsed, extEmissiveStrength)
			break
		}
	}

	out, err = json.Marshal(&e.doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrExport, err)
	}
	return out, nil
}

func (e *docEncoder) node(sn *snapNode) (DocumentNode, error) {
	dn := DocumentNode{Name: sn.name, Children: sn.children}
	t := sn.local
	for _, v := range [...]float64{
		t.Position[0], t.Position[1], t.Position[2],
		t.Rotation[0], t.Rotation[1], t.Rotation[2],
		t.Scale[0], t.Scale[1], t.Scale[2],
	} {
		if !isFinite(v) {
			return dn, fmt.Errorf("%w: node %q has a non-finite transform", ErrExport, sn.name)
		}
	}
	if t.Position != (Vec3{}) {
		dn.Translation = []float64{t.Position[0], t.Position[1], t.Position[2]}
	}
	if t.Rotation != (Vec3{}) {
		q := eulerQuat(t.Rotation).Normalize()
		dn.Rotation = []float64{q.V[0], q.V[1], q.V[2], q.W}
	}
	if t.Scale != (Vec3{1, 1, 1}) {
		dn.Scale = []float64{t.Scale[0], t.Scale[1], t.Scale[2]}
	}
	if !sn.visible {
		dn.Extras = &DocumentNodeExtras{Hidden: true}
	}

	switch {
	case sn.geometry != nil || sn.material != nil:
		mi, err := e.mesh(sn)
		if err != nil {
			return dn, err
		}
		dn.Mesh = &mi
	case sn.light != nil:
		if err := e.light(sn, &dn); err != nil {
			return dn, err
		}
	case sn.camera != nil:
		ci, err := e.camera(sn)
		if err != nil {
			return dn, err
		}
		dn.Camera = &ci
	}
	return dn, nil
}

func (e *docEncoder) camera(sn *snapNode) (int, error) {
	c := sn.camera
	if !isFinite(c.FOV) || !isFinite(c.Near) || !isFinite(c.Far) || !isFinite(c.Aspect) || !(c.Near > 0) {
		return 0, fmt.Errorf("%w: camera %q has an invalid projection", ErrExport, sn.name)
	}
	ci := len(e.doc.Cameras)
	e.doc.Cameras = append(e.doc.Cameras, DocumentCamera{
		Name: sn.name,
		Type: "perspective",
		Perspective: DocumentPerspective{
			AspectRatio: c.Aspect,
			YFov:        mgl64.DegToRad(c.FOV),
			ZNear:       c.Near,
			ZFar:        c.Far,
		},
	})
	return ci, nil
}

func (e *docEncoder) light(sn *snapNode, dn *DocumentNode) error {
	l := sn.light
	if !l.Color.finite() || !isFinite(l.Intensity) || l.Intensity < 0 {
		return fmt.Errorf("%w: light %q has an invalid color or intensity", ErrExport, sn.name)
	}
	dl := DocumentLight{
		Name:      sn.name,
		Color:     [3]float64{l.Color.R, l.Color.G, l.Color.B},
		Intensity: l.Intensity,
	}
	switch l.Kind {
	case LightDirectional:
		dl.Type = "directional"
		if e.doc.Extensions == nil {
			e.doc.Extensions = &DocumentExtensions{LightsPunctual: &DocumentLights{}}
		}
		lights := e.doc.Extensions.LightsPunctual
		dn.Extensions = &NodeExtensions{LightsPunctual: &NodeLight{Light: len(lights.Lights)}}
		lights.Lights = append(lights.Lights, dl)
	case LightAmbient:
		dl.Type = "ambient"
		if dn.Extras == nil {
			dn.Extras = &DocumentNodeExtras{}
		}
		dn.Extras.AmbientLight = &dl
	default:
		return fmt.Errorf("%w: light %q has unsupported kind %d", ErrExport, sn.name, l.Kind)
	}
	return nil
}

// mesh returns the glTF mesh index for a node, writing accessors for its
// geometry on first use.
func (e *docEncoder) mesh(sn *snapNode) (int, error) {
	g, m := sn.geometry, sn.material
	if g == nil {
		return 0, fmt.Errorf("%w: mesh node %q has no geometry", ErrExport, sn.name)
	}
	if m == nil {
		return 0, fmt.Errorf("%w: mesh node %q has no material", ErrExport, sn.name)
	}
	if err := m.check(); err != nil {
		return 0, fmt.Errorf("%w: node %q: %w", ErrExport, sn.name, err)
	}
	points := g.Primitive() == PrimitivePoints
	if m.Blending == BlendAdditive && !points {
		return 0, fmt.Errorf("%w: node %q: unsupported material feature: additive blending on triangles", ErrExport, sn.name)
	}

	mat, ok := e.mats[*m]
	if !ok {
		mat = len(e.doc.Materials)
		e.doc.Materials = append(e.doc.Materials, encodeMaterial(m, points))
		e.mats[*m] = mat
	}
	key := meshKey{geometry: g, material: mat}
	if mi, ok := e.meshes[key]; ok {
		return mi, nil
	}

	acc, ok := e.geom[g]
	if !ok {
		acc = [2]int{-1, -1}
		lo, hi := g.Bounds()
		acc[0] = e.floatAccessor(g.Positions(), lo[:], hi[:])
		if g.HasNormals() {
			acc[1] = e.floatAccessor(g.Normals(), nil, nil)
		}
		e.geom[g] = acc
	}
	prim := DocumentPrimitive{
		Attributes: map[string]int{"POSITION": acc[0]},
		Material:   &mat,
		Mode:       gltfModeTris,
	}
	if acc[1] >= 0 {
		prim.Attributes["NORMAL"] = acc[1]
	}
	if points {
		prim.Mode = gltfModePoints
	} else if g.IndexCount() > 0 {
		ia, ok := e.idx[g]
		if !ok {
			ia = e.indexAccessor(g.Indices())
			e.idx[g] = ia
		}
		prim.Indices = &ia
	}

	mi := len(e.doc.Meshes)
	e.doc.Meshes = append(e.doc.Meshes, DocumentMesh{Name: sn.name, Primitives: []DocumentPrimitive{prim}})
	e.meshes[key] = mi
	return mi, nil
}

func encodeMaterial(m *Material, points bool) DocumentMaterial {
	dm := DocumentMaterial{
		Name: m.Name,
		PBR: DocumentPBR{
			BaseColorFactor: [4]float64{m.Color.R, m.Color.G, m.Color.B, m.opacity()},
			MetallicFactor:  m.Metalness,
			RoughnessFactor: m.Roughness,
		},
		DoubleSided: m.DoubleSided,
	}
	if m.Transparent {
		dm.AlphaMode = "BLEND"
	}
	if em := m.Emissive; em != (Color{}) && m.EmissiveIntensity > 0 {
		// glTF caps emissiveFactor at 1; the rest goes to the strength extension.
		peak := math.Max(em.R, math.Max(em.G, em.B))
		strength := m.EmissiveIntensity
		if peak > 1 {
			em = em.Scale(1 / peak)
			strength *= peak
		}
		dm.EmissiveFactor = []float64{em.R, em.G, em.B}
		if strength != 1 {
			dm.Extensions = &MaterialExtensions{EmissiveStrength: &EmissiveStrength{EmissiveStrength: strength}}
		}
	}
	if points {
		ex := &DocumentMaterialExtras{PointSize: m.PointSize}
		if m.Blending == BlendAdditive {
			ex.Blending = "additive"
		}
		dm.Extras = ex
	}
	return dm
}

// floatAccessor appends a VEC3 float view and its accessor.
func (e *docEncoder) floatAccessor(data []float32, lo, hi []float64) int {
	view := e.view(len(data)*4, gltfArrayBuffer)
	for _, v := range data {
		_ = binary.Write(&e.bin, binary.LittleEndian, math.Float32bits(v))
	}
	ai := len(e.doc.Accessors)
	e.doc.Accessors = append(e.doc.Accessors, DocumentAccessor{
		BufferView:    view,
		ComponentType: gltfFloat,
		Count:         len(data) / 3,
		Type:          "VEC3",
		Min:           lo,
		Max:           hi,
	})
	return ai
}

// indexAccessor appends a scalar uint32 index view and its accessor.
func (e *docEncoder) indexAccessor(indices []uint32) int {
	view := e.view(len(indices)*4, gltfElementArray)
	for _, v := range indices {
		_ = binary.Write(&e.bin, binary.LittleEndian, v)
	}
	ai := len(e.doc.Accessors)
	e.doc.Accessors = append(e.doc.Accessors, DocumentAccessor{
		BufferView:    view,
		ComponentType: gltfUnsignedInt,
		Count:         len(indices),
		Type:          "SCALAR",
	})
	return ai
}

// view registers a buffer view starting at the current end of the binary
// buffer. Every element is 4 bytes, so views stay 4-byte aligned.
func (e *docEncoder) view(byteLength, target int) int {
	vi := len(e.doc.BufferViews)
	e.doc.BufferViews = append(e.doc.BufferViews, DocumentView{
		Buffer:     0,
		ByteOffset: e.bin.Len(),
		ByteLength: byteLength,
		Target:     target,
	})
	return vi
}

// --- Asynchronous delivery ---

// exportResult is a finished export waiting for delivery on the frame thread.
type exportResult struct {
	doc       []byte
	err       error
	onSuccess func([]byte)
	onError   func(string)
}

// Exporter snapshots the scene on the caller's goroutine, encodes it on a
// background goroutine, and hands results back through Deliver so callbacks
// run on the frame thread.
type Exporter struct {
	results chan exportResult
	pending int
}

// NewExporter creates an exporter.
func NewExporter() *Exporter {
	return &Exporter{results: make(chan exportResult, 4)}
}

// Start snapshots s and begins encoding. Encoding never touches the live
// graph.
func (e *Exporter) Start(s *Scene, onSuccess func([]byte), onError func(string)) {
	snap := snapshotScene(s)
	e.pending++
	go func() {
		doc, err := encodeSnapshot(snap)
		e.results <- exportResult{doc: doc, err: err, onSuccess: onSuccess, onError: onError}
	}()
}

// Pending returns the number of exports started but not yet delivered.
func (e *Exporter) Pending() int { return e.pending }

// Deliver invokes the callbacks of finished exports. With block set it
// waits for every pending export. Returns the number delivered.
func (e *Exporter) Deliver(block bool) int {
	delivered := 0
	for e.pending > 0 {
		var r exportResult
		if block {
			r = <-e.results
		} else {
			select {
			case r = <-e.results:
			default:
				return delivered
			}
		}
		e.pending--
		delivered++
		if r.err != nil {
			Logger().Error("scene export failed", "err", r.err)
			if r.onError != nil {
				r.onError(r.err.Error())
			}
			continue
		}
		Logger().Info("scene exported", "bytes", len(r.doc))
		if r.onSuccess != nil {
			r.onSuccess(r.doc)
		}
	}
	return delivered
}
