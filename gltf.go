package fanscene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// glTF 2.0 constants used by the exporter.
const (
	gltfFloat        = 5126
	gltfUnsignedInt  = 5125
	gltfArrayBuffer  = 34962
	gltfElementArray = 34963
	gltfModePoints   = 0
	gltfModeTris     = 4

	extLightsPunctual   = "KHR_lights_punctual"
	extEmissiveStrength = "KHR_materials_emissive_strength"
)

// Document is a glTF 2.0 JSON document as written by Export.
type Document struct {
	Asset          DocumentAsset       `json:"asset"`
	ExtensionsUsed []string            `json:"extensionsUsed,omitempty"`
	Extensions     *DocumentExtensions `json:"extensions,omitempty"`
	Scene          int                 `json:"scene"`
	Scenes         []DocumentScene     `json:"scenes"`
	Nodes          []DocumentNode      `json:"nodes"`
	Meshes         []DocumentMesh      `json:"meshes,omitempty"`
	Materials      []DocumentMaterial  `json:"materials,omitempty"`
	Cameras        []DocumentCamera    `json:"cameras,omitempty"`
	Accessors      []DocumentAccessor  `json:"accessors,omitempty"`
	BufferViews    []DocumentView      `json:"bufferViews,omitempty"`
	Buffers        []DocumentBuffer    `json:"buffers,omitempty"`
}

type DocumentAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type DocumentExtensions struct {
	LightsPunctual *DocumentLights `json:"KHR_lights_punctual,omitempty"`
}

type DocumentLights struct {
	Lights []DocumentLight `json:"lights"`
}

type DocumentLight struct {
	Name      string     `json:"name,omitempty"`
	Type      string     `json:"type"`
	Color     [3]float64 `json:"color"`
	Intensity float64    `json:"intensity"`
}

type DocumentScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes"`
}

// DocumentNode is a glTF node. Absent transform arrays mean identity.
type DocumentNode struct {
	Name        string              `json:"name,omitempty"`
	Children    []int               `json:"children,omitempty"`
	Translation []float64           `json:"translation,omitempty"`
	Rotation    []float64           `json:"rotation,omitempty"` // quaternion x, y, z, w
	Scale       []float64           `json:"scale,omitempty"`
	Mesh        *int                `json:"mesh,omitempty"`
	Camera      *int                `json:"camera,omitempty"`
	Extensions  *NodeExtensions     `json:"extensions,omitempty"`
	Extras      *DocumentNodeExtras `json:"extras,omitempty"`
}

type NodeExtensions struct {
	LightsPunctual *NodeLight `json:"KHR_lights_punctual,omitempty"`
}

type NodeLight struct {
	Light int `json:"light"`
}

// DocumentNodeExtras carries data glTF has no core field for. Ambient
// lights are not part of KHR_lights_punctual.
type DocumentNodeExtras struct {
	AmbientLight *DocumentLight `json:"ambientLight,omitempty"`
	Hidden       bool           `json:"hidden,omitempty"`
}

// Transform converts the node's glTF TRS back to a local Transform.
func (n *DocumentNode) Transform() Transform {
	t := IdentityTransform()
	if len(n.Translation) == 3 {
		t.Position = Vec3{n.Translation[0], n.Translation[1], n.Translation[2]}
	}
	if len(n.Rotation) == 4 {
		q := mgl64.Quat{W: n.Rotation[3], V: Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
		t.Rotation = eulerFromMatrix(q.Normalize().Mat4().Mat3())
	}
	if len(n.Scale) == 3 {
		t.Scale = Vec3{n.Scale[0], n.Scale[1], n.Scale[2]}
	}
	return t
}

// Quat returns the node's rotation quaternion (identity when absent).
func (n *DocumentNode) Quat() mgl64.Quat {
	if len(n.Rotation) != 4 {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: n.Rotation[3], V: Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
}

type DocumentMesh struct {
	Name       string              `json:"name,omitempty"`
	Primitives []DocumentPrimitive `json:"primitives"`
}

type DocumentPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       int            `json:"mode"`
}

type DocumentMaterial struct {
	Name           string                  `json:"name,omitempty"`
	PBR            DocumentPBR             `json:"pbrMetallicRoughness"`
	EmissiveFactor []float64               `json:"emissiveFactor,omitempty"`
	AlphaMode      string                  `json:"alphaMode,omitempty"`
	DoubleSided    bool                    `json:"doubleSided,omitempty"`
	Extensions     *MaterialExtensions     `json:"extensions,omitempty"`
	Extras         *DocumentMaterialExtras `json:"extras,omitempty"`
}

type DocumentPBR struct {
	BaseColorFactor [4]float64 `json:"baseColorFactor"`
	MetallicFactor  float64    `json:"metallicFactor"`
	RoughnessFactor float64    `json:"roughnessFactor"`
}

type MaterialExtensions struct {
	EmissiveStrength *EmissiveStrength `json:"KHR_materials_emissive_strength,omitempty"`
}

type EmissiveStrength struct {
	EmissiveStrength float64 `json:"emissiveStrength"`
}

// DocumentMaterialExtras keeps point rendering parameters.
type DocumentMaterialExtras struct {
	Blending  string  `json:"blending,omitempty"`
	PointSize float64 `json:"pointSize,omitempty"`
}

type DocumentCamera struct {
	Name        string              `json:"name,omitempty"`
	Type        string              `json:"type"`
	Perspective DocumentPerspective `json:"perspective"`
}

type DocumentPerspective struct {
	AspectRatio float64 `json:"aspectRatio,omitempty"`
	YFov        float64 `json:"yfov"`
	ZNear       float64 `json:"znear"`
	ZFar        float64 `json:"zfar,omitempty"`
}

type DocumentAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

type DocumentView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target,omitempty"`
}

type DocumentBuffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri,omitempty"`
}

// RootNodes returns the indices of the default scene's root nodes.
func (d *Document) RootNodes() []int {
	if d.Scene < 0 || d.Scene >= len(d.Scenes) {
		return nil
	}
	return d.Scenes[d.Scene].Nodes
}

// MaxDepth returns the depth of the deepest node below the scene roots
// (a root has depth 0). Returns -1 for an empty scene.
func (d *Document) MaxDepth() int {
	deepest := -1
	var walk func(i, depth int)
	walk = func(i, depth int) {
		if i < 0 || i >= len(d.Nodes) || depth > len(d.Nodes) {
			return
		}
		deepest = max(deepest, depth)
		for _, c := range d.Nodes[i].Children {
			walk(c, depth+1)
		}
	}
	for _, r := range d.RootNodes() {
		walk(r, 0)
	}
	return deepest
}

// FindNode returns the index of the first node with the given name, or -1.
func (d *Document) FindNode(name string) int {
	for i := range d.Nodes {
		if d.Nodes[i].Name == name {
			return i
		}
	}
	return -1
}
