package fanscene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FanAssembly holds the nodes of the procedural fan.
type FanAssembly struct {
	// Frame is the outer group carrying the fan's off-center pose.
	Frame *Node
	// Body is the extruded square frame with its circular opening.
	Body   *Node
	Struts []*Node
	// Blades is the spinning group: hub, sticker and blade meshes.
	Blades     *Node
	Hub        *Node
	Sticker    *Node
	BladeNodes []*Node
}

// newFanAssembly builds the fan under parent. Geometry errors are returned
// unchanged so callers can match ErrInvalidParameter.
func newFanAssembly(parent *Node, cfg FanConfig) (*FanAssembly, error) {
	body, err := Build(ExtrudedProfile{
		Outline:        SquarePath(cfg.FrameSide),
		Holes:          [][]Vec2{CirclePath(cfg.HoleRadius, cfg.HoleSegments)},
		Depth:          cfg.Depth,
		BevelThickness: cfg.BevelThickness,
		BevelSize:      cfg.BevelSize,
		BevelSegments:  cfg.BevelSegments,
	})
	if err != nil {
		return nil, fmt.Errorf("fan frame: %w", err)
	}
	strut, err := Build(Box{
		Width:      cfg.StrutWidth,
		Height:     cfg.StrutLength,
		Depth:      cfg.StrutWidth,
		OffsetAxis: AxisY,
		Offset:     cfg.StrutLength / 2,
	})
	if err != nil {
		return nil, fmt.Errorf("fan strut: %w", err)
	}
	hub, err := Build(Cylinder{
		Radius:         cfg.HubRadius,
		Height:         cfg.HubHeight,
		RadialSegments: cfg.HubSegments,
		RotateAxis:     AxisX,
		RotateAngle:    math.Pi / 2,
	})
	if err != nil {
		return nil, fmt.Errorf("fan hub: %w", err)
	}
	sticker, err := Build(Disc{Radius: cfg.StickerRadius, Segments: cfg.StickerSegments})
	if err != nil {
		return nil, fmt.Errorf("fan sticker: %w", err)
	}
	blade, err := Build(Box{
		Width:      cfg.BladeWidth,
		Height:     cfg.BladeLength,
		Depth:      cfg.BladeThickness,
		OffsetAxis: AxisY,
		Offset:     cfg.HubRadius + cfg.BladeLength/2 - 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("fan blade: %w", err)
	}
	if cfg.BladeCount < 1 {
		return nil, &ParamError{Shape: "fan", Field: "blade count", Value: float64(cfg.BladeCount)}
	}

	frameMat := cfg.FrameMaterial.material("frame")
	hubMat := cfg.HubMaterial.material("hub")
	stickerMat := cfg.StickerMaterial.material("sticker")
	bladeMat := cfg.BladeMaterial.material("blade")

	fan := &FanAssembly{}
	fan.Frame = NewGroup("frame")
	fan.Frame.SetPosition(cfg.Position[0], cfg.Position[1], cfg.Position[2])
	fan.Frame.SetRotation(cfg.Rotation[0], cfg.Rotation[1], cfg.Rotation[2])

	fan.Body = NewMeshNode("frame-body", NewMesh(body, frameMat))
	fan.Frame.AddChild(fan.Body)

	strutMesh := NewMesh(strut, frameMat)
	for i := 0; i < 4; i++ {
		n := NewMeshNode(fmt.Sprintf("strut-%d", i), strutMesh)
		n.SetPosition(0, 0, -cfg.Depth/2)
		n.SetRotation(0, 0, mgl64.DegToRad(90*float64(i)+45))
		fan.Frame.AddChild(n)
		fan.Struts = append(fan.Struts, n)
	}

	fan.Blades = NewGroup("blades")
	fan.Frame.AddChild(fan.Blades)

	fan.Hub = NewMeshNode("hub", NewMesh(hub, hubMat))
	fan.Blades.AddChild(fan.Hub)

	fan.Sticker = NewMeshNode("sticker", NewMesh(sticker, stickerMat))
	fan.Sticker.SetPosition(0, 0, cfg.HubHeight/2+cfg.StickerGap)
	fan.Blades.AddChild(fan.Sticker)

	bladeMesh := NewMesh(blade, bladeMat)
	for i := 0; i < cfg.BladeCount; i++ {
		angle := float64(i) / float64(cfg.BladeCount) * 2 * math.Pi
		n := NewMeshNode(fmt.Sprintf("blade-%d", i), bladeMesh)
		// Spin about the depth axis, then tilt about the blade's own lateral axis.
		rot := mgl64.Rotate3DZ(angle).Mul3(mgl64.Rotate3DX(cfg.BladeTilt))
		n.Rotation = eulerFromMatrix(rot)
		n.MarkDirty()
		fan.Blades.AddChild(n)
		fan.BladeNodes = append(fan.BladeNodes, n)
	}

	parent.AddChild(fan.Frame)
	return fan, nil
}

// FanScene is the complete reference scene: lights, camera, fan and
// particle field.
type FanScene struct {
	*Scene
	Fan       *FanAssembly
	Particles *ParticleField
	Lights    []*Node
}

// NewFanScene builds the reference scene from cfg. Construction errors
// (invalid geometry parameters) are fatal and returned unchanged.
func NewFanScene(cfg Config) (*FanScene, error) {
	s := NewScene()

	cc := cfg.Camera
	aspect := float64(cfg.Viewport.Width) / float64(cfg.Viewport.Height)
	if !(aspect > 0) || !isFinite(aspect) {
		aspect = 1
	}
	camera := NewCameraNode("camera", NewPerspectiveCamera(cc.FOV, aspect, cc.Near, cc.Far))
	camera.SetPosition(cc.Position[0], cc.Position[1], cc.Position[2])
	s.Root().AddChild(camera)
	camera.LookAt(Vec3{})
	s.SetCamera(camera)

	lc := cfg.Lights
	lights := []*Node{
		s.AddAmbientLight("ambient-light", ColorHex(lc.Ambient.Color), lc.Ambient.Intensity),
		s.AddDirectionalLight("key-light", ColorHex(lc.Key.Color), lc.Key.Intensity, Vec3(lc.Key.Position)),
		s.AddDirectionalLight("fill-light", ColorHex(lc.Fill.Color), lc.Fill.Intensity, Vec3(lc.Fill.Position)),
	}

	fan, err := newFanAssembly(s.Root(), cfg.Fan)
	if err != nil {
		return nil, err
	}
	particles, err := newParticleField(s.Root(), cfg.Particles)
	if err != nil {
		return nil, err
	}
	s.Update()
	return &FanScene{Scene: s, Fan: fan, Particles: particles, Lights: lights}, nil
}
