// Package fanscene renders an animated 3D fan and particle field with a
// CPU render pipeline and exports the scene as a glTF 2.0 document.
//
// The package provides procedural geometry, a scene graph with Euler XYZ
// transforms, a lit scene pass with bloom and ACES tone mapping, a scroll
// and pointer driven animation controller, and an [Ebitengine] host.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and
// drives a [Session] from the game loop:
//
//	s, err := fanscene.NewSession(fanscene.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fanscene.Run(s, fanscene.RunConfig{Title: "fan", ScrollRange: 3000})
//
// For full control, call the session signals yourself. A host calls
// [Session.FrameTick] once per display refresh and forwards input:
//
//	s.OnViewportResize(1280, 720)
//	s.OnScroll(120)
//	s.OnPointerMove(0.25, -0.1)
//	if err := s.FrameTick(elapsed); err != nil {
//		// the frame was skipped; the next tick retries
//	}
//	img := s.Frame() // *image.RGBA at viewport size
//
// # Scene graph
//
// Every object is a [Node] with a local position, Euler XYZ rotation and
// scale. Payloads are a [Mesh] (geometry plus material), a [Light] or a
// [Camera]. World transforms compose parent to child and are cached until
// a setter marks the subtree dirty.
//
//	hub, err := fanscene.Build(fanscene.Cylinder{Radius: 1.1, Height: 0.7, RadialSegments: 48})
//	node := scene.CreateNode(nil, "hub", fanscene.IdentityTransform())
//	node.Attach(fanscene.NewMesh(hub, fanscene.NewStandardMaterial("hub", fanscene.ColorHex(0x111114), 0.5, 0.6)))
//
// # Rendering
//
// [Pipeline.Render] runs three passes: the scene pass rasterizes opaque
// meshes in tree order, transparent meshes back to front and
// point clouds last into an HDR buffer; [BloomFilter] extracts and blurs
// pixels above a luminance threshold over a mip chain; the composite pass
// adds the bloom, tone maps and encodes sRGB.
//
// # Animation
//
// [Animator.Step] smooths the raw scroll offset, spins the blades, bobs and
// tilts the fan, drifts the particles and eases the camera toward the
// pointer. All coefficients live in [Params]; by default increments are per
// invocation, and [Params.FrameRateIndependent] rescales them by the frame
// time.
//
// # Export
//
// [Export] and [Session.ExportScene] write a self-contained glTF 2.0 JSON
// document with base64 buffers, KHR_lights_punctual directional lights and
// KHR_materials_emissive_strength. [ParseDocument] reads one back.
//
// [Ebitengine]: https://ebitengine.org
package fanscene
