package fanscene

// LightKind selects the light variant.
type LightKind uint8

const (
	LightAmbient     LightKind = iota // uniform light from every direction
	LightDirectional                  // parallel rays, like the sun
)

// String returns "ambient" or "directional".
func (k LightKind) String() string {
	if k == LightDirectional {
		return "directional"
	}
	return "ambient"
}

// Light is a light payload. A directional light shines along its node's
// world -Z axis, so the direction towards the light is the node's world +Z.
// Use Node.LookAt (or Scene.AddDirectionalLight) to aim it.
type Light struct {
	Kind      LightKind
	Color     Color
	Intensity float64
}

// NewAmbientLight creates an ambient light.
func NewAmbientLight(c Color, intensity float64) *Light {
	return &Light{Kind: LightAmbient, Color: c, Intensity: intensity}
}

// NewDirectionalLight creates a directional light.
func NewDirectionalLight(c Color, intensity float64) *Light {
	return &Light{Kind: LightDirectional, Color: c, Intensity: intensity}
}

// radiance returns color scaled by intensity.
func (l *Light) radiance() Color {
	return l.Color.Scale(l.Intensity)
}

// lightSet is the per-frame summary of all lights reachable from the root.
type lightSet struct {
	ambient     Color
	directional []directionalLight
}

type directionalLight struct {
	toLight  Vec3 // unit vector pointing from the surface towards the light
	radiance Color
}

func (ls *lightSet) reset() {
	ls.ambient = Color{}
	ls.directional = ls.directional[:0]
}

// add accumulates a light whose node has the given world matrix.
func (ls *lightSet) add(l *Light, world Mat4) {
	switch l.Kind {
	case LightAmbient:
		ls.ambient = ls.ambient.Add(l.radiance())
	case LightDirectional:
		dir := world.Col(2).Vec3()
		if dir.Len() < 1e-12 {
			return
		}
		ls.directional = append(ls.directional, directionalLight{
			toLight:  dir.Normalize(),
			radiance: l.radiance(),
		})
	}
}
