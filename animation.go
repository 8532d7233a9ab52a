package fanscene

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ReferenceRate is the invocation rate, in Hz, that the per-invocation
// coefficients were tuned for. Only used when Params.FrameRateIndependent is set.
const ReferenceRate = 60.0

// ErrInvalidParams is wrapped by Params.Validate.
var ErrInvalidParams = errors.New("fanscene: invalid animation params")

// Params holds every animation coefficient. Defaults reproduce the
// reference motion exactly.
type Params struct {
	// SmoothFactor is the per-invocation weight of the scroll smoothing filter.
	SmoothFactor float64 `toml:"smooth_factor" yaml:"smooth_factor"`

	// Blade spin per invocation is BaseSpeed * SpinScale radians (clockwise).
	BaseSpeed float64 `toml:"base_speed" yaml:"base_speed"`
	SpinScale float64 `toml:"spin_scale" yaml:"spin_scale"`

	FanBaseY        float64 `toml:"fan_base_y" yaml:"fan_base_y"`
	FanBobScroll    float64 `toml:"fan_bob_scroll" yaml:"fan_bob_scroll"`
	FanBobAmplitude float64 `toml:"fan_bob_amplitude" yaml:"fan_bob_amplitude"`
	FanBobFreq      float64 `toml:"fan_bob_freq" yaml:"fan_bob_freq"`
	FanBaseYaw      float64 `toml:"fan_base_yaw" yaml:"fan_base_yaw"`
	FanBasePitch    float64 `toml:"fan_base_pitch" yaml:"fan_base_pitch"`
	FanPointerTilt  float64 `toml:"fan_pointer_tilt" yaml:"fan_pointer_tilt"`

	ParticleYawRate  float64 `toml:"particle_yaw_rate" yaml:"particle_yaw_rate"`
	ParticleRollRate float64 `toml:"particle_roll_rate" yaml:"particle_roll_rate"`
	ParticleScroll   float64 `toml:"particle_scroll" yaml:"particle_scroll"`

	CameraParallax float64 `toml:"camera_parallax" yaml:"camera_parallax"`
	CameraEase     float64 `toml:"camera_ease" yaml:"camera_ease"`

	// FrameRateIndependent scales per-invocation increments by the elapsed
	// time since the previous step, relative to ReferenceRate.
	FrameRateIndependent bool `toml:"frame_rate_independent" yaml:"frame_rate_independent"`
}

// DefaultParams returns the reference coefficients.
func DefaultParams() Params {
	return Params{
		SmoothFactor:     0.1,
		BaseSpeed:        15,
		SpinScale:        0.01,
		FanBaseY:         -0.5,
		FanBobScroll:     0.003,
		FanBobAmplitude:  0.05,
		FanBobFreq:       0.5,
		FanBaseYaw:       -0.4,
		FanBasePitch:     0.1,
		FanPointerTilt:   0.1,
		ParticleYawRate:  0.05,
		ParticleRollRate: 0.02,
		ParticleScroll:   0.005,
		CameraParallax:   0.2,
		CameraEase:       0.05,
	}
}

// Validate checks that the filter weights are in (0, 1] and every
// coefficient is finite.
func (p Params) Validate() error {
	if !(p.SmoothFactor > 0 && p.SmoothFactor <= 1) {
		return fmt.Errorf("%w: smooth_factor %v outside (0, 1]", ErrInvalidParams, p.SmoothFactor)
	}
	if !(p.CameraEase > 0 && p.CameraEase <= 1) {
		return fmt.Errorf("%w: camera_ease %v outside (0, 1]", ErrInvalidParams, p.CameraEase)
	}
	for _, v := range []float64{
		p.BaseSpeed, p.SpinScale, p.FanBaseY, p.FanBobScroll, p.FanBobAmplitude,
		p.FanBobFreq, p.FanBaseYaw, p.FanBasePitch, p.FanPointerTilt,
		p.ParticleYawRate, p.ParticleRollRate, p.ParticleScroll, p.CameraParallax,
	} {
		if !isFinite(v) {
			return fmt.Errorf("%w: non-finite coefficient %v", ErrInvalidParams, v)
		}
	}
	return nil
}

// FrameState is the animation state of a session. Input handlers write only
// TargetScroll and the pointer; every other field is owned by Animator.Step.
type FrameState struct {
	Elapsed        float64
	SmoothedScroll float64
	TargetScroll   float64
	PointerX       float64
	PointerY       float64
	Steps          uint64
}

// AnimationTargets are the nodes written by the animator. Nil targets are skipped.
type AnimationTargets struct {
	Fan       *Node
	Blades    *Node
	Particles *Node
	Camera    *Node
}

// Animator advances FrameState and writes the derived transforms into the
// scene graph once per frame.
type Animator struct {
	Params  Params
	targets AnimationTargets
	state   FrameState
	scroll  *ScrollTween
}

// NewAnimator creates an animator for the given targets.
func NewAnimator(p Params, targets AnimationTargets) *Animator {
	return &Animator{Params: p, targets: targets}
}

// State returns a copy of the current frame state.
func (a *Animator) State() FrameState { return a.state }

// SetTargetScroll records the latest raw scroll offset. A running scroll
// tween is cancelled. Non-finite values are ignored.
func (a *Animator) SetTargetScroll(offset float64) {
	if !isFinite(offset) {
		return
	}
	a.scroll = nil
	a.state.TargetScroll = offset
}

// SetPointer records the latest normalized pointer position, clamped to [-1, 1].
// Non-finite values are ignored.
func (a *Animator) SetPointer(x, y float64) {
	if !isFinite(x) || !isFinite(y) {
		return
	}
	a.state.PointerX = mathClamp(x, -1, 1)
	a.state.PointerY = mathClamp(y, -1, 1)
}

// ScrollTo animates the raw target scroll to offset over seconds using fn
// (ease.Linear when nil). The smoothing filter still runs on top.
func (a *Animator) ScrollTo(offset, seconds float64, fn ease.TweenFunc) {
	if !isFinite(offset) {
		return
	}
	a.scroll = NewScrollTween(a.state.TargetScroll, offset, seconds, fn)
}

// Scrolling reports whether a scroll tween is running.
func (a *Animator) Scrolling() bool { return a.scroll != nil }

// Step advances the animation to elapsed seconds since start. elapsed is
// expected to be non-decreasing; smaller values are treated as no time passing.
func (a *Animator) Step(elapsed float64) {
	p := &a.Params
	s := &a.state

	dt := elapsed - s.Elapsed
	if !(dt > 0) {
		dt = 0
		elapsed = s.Elapsed
	}
	s.Elapsed = elapsed
	s.Steps++

	if a.scroll != nil {
		s.TargetScroll = a.scroll.Update(dt)
		if a.scroll.Done {
			a.scroll = nil
		}
	}

	// Per-invocation weights, optionally rescaled to elapsed time.
	smooth, camEase, spin := p.SmoothFactor, p.CameraEase, p.BaseSpeed*p.SpinScale
	if p.FrameRateIndependent {
		k := dt * ReferenceRate
		smooth = 1 - math.Pow(1-smooth, k)
		camEase = 1 - math.Pow(1-camEase, k)
		spin *= k
	}

	s.SmoothedScroll += (s.TargetScroll - s.SmoothedScroll) * smooth

	if n := a.targets.Blades; n != nil {
		n.Rotation[2] = math.Remainder(n.Rotation[2]-spin, 2*math.Pi)
		n.MarkDirty()
	}

	if n := a.targets.Fan; n != nil {
		n.Position[1] = s.SmoothedScroll*p.FanBobScroll + p.FanBaseY +
			math.Sin(s.Elapsed*p.FanBobFreq)*p.FanBobAmplitude
		n.Rotation[1] = p.FanBaseYaw + s.PointerX*p.FanPointerTilt
		n.Rotation[0] = p.FanBasePitch + s.PointerY*p.FanPointerTilt
		n.MarkDirty()
	}

	if n := a.targets.Particles; n != nil {
		n.Rotation[1] = s.Elapsed * p.ParticleYawRate
		n.Rotation[2] = s.Elapsed * p.ParticleRollRate
		n.Position[1] = -s.SmoothedScroll * p.ParticleScroll
		n.MarkDirty()
	}

	if n := a.targets.Camera; n != nil {
		n.Position[0] += (s.PointerX*p.CameraParallax - n.Position[0]) * camEase
		n.Position[1] += (s.PointerY*p.CameraParallax - n.Position[1]) * camEase
		n.MarkDirty()
		n.LookAt(Vec3{})
	}
}

func mathClamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// --- Scroll tweens ---

// ScrollTween eases a scroll offset between two values over a duration.
type ScrollTween struct {
	tween *gween.Tween
	Value float64
	Done  bool
}

// NewScrollTween creates a tween from -> to over seconds using fn
// (ease.Linear when nil). Non-positive durations start finished at to.
func NewScrollTween(from, to, seconds float64, fn ease.TweenFunc) *ScrollTween {
	if fn == nil {
		fn = ease.Linear
	}
	if !(seconds > 0) {
		return &ScrollTween{Value: to, Done: true}
	}
	return &ScrollTween{
		tween: gween.New(float32(from), float32(to), float32(seconds), fn),
		Value: from,
	}
}

// Update advances the tween by dt seconds and returns the current value.
func (t *ScrollTween) Update(dt float64) float64 {
	if t.Done {
		return t.Value
	}
	v, finished := t.tween.Update(float32(dt))
	t.Value = float64(v)
	t.Done = finished
	return t.Value
}

// easings maps the names accepted by EaseByName.
var easings = map[string]ease.TweenFunc{
	"linear":        ease.Linear,
	"in-quad":       ease.InQuad,
	"out-quad":      ease.OutQuad,
	"in-out-quad":   ease.InOutQuad,
	"in-cubic":      ease.InCubic,
	"out-cubic":     ease.OutCubic,
	"in-out-cubic":  ease.InOutCubic,
	"in-out-sine":   ease.InOutSine,
	"out-expo":      ease.OutExpo,
	"in-out-expo":   ease.InOutExpo,
	"out-back":      ease.OutBack,
	"out-bounce":    ease.OutBounce,
	"out-elastic":   ease.OutElastic,
	"in-out-circle": ease.InOutCirc,
}

// EaseByName returns the easing function for a kebab-case name such as
// "in-out-cubic". The empty name selects linear.
func EaseByName(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("fanscene: unknown easing %q", name)
	}
	return fn, nil
}
