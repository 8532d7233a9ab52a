package fanscene

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// scriptStep is a single action in a playback script.
type scriptStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	Value   float64 `json:"value,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
	Ease    string  `json:"ease,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

// scriptFile is the top-level JSON structure of a script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// Script replays recorded input signals, exports and screenshots against a
// Session, one action per frame. Drive it with Play for headless runs or
// call Step before and AfterFrame after every FrameTick from a host loop.
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool

	shots    []string
	exported []string
	errs     []error
}

// LoadScript parses a JSON script.
//
//	{"steps": [
//		{"action": "resize", "width": 1280, "height": 720},
//		{"action": "scroll", "value": 100},
//		{"action": "scrollTo", "value": 400, "seconds": 1.5, "ease": "in-out-cubic"},
//		{"action": "pointer", "x": 0.5, "y": -0.25},
//		{"action": "tick", "frames": 10},
//		{"action": "screenshot", "label": "after-scroll"},
//		{"action": "export", "label": "scene"}
//	]}
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "scroll", "pointer", "resize", "tick", "screenshot", "export":
		case "scrollTo":
			if _, err := EaseByName(st.Ease); err != nil {
				return nil, fmt.Errorf("parse script: step %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: f.Steps}, nil
}

// Done reports whether every step has run.
func (r *Script) Done() bool { return r.done }

// Exported returns the paths of documents written by export steps so far.
func (r *Script) Exported() []string { return r.exported }

// Err returns the export, screenshot and resize failures collected so far.
func (r *Script) Err() error { return errors.Join(r.errs...) }

// Step runs the next action. Call it once per frame before FrameTick.
func (r *Script) Step(s *Session) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "scroll":
		s.OnScroll(st.Value)
	case "scrollTo":
		fn, _ := EaseByName(st.Ease)
		s.ScrollTo(st.Value, st.Seconds, fn)
	case "pointer":
		s.OnPointerMove(st.X, st.Y)
	case "resize":
		if err := s.OnViewportResize(st.Width, st.Height); err != nil {
			r.errs = append(r.errs, fmt.Errorf("step %d: %w", r.cursor-1, err))
		}
	case "tick":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "screenshot":
		r.shots = append(r.shots, st.Label)
	case "export":
		r.export(s, st.Label)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

// AfterFrame captures the screenshots queued during this frame. Call it
// once per frame after FrameTick.
func (r *Script) AfterFrame(s *Session) {
	for _, label := range r.shots {
		if _, err := s.Screenshot(label); err != nil {
			r.errs = append(r.errs, err)
		}
	}
	r.shots = r.shots[:0]
}

func (r *Script) export(s *Session, label string) {
	if label == "" {
		label = "scene"
	}
	path := filepath.Join(s.cfg.Render.ExportDir, sanitizeLabel(label)+".gltf")
	s.ExportScene(
		func(doc []byte) {
			if err := writeFile(path, doc); err != nil {
				r.errs = append(r.errs, fmt.Errorf("export %s: %w", label, err))
				return
			}
			r.exported = append(r.exported, path)
		},
		func(reason string) {
			r.errs = append(r.errs, fmt.Errorf("export %s: %s", label, reason))
		},
	)
}

// Play runs the script headlessly against s, advancing elapsed time by dt
// seconds per frame, then waits for outstanding exports. Render failures
// skip frames as in a live loop; they are not returned. The returned error
// joins every failed export, screenshot and resize.
func Play(s *Session, r *Script, dt float64) error {
	if !(dt > 0) {
		dt = 1.0 / ReferenceRate
	}
	elapsed := s.lastElapsed
	for !r.Done() {
		r.Step(s)
		_ = s.FrameTick(elapsed)
		r.AfterFrame(s)
		elapsed += dt
	}
	s.FlushExports(true)
	return r.Err()
}
