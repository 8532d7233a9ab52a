package fanscene

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween/ease"
)

const (
	defaultWheelStep   = 40.0 // scroll offset per wheel notch
	defaultPageSeconds = 0.6  // PageUp/PageDown/Home/End tween duration
)

// pointerNDC maps a window pixel position to normalized pointer
// coordinates in [-1, 1], with +Y up.
func pointerNDC(px, py, w, h int) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	x := float64(px)/float64(w)*2 - 1
	y := -(float64(py)/float64(h)*2 - 1)
	return mathClamp(x, -1, 1), mathClamp(y, -1, 1)
}

// inputState turns ebiten's polled input into session signals. It owns the
// raw scroll offset the way a page owns its scroll position.
type inputState struct {
	wheelStep   float64
	scrollRange float64

	scroll     float64
	cursorX    int
	cursorY    int
	cursorSeen bool

	touchID   ebiten.TouchID
	touchY    int
	touching  bool
	touchBuf  []ebiten.TouchID
	exportReq bool
	shotReq   bool
}

func newInputState(wheelStep, scrollRange float64) *inputState {
	if !(wheelStep > 0) {
		wheelStep = defaultWheelStep
	}
	return &inputState{wheelStep: wheelStep, scrollRange: scrollRange}
}

// setScroll clamps and records a new raw scroll offset.
func (in *inputState) setScroll(s *Session, offset float64) {
	offset = math.Max(offset, 0)
	if in.scrollRange > 0 {
		offset = math.Min(offset, in.scrollRange)
	}
	if offset == in.scroll {
		return
	}
	in.scroll = offset
	s.OnScroll(offset)
}

// scrollTo starts a keyboard scroll tween toward offset.
func (in *inputState) scrollTo(s *Session, offset float64) {
	offset = math.Max(offset, 0)
	if in.scrollRange > 0 {
		offset = math.Min(offset, in.scrollRange)
	}
	in.scroll = offset
	s.ScrollTo(offset, defaultPageSeconds, ease.InOutCubic)
}

// process samples wheel, cursor, touch and keyboard input for a w x h
// window and forwards the resulting signals to s.
func (in *inputState) process(s *Session, w, h int) {
	in.processWheel(s)
	in.processCursor(s, w, h)
	in.processTouch(s, w, h)
	in.processKeys(s, h)
}

func (in *inputState) processWheel(s *Session) {
	_, dy := ebiten.Wheel()
	if dy != 0 {
		// Wheel up scrolls toward the top of the page.
		in.setScroll(s, in.scroll-dy*in.wheelStep)
	}
}

func (in *inputState) processCursor(s *Session, w, h int) {
	mx, my := ebiten.CursorPosition()
	if in.cursorSeen && mx == in.cursorX && my == in.cursorY {
		return
	}
	in.cursorX, in.cursorY, in.cursorSeen = mx, my, true
	s.OnPointerMove(pointerNDC(mx, my, w, h))
}

// processTouch follows the first active touch: it moves the pointer and
// drags the page like a swipe.
func (in *inputState) processTouch(s *Session, w, h int) {
	in.touchBuf = inpututil.AppendJustPressedTouchIDs(in.touchBuf[:0])
	if !in.touching && len(in.touchBuf) > 0 {
		in.touchID = in.touchBuf[0]
		_, in.touchY = ebiten.TouchPosition(in.touchID)
		in.touching = true
	}
	if !in.touching {
		return
	}
	if inpututil.IsTouchJustReleased(in.touchID) {
		in.touching = false
		return
	}
	tx, ty := ebiten.TouchPosition(in.touchID)
	s.OnPointerMove(pointerNDC(tx, ty, w, h))
	if dy := ty - in.touchY; dy != 0 {
		in.setScroll(s, in.scroll-float64(dy))
		in.touchY = ty
	}
}

func (in *inputState) processKeys(s *Session, h int) {
	page := float64(h)
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		in.scrollTo(s, in.scroll+page)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		in.scrollTo(s, in.scroll-page)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		in.scrollTo(s, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		if in.scrollRange > 0 {
			in.scrollTo(s, in.scrollRange)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		in.exportReq = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		in.shotReq = true
	}
}
