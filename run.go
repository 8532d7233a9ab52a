package fanscene

import (
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title string
	// ScrollRange bounds the raw scroll offset; End scrolls to it.
	// Zero leaves the offset unbounded above.
	ScrollRange float64
	// WheelStep is the scroll offset per wheel notch.
	WheelStep float64
	// Script, when set, is replayed one action per frame. The window closes
	// once it is done and its exports are delivered.
	Script *Script
	// ShowFPS draws the actual FPS and TPS in the top-left corner.
	ShowFPS bool
}

// Run opens a resizable window and drives s from ebiten's game loop: input
// signals in Update, one FrameTick per displayed frame, and presentation of
// the composited frame in Draw. It blocks until the window is closed.
func Run(s *Session, cfg RunConfig) error {
	if cfg.Title == "" {
		cfg.Title = "fanscene"
	}
	w, h := s.Viewport().Size()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ebiten.SyncWithFPS)

	g := &gameShell{
		session: s,
		input:   newInputState(cfg.WheelStep, cfg.ScrollRange),
		script:  cfg.Script,
		showFPS: cfg.ShowFPS,
		start:   time.Now(),
	}
	if err := ebiten.RunGame(g); err != nil {
		return err
	}
	return g.err
}

// gameShell adapts a Session to ebiten.Game.
type gameShell struct {
	session *Session
	input   *inputState
	script  *Script
	showFPS bool

	start   time.Time
	present *ebiten.Image
	fpsImg  *ebiten.Image
	fpsAge  float64
	lastT   float64
	err     error
}

// Update samples input and runs one frame of animation and rendering.
func (g *gameShell) Update() error {
	s := g.session
	w, h := s.Viewport().Size()

	if g.script != nil {
		g.script.Step(s)
	} else {
		g.input.process(s, w, h)
	}
	if g.input.exportReq {
		g.input.exportReq = false
		g.exportToFile()
	}

	elapsed := time.Since(g.start).Seconds()
	_ = s.FrameTick(elapsed) // logged and skipped by the session

	if g.input.shotReq {
		g.input.shotReq = false
		if _, err := s.Screenshot("manual"); err != nil {
			Logger().Warn("screenshot failed", "err", err)
		}
	}
	if g.script != nil {
		g.script.AfterFrame(s)
		if g.script.Done() {
			s.FlushExports(true)
			g.err = g.script.Err()
			return ebiten.Termination
		}
	}

	g.fpsAge += elapsed - g.lastT
	g.lastT = elapsed
	return nil
}

// exportToFile writes a timestamped glTF document to the export directory.
func (g *gameShell) exportToFile() {
	s := g.session
	stamp := time.Now().Format("20060102_150405")
	path := filepath.Join(s.cfg.Render.ExportDir, fmt.Sprintf("fanscene_%s.gltf", stamp))
	s.ExportScene(
		func(doc []byte) {
			if err := writeFile(path, doc); err != nil {
				Logger().Error("export write failed", "path", path, "err", err)
				return
			}
			Logger().Info("export written", "path", path)
		},
		func(reason string) {
			Logger().Error("export failed", "reason", reason)
		},
	)
}

// Draw presents the last composited frame, scaled to the screen.
func (g *gameShell) Draw(screen *ebiten.Image) {
	frame := g.session.Frame()
	if frame == nil {
		return
	}
	fw, fh := frame.Rect.Dx(), frame.Rect.Dy()
	if g.present == nil || g.present.Bounds().Dx() != fw || g.present.Bounds().Dy() != fh {
		if g.present != nil {
			g.present.Deallocate()
		}
		g.present = ebiten.NewImage(fw, fh)
	}
	g.present.WritePixels(frame.Pix)

	sb := screen.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sb.Dx())/float64(fw), float64(sb.Dy())/float64(fh))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.present, op)

	if g.showFPS {
		g.drawFPS(screen)
	}
}

// drawFPS refreshes the FPS/TPS overlay about twice a second.
func (g *gameShell) drawFPS(screen *ebiten.Image) {
	if g.fpsImg == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		g.fpsImg = ebiten.NewImage(100, 32)
		g.fpsAge = 1
	}
	if g.fpsAge >= 0.5 {
		g.fpsAge = 0
		g.fpsImg.Clear()
		g.fpsImg.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(g.fpsImg, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	screen.DrawImage(g.fpsImg, nil)
}

// Layout forwards window size changes to the session's viewport manager
// and renders at the window size.
func (g *gameShell) Layout(outsideWidth, outsideHeight int) (int, int) {
	if err := g.session.OnViewportResize(outsideWidth, outsideHeight); err != nil {
		// Keep the previous viewport; the manager has logged the rejection.
		w, h := g.session.Viewport().Size()
		return w, h
	}
	return outsideWidth, outsideHeight
}
