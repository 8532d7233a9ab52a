package fanscene

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDebugCheckTreeWarnsOnDeepChain(t *testing.T) {
	buf := captureLogs(t, slog.LevelWarn)
	s := NewScene()
	parent := s.Root()
	for i := 0; i < debugMaxTreeDepth+2; i++ {
		parent = s.CreateNode(parent, "link", IdentityTransform())
	}
	debugCheckTree(s)
	if !strings.Contains(buf.String(), "scene tree is unusually deep") {
		t.Errorf("log = %q, want deep tree warning", buf.String())
	}
}

func TestDebugCheckTreeQuietOnShallowTree(t *testing.T) {
	buf := captureLogs(t, slog.LevelWarn)
	s := NewScene()
	s.CreateNode(s.CreateNode(nil, "a", IdentityTransform()), "b", IdentityTransform())
	debugCheckTree(s)
	if buf.Len() != 0 {
		t.Errorf("log = %q, want nothing", buf.String())
	}
}

func TestDebugStatsTotal(t *testing.T) {
	s := debugStats{
		prepareTime:   time.Millisecond,
		sceneTime:     2 * time.Millisecond,
		bloomTime:     3 * time.Millisecond,
		compositeTime: 4 * time.Millisecond,
	}
	if got := s.total(); got != 10*time.Millisecond {
		t.Errorf("total = %v, want 10ms", got)
	}
}

func TestDebugLogOnlyInDebugMode(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)
	p := NewPipeline(testPipelineScene(t), PipelineOptions{})
	if err := p.Resize(16, 16); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "msg=frame") {
		t.Fatalf("log = %q, want no frame stats without debug mode", buf.String())
	}

	p.SetDebugMode(true)
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, key := range []string{"msg=frame", "commands=1", "triangles=", "points=0"} {
		if !strings.Contains(out, key) {
			t.Errorf("log = %q, missing %q", out, key)
		}
	}
}
