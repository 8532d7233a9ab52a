package fanscene

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// captureLogs routes the package logger into a buffer for the rest of the test.
func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func TestDefaultLoggerIsSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled at every level")
	}
}

func TestSetLoggerNilRestoresDefault(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)
	Logger().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("log = %q, want message", buf.String())
	}
	SetLogger(nil)
	buf.Reset()
	Logger().Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("log = %q, want nothing after SetLogger(nil)", buf.String())
	}
}

func TestNopHandlerDerived(t *testing.T) {
	h := nopHandler{}
	if h.WithAttrs([]slog.Attr{slog.Int("a", 1)}).Enabled(context.Background(), slog.LevelError) {
		t.Error("WithAttrs should stay disabled")
	}
	if h.WithGroup("g").Enabled(context.Background(), slog.LevelError) {
		t.Error("WithGroup should stay disabled")
	}
}

func TestViewportRejectionLogged(t *testing.T) {
	buf := captureLogs(t, slog.LevelWarn)
	v := NewViewportManager(nil, nil)
	_ = v.Resize(0, 600)
	out := buf.String()
	if !strings.Contains(out, "viewport resize rejected") || !strings.Contains(out, "level=WARN") {
		t.Errorf("log = %q, want a warning for the rejected size", out)
	}
}
