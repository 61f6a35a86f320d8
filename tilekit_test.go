package tilekit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}
	tests := []struct {
		x, y float64
		want bool
	}{
		{10, 20, true},
		{110, 70, true},
		{60, 45, true},
		{9, 45, false},
		{60, 71, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPointerActionString(t *testing.T) {
	if PointerDown.String() != "down" || PointerMove.String() != "move" || PointerUp.String() != "up" {
		t.Error("unexpected action names")
	}
	if PointerAction(9).String() != "PointerAction(9)" {
		t.Errorf("got %q", PointerAction(9).String())
	}
}

func TestLoggerDefaultsSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello")
	SetLogger(nil)
	Logger().Info("dropped")

	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("log = %q", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}
