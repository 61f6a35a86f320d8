package tilekit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoadGestureScript(t *testing.T) {
	data := []byte(`{"steps":[
		{"action":"tap","x":10,"y":20},
		{"action":"wait","frames":3},
		{"action":"drag","fromX":0,"fromY":0,"toX":50,"toY":50,"frames":4}
	]}`)
	r, err := LoadGestureScript(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(r.steps))
	}
	if r.steps[2].ToX != 50 || r.steps[2].Frames != 4 {
		t.Errorf("drag step = %+v", r.steps[2])
	}
	if r.Done() {
		t.Error("fresh script should not be done")
	}
}

func TestLoadGestureScriptRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"invalid json", `{not json`, "parse gesture script"},
		{"no steps", `{"steps":[]}`, "no steps"},
		{"unknown action", `{"steps":[{"action":"tap"},{"action":"fling"}]}`, `step 1: unknown action "fling"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGestureScript([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestGestureScriptWaitsForInjections(t *testing.T) {
	r, err := LoadGestureScript([]byte(`{"steps":[
		{"action":"tap","x":5,"y":5},
		{"action":"wait","frames":2},
		{"action":"tap","x":100,"y":100}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	v, _ := newTestView(t, DefaultConfig())
	v.SetGestureScript(r)

	// tap (2 frames) + wait (2 frames) + tap (2 frames)
	runFrames(v, 4)
	if v.Camera().TapCount != 1 {
		t.Fatalf("TapCount = %d after 4 frames, want 1", v.Camera().TapCount)
	}
	runFrames(v, 2)
	if v.Camera().TapCount != 2 {
		t.Fatalf("TapCount = %d after 6 frames, want 2", v.Camera().TapCount)
	}
	if v.Camera().LastTap != (Vec2{X: 100, Y: 100}) {
		t.Errorf("LastTap = %v", v.Camera().LastTap)
	}
	runFrames(v, 1)
	if !r.Done() {
		t.Error("script should be done")
	}
}

func TestGestureScriptDrivesGesturesAndRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, r.URL.Path)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.TileURL = srv.URL + "/{z}/{x}/{y}"
	v, c := newTestView(t, cfg)

	r, err := LoadGestureScript([]byte(`{"steps":[
		{"action":"pinch","x":400,"y":300,"span":100,"toSpan":200,"frames":6},
		{"action":"shove","x":400,"y":300,"span":300,"dy":-60,"frames":6},
		{"action":"request","x":3,"y":5,"z":7,"token":42}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	v.SetGestureScript(r)
	updateUntil(t, v, func() bool { return r.Done() && len(c.successes) == 1 })

	if !approxEqual(v.Camera().Zoom, 2, 1e-9) {
		t.Errorf("Zoom = %f, want 2", v.Camera().Zoom)
	}
	if v.Camera().Tilt <= 0 {
		t.Errorf("Tilt = %f, want positive", v.Camera().Tilt)
	}
	if c.successes[0] != 42 || string(c.data[42]) != "/7/3/5" {
		t.Errorf("success %d with %q", c.successes[0], c.data[42])
	}
}

func TestGestureScriptCancel(t *testing.T) {
	srv, started := blockingServer(t)
	cfg := DefaultConfig()
	cfg.TileURL = srv.URL + "/{z}/{x}/{y}"
	v, c := newTestView(t, cfg)

	r, err := LoadGestureScript([]byte(`{"steps":[
		{"action":"request","x":1,"y":1,"z":1,"token":5}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	v.SetGestureScript(r)
	v.Update()
	waitStarted(t, started)

	r2, _ := LoadGestureScript([]byte(`{"steps":[{"action":"cancel","x":1,"y":1,"z":1}]}`))
	v.SetGestureScript(r2)
	updateUntil(t, v, func() bool { return len(c.failures) == 1 })
	if len(c.successes) != 0 || c.failures[0] != 5 {
		t.Errorf("successes = %v, failures = %v", c.successes, c.failures)
	}
}
