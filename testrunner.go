package tilekit

import (
	"encoding/json"
	"fmt"
)

// scriptStep represents a single action in a gesture script.
type scriptStep struct {
	Action  string  `json:"action"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	FromY   float64 `json:"fromY,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	ToY     float64 `json:"toY,omitempty"`
	Span    float64 `json:"span,omitempty"`
	ToSpan  float64 `json:"toSpan,omitempty"`
	Degrees float64 `json:"degrees,omitempty"`
	DY      float64 `json:"dy,omitempty"`
	Frames  int     `json:"frames,omitempty"`
	Z       int     `json:"z,omitempty"`
	Token   uint64  `json:"token,omitempty"`
}

// scriptFile is the top-level JSON structure for a gesture script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"tap": true, "doubletap": true, "drag": true, "pinch": true,
	"rotate": true, "shove": true, "wait": true, "request": true, "cancel": true,
}

// GestureScript sequences injected gestures and tile requests across
// frames for automated testing. Attach to a MapView via SetGestureScript.
type GestureScript struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadGestureScript parses a JSON gesture script and returns a runner ready
// to be attached to a MapView via SetGestureScript.
func LoadGestureScript(jsonData []byte) (*GestureScript, error) {
	var script scriptFile
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse gesture script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse gesture script: no steps")
	}
	for i, st := range script.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse gesture script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &GestureScript{steps: script.Steps}, nil
}

// SetGestureScript attaches a script to the view. The script advances from
// MapView.Update before input is processed each frame.
func (v *MapView) SetGestureScript(script *GestureScript) {
	v.runner = script
}

// Done reports whether all steps in the script have been executed.
func (r *GestureScript) Done() bool {
	return r.done
}

// step advances the script by one frame. Called from MapView.Update.
func (r *GestureScript) step(v *MapView) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(v.injectQueue) > 0 {
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
	case "tap":
		v.InjectTap(st.X, st.Y)
	case "doubletap":
		v.InjectDoubleTap(st.X, st.Y)
	case "drag":
		v.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "pinch":
		v.InjectPinch(st.X, st.Y, st.Span, st.ToSpan, st.Frames)
	case "rotate":
		v.InjectRotate(st.X, st.Y, st.Span, st.Degrees, st.Frames)
	case "shove":
		v.InjectShove(st.X, st.Y, st.Span, st.DY, st.Frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "request":
		id := TileID{X: int(st.X), Y: int(st.Y), Z: st.Z}
		if err := v.RequestTile(id, st.Token); err != nil {
			Logger().Warn("gesture script request", "tile", id.String(), "token", st.Token, "err", err)
		}
	case "cancel":
		v.CancelTile(TileID{X: int(st.X), Y: int(st.Y), Z: st.Z})
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(v.injectQueue) == 0 {
		r.done = true
	}
}
