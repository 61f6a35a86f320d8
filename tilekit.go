package tilekit

import "fmt"

// Vec2 is a 2D vector used for screen positions, focal points, and deltas.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// GestureState is a bitmask of the gesture families currently recognized by
// a GestureArbiter. The zero value is GestureIdle. Scaling and Rotating may
// be set together; Shoving is never set alongside either of them.
type GestureState uint8

const (
	GesturePanning  GestureState = 1 << iota // single-pointer scroll in progress
	GestureScaling                           // pinch zoom in progress
	GestureRotating                          // two-finger rotation in progress
	GestureShoving                           // two-finger vertical tilt in progress
)

// GestureIdle means no gesture is recognized.
const GestureIdle GestureState = 0

// Has reports whether all bits in flag are set.
func (s GestureState) Has(flag GestureState) bool {
	return s&flag == flag
}

func (s GestureState) String() string {
	if s == GestureIdle {
		return "idle"
	}
	var out string
	add := func(name string) {
		if out != "" {
			out += "|"
		}
		out += name
	}
	if s.Has(GesturePanning) {
		add("panning")
	}
	if s.Has(GestureScaling) {
		add("scaling")
	}
	if s.Has(GestureRotating) {
		add("rotating")
	}
	if s.Has(GestureShoving) {
		add("shoving")
	}
	return out
}

// PointerAction identifies the phase of a raw pointer event.
type PointerAction uint8

const (
	PointerDown PointerAction = iota // pointer touched / button pressed
	PointerMove                      // pointer moved while down
	PointerUp                        // pointer lifted / button released
)

func (a PointerAction) String() string {
	switch a {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	default:
		return fmt.Sprintf("PointerAction(%d)", uint8(a))
	}
}
