package tilekit

import "math"

// Pointer slots used by injected gestures. Two-pointer gestures use touch
// slots so they never collide with the mouse.
const (
	injectPointerA = 1
	injectPointerB = 2
)

// injectFrame queues one frame of synthetic pointer events.
func (v *MapView) injectFrame(events ...PointerEvent) {
	v.injectQueue = append(v.injectQueue, events)
}

// InjectPress queues a pointer press at the given screen coordinates. The
// event is consumed on the next Update.
func (v *MapView) InjectPress(x, y float64) {
	v.injectFrame(PointerEvent{ID: 0, Action: PointerDown, X: x, Y: y})
}

// InjectMove queues a pointer move with the pointer held down.
func (v *MapView) InjectMove(x, y float64) {
	v.injectFrame(PointerEvent{ID: 0, Action: PointerMove, X: x, Y: y})
}

// InjectRelease queues a pointer release at the given screen coordinates.
func (v *MapView) InjectRelease(x, y float64) {
	v.injectFrame(PointerEvent{ID: 0, Action: PointerUp, X: x, Y: y})
}

// InjectTap queues a press followed by a release at the same screen
// coordinates. Consumes two frames.
func (v *MapView) InjectTap(x, y float64) {
	v.InjectPress(x, y)
	v.InjectRelease(x, y)
}

// InjectDoubleTap queues two taps at the same point. Consumes four frames,
// well inside the default double-tap timeout at any common tick rate.
func (v *MapView) InjectDoubleTap(x, y float64) {
	v.InjectTap(x, y)
	v.InjectTap(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate frames, and
// release at (toX, toY). The total sequence consumes `frames` frames.
// Minimum frames is 2 (press + release).
func (v *MapView) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	v.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		v.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	v.InjectRelease(toX, toY)
}

// twoPointerPose places two pointers symmetrically about (cx, cy) at the
// given span and angle (radians, screen space).
func twoPointerPose(cx, cy, span, angle float64) (ax, ay, bx, by float64) {
	hx := math.Cos(angle) * span / 2
	hy := math.Sin(angle) * span / 2
	return cx - hx, cy - hy, cx + hx, cy + hy
}

// injectTwoPointer queues a two-pointer gesture: both pointers go down at
// pose(0), move through pose(t) for frames-2 intermediate frames, and lift
// at pose(1).
func (v *MapView) injectTwoPointer(frames int, pose func(t float64) (ax, ay, bx, by float64)) {
	if frames < 3 {
		frames = 3
	}
	ax, ay, bx, by := pose(0)
	v.injectFrame(
		PointerEvent{ID: injectPointerA, Action: PointerDown, X: ax, Y: ay},
		PointerEvent{ID: injectPointerB, Action: PointerDown, X: bx, Y: by},
	)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		ax, ay, bx, by = pose(float64(i) / float64(steps))
		v.injectFrame(
			PointerEvent{ID: injectPointerA, Action: PointerMove, X: ax, Y: ay},
			PointerEvent{ID: injectPointerB, Action: PointerMove, X: bx, Y: by},
		)
	}
	v.injectFrame(
		PointerEvent{ID: injectPointerA, Action: PointerUp, X: ax, Y: ay},
		PointerEvent{ID: injectPointerB, Action: PointerUp, X: bx, Y: by},
	)
}

// InjectPinch queues a horizontal two-pointer pinch centred on (cx, cy)
// whose span changes from fromSpan to toSpan.
func (v *MapView) InjectPinch(cx, cy, fromSpan, toSpan float64, frames int) {
	v.injectTwoPointer(frames, func(t float64) (float64, float64, float64, float64) {
		return twoPointerPose(cx, cy, fromSpan+(toSpan-fromSpan)*t, 0)
	})
}

// InjectRotate queues a two-pointer twist about (cx, cy) at a fixed span.
// Positive degrees turn clockwise on screen.
func (v *MapView) InjectRotate(cx, cy, span, degrees float64, frames int) {
	total := degrees * math.Pi / 180
	v.injectTwoPointer(frames, func(t float64) (float64, float64, float64, float64) {
		return twoPointerPose(cx, cy, span, total*t)
	})
}

// InjectShove queues two side-by-side pointers centred on (cx, cy) moving
// vertically together by dy pixels.
func (v *MapView) InjectShove(cx, cy, span, dy float64, frames int) {
	v.injectTwoPointer(frames, func(t float64) (float64, float64, float64, float64) {
		return twoPointerPose(cx, cy+dy*t, span, 0)
	})
}

// PendingInjections returns the number of queued synthetic frames.
func (v *MapView) PendingInjections() int {
	return len(v.injectQueue)
}

// processInjectedInput pops one frame from the inject queue and feeds it
// through the normalizer. Returns true if a frame was consumed (real input
// is skipped for that frame).
func (v *MapView) processInjectedInput() bool {
	if len(v.injectQueue) == 0 {
		return false
	}
	frame := v.injectQueue[0]
	copy(v.injectQueue, v.injectQueue[1:])
	v.injectQueue = v.injectQueue[:len(v.injectQueue)-1]

	for _, ev := range frame {
		ev.Time = v.now
		v.input.Handle(ev)
	}
	return true
}
