package tilekit

import "math"

// GestureArbiter fuses independently detected gestures into one stream of
// camera commands. Scale and rotate may run together; shove excludes both.
// Exclusion is enforced only at gesture begin: each Begin method answers
// accept or reject and the event source must not report updates for a
// rejected gesture.
//
// A GestureArbiter is not safe for concurrent use. All methods are expected
// to be called from the input thread, in the order the events occurred.
type GestureArbiter struct {
	sink  CommandSink
	state GestureState

	viewportHeight float64

	// Pivot of the scale gesture. Rotation uses the same pivot so combined
	// pinch+rotate transforms around one point.
	focalX, focalY float64
}

// NewGestureArbiter creates an arbiter that emits into sink. viewportHeight
// is the divisor that normalizes shove distances; values <= 0 leave shove
// deltas in pixels until SetViewportHeight is called.
func NewGestureArbiter(sink CommandSink, viewportHeight float64) *GestureArbiter {
	return &GestureArbiter{sink: sink, viewportHeight: viewportHeight}
}

// SetViewportHeight updates the shove normalization divisor.
func (a *GestureArbiter) SetViewportHeight(pixels float64) {
	a.viewportHeight = pixels
}

// ViewportHeight returns the shove normalization divisor.
func (a *GestureArbiter) ViewportHeight() float64 {
	return a.viewportHeight
}

// State returns the set of currently recognized gestures.
func (a *GestureArbiter) State() GestureState {
	return a.state
}

// Focal returns the current scale pivot.
func (a *GestureArbiter) Focal() (x, y float64) {
	return a.focalX, a.focalY
}

// Reset clears all gesture state without emitting anything.
func (a *GestureArbiter) Reset() {
	a.state = GestureIdle
}

func (a *GestureArbiter) emit(cmd CameraCommand) {
	if a.sink != nil {
		a.sink.ApplyCommand(cmd)
	}
}

// OnSingleTap emits a tap. Taps are always accepted.
func (a *GestureArbiter) OnSingleTap(x, y float64) {
	a.emit(TapCommand(x, y))
}

// OnDoubleTap emits a double tap. The single tap for the same physical
// sequence is not suppressed.
func (a *GestureArbiter) OnDoubleTap(x, y float64) {
	a.emit(DoubleTapCommand(x, y))
}

// OnScroll handles a scroll between two pointer events. startPointers and
// endPointers are the pointer counts of the initial and current events; dx
// and dy follow the scroll-distance convention (previous minus current).
// A pan is emitted only when both events carry exactly one pointer, so a
// two-finger shove never drags the map. Reports whether a pan was emitted.
func (a *GestureArbiter) OnScroll(startPointers, endPointers int, dx, dy, endX, endY float64) bool {
	if startPointers != 1 || endPointers != 1 {
		return false
	}
	a.state |= GesturePanning
	a.emit(PanCommand(endX+dx, endY+dy, endX, endY))
	return true
}

// OnScrollEnd clears Panning once all pointers are lifted.
func (a *GestureArbiter) OnScrollEnd() {
	a.state &^= GesturePanning
}

// OnScaleBegin is called when a pinch starts with its focal point. It
// returns false while a shove is active; otherwise Scaling is set (possibly
// alongside Rotating).
func (a *GestureArbiter) OnScaleBegin(focalX, focalY float64) bool {
	if a.state.Has(GestureShoving) {
		return false
	}
	a.state |= GestureScaling
	a.state &^= GesturePanning
	a.focalX, a.focalY = focalX, focalY
	return true
}

// OnScale emits a pinch about (focalX, focalY) and records the focal point
// as the shared pivot. Ignored while a shove is active.
func (a *GestureArbiter) OnScale(focalX, focalY, scaleFactor float64) {
	if a.state.Has(GestureShoving) {
		return
	}
	a.focalX, a.focalY = focalX, focalY
	a.emit(PinchCommand(focalX, focalY, scaleFactor))
}

// TrackFocus records the current two-pointer midpoint as the pivot without
// starting a gesture, so a rotation that begins before any pinch still has a
// current pivot.
func (a *GestureArbiter) TrackFocus(focalX, focalY float64) {
	a.focalX, a.focalY = focalX, focalY
}

// OnScaleEnd clears Scaling.
func (a *GestureArbiter) OnScaleEnd() {
	a.state &^= GestureScaling
}

// OnRotateBegin returns false while a shove is active; otherwise Rotating is
// set (possibly alongside Scaling).
func (a *GestureArbiter) OnRotateBegin() bool {
	if a.state.Has(GestureShoving) {
		return false
	}
	a.state |= GestureRotating
	a.state &^= GesturePanning
	return true
}

// OnRotate converts a clockwise-positive degree delta into a
// counter-clockwise-positive radian rotation and emits it about the scale
// pivot. The rotate detector's own focal point is intentionally unused.
// Ignored while a shove is active.
func (a *GestureArbiter) OnRotate(_, _, rotationDegreesDelta float64) {
	if a.state.Has(GestureShoving) {
		return
	}
	radians := -rotationDegreesDelta * (math.Pi / 180)
	a.emit(RotateCommand(a.focalX, a.focalY, radians))
}

// OnRotateEnd clears Rotating.
func (a *GestureArbiter) OnRotateEnd() {
	a.state &^= GestureRotating
}

// OnShoveBegin returns false while scaling or rotating; otherwise Shoving is
// set.
func (a *GestureArbiter) OnShoveBegin() bool {
	if a.state&(GestureScaling|GestureRotating) != 0 {
		return false
	}
	a.state |= GestureShoving
	a.state &^= GesturePanning
	return true
}

// OnShove emits a shove normalized by the viewport height. Ignored while
// scaling or rotating.
func (a *GestureArbiter) OnShove(pixelDelta float64) {
	if a.state&(GestureScaling|GestureRotating) != 0 {
		return
	}
	delta := pixelDelta
	if a.viewportHeight > 0 {
		delta = pixelDelta / a.viewportHeight
	}
	a.emit(ShoveCommand(delta))
}

// OnShoveEnd clears Shoving.
func (a *GestureArbiter) OnShoveEnd() {
	a.state &^= GestureShoving
}
