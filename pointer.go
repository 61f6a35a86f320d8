package tilekit

import (
	"math"
	"time"
)

// --- Constants ---

const (
	maxPointers             = 10  // pointer 0 = mouse, 1-9 = touch
	defaultDragDeadZone     = 4.0 // pixels
	defaultDoubleTapTimeout = 300 * time.Millisecond
	defaultWheelZoomStep    = 0.1
	maxTapDuration          = 500 * time.Millisecond

	scaleSlop         = 8.0  // span change in pixels before a pinch begins
	rotateSlopDegrees = 5.0  // angle change before a rotation begins
	shoveSlop         = 6.0  // vertical midpoint travel before a shove begins
	shoveMaxAngle     = 20.0 // degrees from horizontal the finger line may tilt
)

// PointerEvent is one raw pointer sample. Time is measured from any fixed
// origin; only differences between events are used.
type PointerEvent struct {
	ID     int
	Action PointerAction
	X, Y   float64
	Time   time.Duration
}

// --- Per-pointer state ---

type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	downTime time.Duration
	moved    bool // left the drag dead zone
}

// --- Two-pointer state ---

type twoFingerState struct {
	active     bool
	pointer0   int
	pointer1   int
	startSpan  float64
	startAngle float64
	startMidY  float64
	startY0    float64
	startY1    float64
	prevSpan   float64
	prevAngle  float64
	prevMidY   float64
	scaling    bool
	rotating   bool
	shoving    bool
	// dirty is set when a pair pointer moved since the last Flush.
	dirty bool
}

// Normalizer turns raw multi-pointer samples into gesture signals for a
// GestureArbiter: taps, double taps, single-pointer scrolls, and the
// two-pointer pinch, rotate, and shove families. Like the arbiter it is
// driven from the input thread only.
type Normalizer struct {
	arbiter *GestureArbiter

	// DragDeadZone is the movement in pixels a pointer must exceed before
	// it stops being a tap and starts scrolling.
	DragDeadZone float64
	// DoubleTapTimeout is the longest gap between two taps that still
	// counts as a double tap.
	DoubleTapTimeout time.Duration
	// WheelZoomStep is the pinch factor contributed by one wheel notch.
	WheelZoomStep float64

	pointers [maxPointers]pointerState
	count    int

	// Pointer count of the event that started the current sequence.
	sequenceStartCount int
	multiTouch         bool
	scrolling          bool

	hasLastTap  bool
	lastTapX    float64
	lastTapY    float64
	lastTapTime time.Duration

	two twoFingerState
}

// NewNormalizer creates a Normalizer feeding arbiter, with default
// thresholds.
func NewNormalizer(arbiter *GestureArbiter) *Normalizer {
	return &Normalizer{
		arbiter:          arbiter,
		DragDeadZone:     defaultDragDeadZone,
		DoubleTapTimeout: defaultDoubleTapTimeout,
		WheelZoomStep:    defaultWheelZoomStep,
	}
}

// Arbiter returns the arbiter this normalizer feeds.
func (n *Normalizer) Arbiter() *GestureArbiter {
	return n.arbiter
}

// ActivePointers returns the number of pointers currently down.
func (n *Normalizer) ActivePointers() int {
	return n.count
}

// Reset forgets all pointers and ends any gesture in progress, e.g. when
// the window loses focus mid-gesture.
func (n *Normalizer) Reset() {
	n.endTwoFinger()
	if n.scrolling {
		n.arbiter.OnScrollEnd()
	}
	n.pointers = [maxPointers]pointerState{}
	n.count = 0
	n.scrolling = false
	n.multiTouch = false
	n.hasLastTap = false
}

// Handle processes one raw pointer sample. Events for unknown pointer IDs
// are ignored.
func (n *Normalizer) Handle(ev PointerEvent) {
	if ev.ID < 0 || ev.ID >= maxPointers {
		return
	}
	ps := &n.pointers[ev.ID]

	switch ev.Action {
	case PointerDown:
		if ps.down {
			n.handleMove(ev.ID, ev.X, ev.Y)
			return
		}
		n.handleDown(ev)
	case PointerMove:
		if !ps.down {
			return
		}
		n.handleMove(ev.ID, ev.X, ev.Y)
	case PointerUp:
		if !ps.down {
			return
		}
		if ev.X != ps.lastX || ev.Y != ps.lastY {
			n.handleMove(ev.ID, ev.X, ev.Y)
		}
		n.handleUp(ev)
	}
}

// Wheel reports a mouse wheel notch at (x, y). Positive delta zooms in.
// Ignored while two pointers are down.
func (n *Normalizer) Wheel(x, y, delta float64) {
	if delta == 0 || n.two.active {
		return
	}
	factor := 1 + n.WheelZoomStep*delta
	if factor < 0.1 {
		factor = 0.1
	}
	if !n.arbiter.OnScaleBegin(x, y) {
		return
	}
	n.arbiter.OnScale(x, y, factor)
	n.arbiter.OnScaleEnd()
}

// Flush evaluates the two-pointer gesture once for all moves handled since
// the previous call. Call it after each frame's samples, once every pointer
// of the pair has reported.
func (n *Normalizer) Flush() {
	if !n.two.active || !n.two.dirty || n.count != 2 {
		return
	}
	n.two.dirty = false
	n.updateTwoFinger()
}

func (n *Normalizer) handleDown(ev PointerEvent) {
	n.Flush()
	ps := &n.pointers[ev.ID]
	ps.down = true
	ps.startX, ps.startY = ev.X, ev.Y
	ps.lastX, ps.lastY = ev.X, ev.Y
	ps.downTime = ev.Time
	ps.moved = false
	n.count++

	if n.count == 1 {
		// Fresh sequence.
		n.sequenceStartCount = 1
		n.multiTouch = false
		n.scrolling = false
		return
	}
	n.multiTouch = true
	if n.count == 2 {
		n.beginTwoFinger()
	} else {
		// A third finger invalidates the two-pointer baseline.
		n.endTwoFinger()
	}
}

func (n *Normalizer) handleMove(id int, x, y float64) {
	ps := &n.pointers[id]
	if x == ps.lastX && y == ps.lastY {
		return
	}

	if !ps.moved {
		dx := x - ps.startX
		dy := y - ps.startY
		if math.Sqrt(dx*dx+dy*dy) > n.DragDeadZone {
			ps.moved = true
			n.scrolling = true
		}
	}

	// Scroll distances run opposite to pointer motion.
	prevX, prevY := ps.lastX, ps.lastY
	ps.lastX, ps.lastY = x, y
	if ps.moved && n.scrolling {
		n.arbiter.OnScroll(n.sequenceStartCount, n.count, prevX-x, prevY-y, x, y)
	}

	if n.two.active && (id == n.two.pointer0 || id == n.two.pointer1) {
		n.two.dirty = true
	}
}

func (n *Normalizer) handleUp(ev PointerEvent) {
	n.Flush()
	ps := &n.pointers[ev.ID]
	wasTap := n.count == 1 && !ps.moved && !n.multiTouch &&
		ev.Time-ps.downTime <= maxTapDuration

	ps.down = false
	n.count--

	if n.count < 2 && n.two.active {
		n.endTwoFinger()
	} else if n.count == 2 {
		n.beginTwoFinger()
	}

	if n.count > 0 {
		return
	}

	if n.scrolling {
		n.arbiter.OnScrollEnd()
		n.scrolling = false
	}
	if wasTap {
		n.tap(ev.X, ev.Y, ev.Time)
	}
}

func (n *Normalizer) tap(x, y float64, at time.Duration) {
	n.arbiter.OnSingleTap(x, y)

	if n.hasLastTap && at-n.lastTapTime <= n.DoubleTapTimeout {
		dx := x - n.lastTapX
		dy := y - n.lastTapY
		slop := 2 * n.DragDeadZone
		if dx*dx+dy*dy <= slop*slop {
			n.hasLastTap = false
			n.arbiter.OnDoubleTap(x, y)
			return
		}
	}
	n.hasLastTap = true
	n.lastTapX, n.lastTapY = x, y
	n.lastTapTime = at
}

// --- Two-pointer detection ---

// activePair returns the two lowest pointer slots that are down.
func (n *Normalizer) activePair() (p0, p1 int, ok bool) {
	found := 0
	for i := 0; i < maxPointers; i++ {
		if !n.pointers[i].down {
			continue
		}
		if found == 0 {
			p0 = i
		} else {
			p1 = i
		}
		found++
		if found == 2 {
			return p0, p1, true
		}
	}
	return 0, 0, false
}

func (n *Normalizer) pairGeometry() (midX, midY, span, angle float64) {
	ps0 := &n.pointers[n.two.pointer0]
	ps1 := &n.pointers[n.two.pointer1]
	midX = (ps0.lastX + ps1.lastX) / 2
	midY = (ps0.lastY + ps1.lastY) / 2
	dx := ps1.lastX - ps0.lastX
	dy := ps1.lastY - ps0.lastY
	span = math.Sqrt(dx*dx + dy*dy)
	angle = math.Atan2(dy, dx)
	return
}

func (n *Normalizer) beginTwoFinger() {
	p0, p1, ok := n.activePair()
	if !ok {
		return
	}
	n.two = twoFingerState{active: true, pointer0: p0, pointer1: p1}
	midX, midY, span, angle := n.pairGeometry()
	n.two.startSpan, n.two.prevSpan = span, span
	n.two.startAngle, n.two.prevAngle = angle, angle
	n.two.startMidY, n.two.prevMidY = midY, midY
	n.two.startY0 = n.pointers[p0].lastY
	n.two.startY1 = n.pointers[p1].lastY
	n.arbiter.TrackFocus(midX, midY)
}

func (n *Normalizer) endTwoFinger() {
	if !n.two.active {
		return
	}
	if n.two.scaling {
		n.arbiter.OnScaleEnd()
	}
	if n.two.rotating {
		n.arbiter.OnRotateEnd()
	}
	if n.two.shoving {
		n.arbiter.OnShoveEnd()
	}
	n.two = twoFingerState{}
}

func (n *Normalizer) updateTwoFinger() {
	t := &n.two
	midX, midY, span, angle := n.pairGeometry()
	// Travel since the pair formed.
	dy0 := n.pointers[t.pointer0].lastY - t.startY0
	dy1 := n.pointers[t.pointer1].lastY - t.startY1

	n.arbiter.TrackFocus(midX, midY)

	if !t.shoving && !t.scaling && !t.rotating && n.isShoveMotion(dy0, dy1, angle, midY) {
		if t.shoving = n.arbiter.OnShoveBegin(); t.shoving {
			// Report the travel that led to recognition.
			t.prevMidY = t.startMidY
		}
	}
	if !t.shoving {
		if !t.scaling && math.Abs(span-t.startSpan) > scaleSlop {
			t.scaling = n.arbiter.OnScaleBegin(midX, midY)
		}
		if !t.rotating && math.Abs(angleDeltaDegrees(angle, t.startAngle)) > rotateSlopDegrees {
			t.rotating = n.arbiter.OnRotateBegin()
		}
	}

	if t.shoving && midY != t.prevMidY {
		n.arbiter.OnShove(midY - t.prevMidY)
	}
	if t.scaling && t.prevSpan > 0 {
		n.arbiter.OnScale(midX, midY, span/t.prevSpan)
	}
	if t.rotating {
		n.arbiter.OnRotate(midX, midY, angleDeltaDegrees(angle, t.prevAngle))
	}

	t.prevSpan = span
	t.prevAngle = angle
	t.prevMidY = midY
}

// isShoveMotion reports whether both pointers have travelled vertically in
// the same direction while the line between them stays near horizontal.
func (n *Normalizer) isShoveMotion(dy0, dy1, angle, midY float64) bool {
	if dy0 == 0 || dy1 == 0 || (dy0 > 0) != (dy1 > 0) {
		return false
	}
	tilt := math.Abs(angle * 180 / math.Pi)
	if tilt > 90 {
		tilt = 180 - tilt
	}
	if tilt > shoveMaxAngle {
		return false
	}
	return math.Abs(midY-n.two.startMidY) > shoveSlop
}

// angleDeltaDegrees returns a-b in degrees wrapped to (-180, 180]. In screen
// space (Y down) a positive result is a clockwise turn.
func angleDeltaDegrees(a, b float64) float64 {
	d := (a - b) * 180 / math.Pi
	for d > 180 {
		d -= 360
	}
	for d <= -180 {
		d += 360
	}
	return d
}
