package tilekit

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// InputSource feeds raw pointer samples into a Normalizer. Poll is called
// once per frame with the frame timestamp; MapView flushes the normalizer
// after each poll.
type InputSource interface {
	Poll(n *Normalizer, now time.Duration)
}

// EbitenSource polls Ebitengine input once per tick and reports it to a
// Normalizer as raw pointer events. The left mouse button is pointer 0;
// touches occupy slots 1-9. Wheel notches are reported as wheel zoom.
type EbitenSource struct {
	mouse    pointerSample
	touchMap [maxPointers]ebiten.TouchID
	touchUse [maxPointers]bool
	touches  [maxPointers]pointerSample
	touchBuf []ebiten.TouchID
}

type pointerSample struct {
	down bool
	x, y float64
}

// NewEbitenSource creates a source with no pointers down.
func NewEbitenSource() *EbitenSource {
	return &EbitenSource{}
}

// Poll reads the current input state and feeds changes into n.
func (s *EbitenSource) Poll(n *Normalizer, now time.Duration) {
	s.pollMouse(n, now)
	s.pollTouches(n, now)
	n.Flush()

	if _, wy := ebiten.Wheel(); wy != 0 {
		mx, my := ebiten.CursorPosition()
		n.Wheel(float64(mx), float64(my), wy)
	}
}

// pollMouse handles the left button as pointer 0.
func (s *EbitenSource) pollMouse(n *Normalizer, now time.Duration) {
	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.mouse = emitTransition(n, 0, s.mouse, pressed, float64(mx), float64(my), now)
}

// pollTouches handles touch input (pointers 1-9).
func (s *EbitenSource) pollTouches(n *Normalizer, now time.Duration) {
	s.touchBuf = ebiten.AppendTouchIDs(s.touchBuf[:0])

	var seen [maxPointers]bool
	for _, tid := range s.touchBuf {
		slot := s.touchSlot(tid)
		if slot < 0 {
			continue
		}
		seen[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		s.touches[slot] = emitTransition(n, slot, s.touches[slot], true, float64(tx), float64(ty), now)
	}

	// Release any touch slots that are no longer active.
	for i := 1; i < maxPointers; i++ {
		if s.touchUse[i] && !seen[i] {
			prev := s.touches[i]
			s.touches[i] = emitTransition(n, i, prev, false, prev.x, prev.y, now)
			s.touchUse[i] = false
			s.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (s *EbitenSource) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if s.touchUse[i] && s.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !s.touchUse[i] {
			s.touchUse[i] = true
			s.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// emitTransition compares a pointer's previous sample with its current one
// and reports the resulting down, move, or up event.
func emitTransition(n *Normalizer, id int, prev pointerSample, pressed bool, x, y float64, now time.Duration) pointerSample {
	switch {
	case pressed && !prev.down:
		n.Handle(PointerEvent{ID: id, Action: PointerDown, X: x, Y: y, Time: now})
	case pressed && prev.down && (x != prev.x || y != prev.y):
		n.Handle(PointerEvent{ID: id, Action: PointerMove, X: x, Y: y, Time: now})
	case !pressed && prev.down:
		n.Handle(PointerEvent{ID: id, Action: PointerUp, X: x, Y: y, Time: now})
	}
	return pointerSample{down: pressed, x: x, y: y}
}
