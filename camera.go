package tilekit

import (
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	defaultMinZoom      = 1.0 / 64
	defaultMaxZoom      = 64.0
	defaultMaxTilt      = math.Pi / 3
	doubleTapZoomFactor = 2.0
	doubleTapDuration   = 0.25 // seconds
)

// flyAnim holds active tweens for an animated camera move.
type flyAnim struct {
	tweenX    *gween.Tween
	tweenY    *gween.Tween
	tweenZoom *gween.Tween
	doneX     bool
	doneY     bool
	doneZoom  bool
}

// Camera is a reference CommandSink: a 2D map camera that applies camera
// commands to a center point, zoom, rotation, and tilt. It carries no geo
// projection; world coordinates are whatever units the renderer uses.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the map rotation in radians, counter-clockwise positive.
	Rotation float64
	// Tilt is the pitch in radians; 0 looks straight down.
	Tilt float64
	// Viewport is the screen-space rectangle the camera renders into.
	Viewport Rect

	MinZoom, MaxZoom float64
	MaxTilt          float64

	// LastTap is the screen position of the most recent tap command.
	LastTap  Vec2
	TapCount int

	fly *flyAnim
}

// NewCamera creates a Camera with default limits and the given viewport.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Zoom:     1.0,
		Viewport: viewport,
		MinZoom:  defaultMinZoom,
		MaxZoom:  defaultMaxZoom,
		MaxTilt:  defaultMaxTilt,
	}
}

// SetPosition moves the camera center and stops any animation.
func (c *Camera) SetPosition(x, y float64) {
	c.fly = nil
	c.X, c.Y = x, y
}

// Position returns the camera center.
func (c *Camera) Position() (x, y float64) {
	return c.X, c.Y
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = c.clampZoom(zoom)
}

// SetRotation sets the counter-clockwise rotation in radians.
func (c *Camera) SetRotation(radians float64) {
	c.Rotation = radians
}

// SetTilt sets the tilt in radians, clamped to [0, MaxTilt].
func (c *Camera) SetTilt(radians float64) {
	c.Tilt = math.Max(0, math.Min(radians, c.MaxTilt))
}

// Animating reports whether a FlyTo or double-tap animation is running.
func (c *Camera) Animating() bool {
	return c.fly != nil
}

// FlyTo animates the camera to (x, y) at zoom over duration.
func (c *Camera) FlyTo(x, y, zoom float64, duration time.Duration, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.OutQuad
	}
	secs := float32(duration.Seconds())
	c.fly = &flyAnim{
		tweenX:    gween.New(float32(c.X), float32(x), secs, easeFn),
		tweenY:    gween.New(float32(c.Y), float32(y), secs, easeFn),
		tweenZoom: gween.New(float32(c.Zoom), float32(c.clampZoom(zoom)), secs, easeFn),
	}
}

// Update advances any running animation by dt seconds.
func (c *Camera) Update(dt float32) {
	f := c.fly
	if f == nil {
		return
	}
	if !f.doneX {
		val, done := f.tweenX.Update(dt)
		c.X = float64(val)
		f.doneX = done
	}
	if !f.doneY {
		val, done := f.tweenY.Update(dt)
		c.Y = float64(val)
		f.doneY = done
	}
	if !f.doneZoom {
		val, done := f.tweenZoom.Update(dt)
		c.Zoom = float64(val)
		f.doneZoom = done
	}
	if f.doneX && f.doneY && f.doneZoom {
		c.fly = nil
	}
}

// ApplyCommand applies one gesture command. Direct manipulation cancels any
// running animation.
func (c *Camera) ApplyCommand(cmd CameraCommand) {
	switch cmd.Kind {
	case CommandTap:
		c.LastTap = Vec2{X: cmd.X, Y: cmd.Y}
		c.TapCount++
	case CommandDoubleTap:
		wx, wy := c.ScreenToWorld(cmd.X, cmd.Y)
		c.FlyTo(wx, wy, c.Zoom*doubleTapZoomFactor,
			time.Duration(doubleTapDuration*float64(time.Second)), ease.OutQuad)
	case CommandPan:
		c.fly = nil
		dx, dy := c.screenDeltaToWorld(cmd.EndX-cmd.StartX, cmd.EndY-cmd.StartY)
		c.X -= dx
		c.Y -= dy
	case CommandPinch:
		c.fly = nil
		if cmd.Scale <= 0 {
			return
		}
		wx, wy := c.ScreenToWorld(cmd.X, cmd.Y)
		c.Zoom = c.clampZoom(c.Zoom * cmd.Scale)
		c.pinScreenPoint(cmd.X, cmd.Y, wx, wy)
	case CommandRotate:
		c.fly = nil
		wx, wy := c.ScreenToWorld(cmd.X, cmd.Y)
		c.Rotation += cmd.Radians
		c.pinScreenPoint(cmd.X, cmd.Y, wx, wy)
	case CommandShove:
		c.SetTilt(c.Tilt - cmd.Delta*math.Pi/2)
	}
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	cx, cy := c.viewportCenter()
	dx, dy := c.screenDeltaToWorld(sx-cx, sy-cy)
	return c.X + dx, c.Y + dy
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	cx, cy := c.viewportCenter()
	// Screen Y points down, so a counter-clockwise turn on screen is a
	// rotation by -Rotation in these coordinates.
	dx, dy := wx-c.X, wy-c.Y
	cos, sin := math.Cos(-c.Rotation), math.Sin(-c.Rotation)
	rx := dx*cos - dy*sin
	ry := dx*sin + dy*cos
	return cx + rx*c.Zoom, cy + ry*c.Zoom
}

// screenDeltaToWorld converts a screen-space offset into a world-space
// offset, undoing zoom and rotation.
func (c *Camera) screenDeltaToWorld(dx, dy float64) (float64, float64) {
	dx /= c.Zoom
	dy /= c.Zoom
	cos, sin := math.Cos(c.Rotation), math.Sin(c.Rotation)
	return dx*cos - dy*sin, dx*sin + dy*cos
}

// pinScreenPoint moves the center so world point (wx, wy) is again under
// screen point (sx, sy).
func (c *Camera) pinScreenPoint(sx, sy, wx, wy float64) {
	cx, cy := c.viewportCenter()
	dx, dy := c.screenDeltaToWorld(sx-cx, sy-cy)
	c.X = wx - dx
	c.Y = wy - dy
}

func (c *Camera) viewportCenter() (float64, float64) {
	return c.Viewport.X + c.Viewport.Width/2, c.Viewport.Y + c.Viewport.Height/2
}

func (c *Camera) clampZoom(z float64) float64 {
	return math.Max(c.MinZoom, math.Min(z, c.MaxZoom))
}
