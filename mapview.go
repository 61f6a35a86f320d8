package tilekit

import (
	"fmt"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// EntityStore is the interface for optional ECS integration.
// When set on a MapView, emitted camera commands and drained fetch outcomes
// are forwarded to it.
type EntityStore interface {
	EmitCommand(cmd CameraCommand)
	EmitOutcome(o FetchOutcome)
}

type commandHandler struct {
	id uint32
	fn func(CameraCommand)
}

// CallbackHandle allows removing a registered command callback.
type CallbackHandle struct {
	id   uint32
	view *MapView
}

// Remove unregisters the callback. Safe to call more than once.
func (h CallbackHandle) Remove() {
	if h.view == nil {
		return
	}
	hs := h.view.handlers
	for i, e := range hs {
		if e.id == h.id {
			// Fresh slice: dispatch may be ranging over the old one.
			h.view.handlers = slices.Delete(slices.Clone(hs), i, i+1)
			return
		}
	}
}

// MapView is the top-level object that wires input, gesture arbitration,
// the camera, and tile fetching together. Update must be called once per
// frame from the game thread; every callback into the consumer, the command
// handlers, and the EntityStore happens there.
type MapView struct {
	cfg      Config
	camera   *Camera
	arbiter  *GestureArbiter
	input    *Normalizer
	source   InputSource
	fetcher  *FetchManager
	queue    *OutcomeQueue
	consumer TileConsumer
	template URLTemplate
	store    EntityStore
	debug    bool

	handlers []commandHandler
	nextID   uint32

	now         time.Duration
	injectQueue [][]PointerEvent
	runner      *GestureScript

	frameCommands int
}

// NewMapView creates a view delivering tile outcomes to consumer. The cache
// is built from cfg with OpenCache. The view reads no input until
// SetInputSource is called or it is started with Run.
func NewMapView(cfg Config, consumer TileConsumer) (*MapView, error) {
	if consumer == nil {
		return nil, fmt.Errorf("%w: nil tile consumer", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &MapView{
		cfg:      cfg,
		consumer: consumer,
		queue:    NewOutcomeQueue(),
		camera:   NewCamera(Rect{Height: cfg.ViewportHeightPixels}),
	}
	if cfg.TileURL != "" {
		tmpl, err := NewURLTemplate(cfg.TileURL, cfg.Subdomains...)
		if err != nil {
			return nil, err
		}
		v.template = tmpl
	}
	fetcher, err := NewFetchManager(cfg, OpenCache(cfg), v.queue)
	if err != nil {
		return nil, err
	}
	v.fetcher = fetcher
	v.arbiter = NewGestureArbiter(CommandSinkFunc(v.dispatch), cfg.ViewportHeightPixels)
	v.input = NewNormalizer(v.arbiter)
	v.input.DragDeadZone = cfg.DragDeadZone
	v.input.DoubleTapTimeout = cfg.DoubleTapTimeout
	v.input.WheelZoomStep = cfg.WheelZoomStep
	return v, nil
}

// Camera returns the view's camera.
func (v *MapView) Camera() *Camera { return v.camera }

// Arbiter returns the gesture arbiter.
func (v *MapView) Arbiter() *GestureArbiter { return v.arbiter }

// Normalizer returns the pointer normalizer feeding the arbiter.
func (v *MapView) Normalizer() *Normalizer { return v.input }

// Fetcher returns the fetch manager.
func (v *MapView) Fetcher() *FetchManager { return v.fetcher }

// SetInputSource sets where raw pointer input comes from. Nil disables
// polling; injected input still works.
func (v *MapView) SetInputSource(src InputSource) {
	v.source = src
}

// SetEntityStore sets the optional ECS bridge.
func (v *MapView) SetEntityStore(store EntityStore) {
	v.store = store
}

// SetDebugMode enables or disables per-frame stats logging at debug level.
func (v *MapView) SetDebugMode(enabled bool) {
	v.debug = enabled
}

// OnCommand registers a callback for every camera command the arbiter
// emits, called after the camera has applied it.
func (v *MapView) OnCommand(fn func(CameraCommand)) CallbackHandle {
	v.nextID++
	v.handlers = append(v.handlers, commandHandler{id: v.nextID, fn: fn})
	return CallbackHandle{id: v.nextID, view: v}
}

// Resize updates the viewport. The height also normalizes shove deltas.
func (v *MapView) Resize(width, height float64) {
	v.camera.Viewport = Rect{Width: width, Height: height}
	v.arbiter.SetViewportHeight(height)
}

// Update processes input, advances camera animation, and delivers fetch
// outcomes that arrived since the last frame.
func (v *MapView) Update() {
	var t0 time.Time
	if v.debug {
		t0 = time.Now()
	}

	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	tick := time.Second / time.Duration(tps)
	v.now += tick

	if v.runner != nil {
		v.runner.step(v)
	}
	if !v.processInjectedInput() && v.source != nil {
		v.source.Poll(v.input, v.now)
	}
	v.input.Flush()
	v.camera.Update(float32(tick.Seconds()))
	drained := v.queue.DrainFunc(v.deliver)

	if v.debug {
		v.debugLog(debugStats{
			updateTime: time.Since(t0),
			commands:   v.frameCommands,
			outcomes:   drained,
			inFlight:   v.fetcher.InFlight(),
			state:      v.arbiter.State(),
		})
	}
	v.frameCommands = 0
}

// Submit requests url for token. See FetchManager.Submit.
func (v *MapView) Submit(url string, token uint64) error {
	return v.fetcher.Submit(url, token)
}

// Cancel aborts outstanding requests for url.
func (v *MapView) Cancel(url string) {
	v.fetcher.Cancel(url)
}

// TileURL expands id with the configured template.
func (v *MapView) TileURL(id TileID) (string, error) {
	if v.template.Pattern == "" {
		return "", fmt.Errorf("%w: no tile_url configured", ErrInvalidConfig)
	}
	return v.template.Expand(id), nil
}

// RequestTile submits the URL of id for token.
func (v *MapView) RequestTile(id TileID, token uint64) error {
	url, err := v.TileURL(id)
	if err != nil {
		return err
	}
	return v.fetcher.Submit(url, token)
}

// CancelTile aborts outstanding requests for id.
func (v *MapView) CancelTile(id TileID) {
	if url, err := v.TileURL(id); err == nil {
		v.fetcher.Cancel(url)
	}
}

// Close cancels every outstanding request, waits for the workers, and
// delivers the resulting outcomes to the consumer.
func (v *MapView) Close() error {
	err := v.fetcher.Close()
	v.queue.DrainFunc(v.deliver)
	return err
}

func (v *MapView) dispatch(cmd CameraCommand) {
	v.frameCommands++
	v.camera.ApplyCommand(cmd)
	for _, h := range v.handlers {
		h.fn(cmd)
	}
	if v.store != nil {
		v.store.EmitCommand(cmd)
	}
}

func (v *MapView) deliver(o FetchOutcome) {
	switch o.Kind {
	case OutcomeSuccess:
		v.consumer.DeliverSuccess(o.Data, o.Token)
	default:
		v.consumer.DeliverFailure(o.Token)
	}
	if v.store != nil {
		v.store.EmitOutcome(o)
	}
}
