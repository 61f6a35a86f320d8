package tilekit

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// Background fills the screen before Draw is called. Nil leaves the
	// screen as Ebitengine cleared it.
	Background color.Color
	// Draw renders the map after the background. Called once per frame.
	Draw func(screen *ebiten.Image, view *MapView)
	// ShowFPS overlays FPS and TPS in the top-left corner.
	ShowFPS bool
}

type game struct {
	view   *MapView
	cfg    RunConfig
	width  int
	height int
}

// Run opens a window and drives view from the Ebitengine game loop, polling
// real input through an EbitenSource unless another source is set. The
// view is closed when the loop exits.
func Run(view *MapView, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if view.source == nil {
		view.SetInputSource(NewEbitenSource())
	}
	view.Resize(float64(cfg.Width), float64(cfg.Height))

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := &game{view: view, cfg: cfg, width: cfg.Width, height: cfg.Height}
	err := ebiten.RunGame(g)
	if cerr := view.Close(); err == nil {
		err = cerr
	}
	return err
}

func (g *game) Update() error {
	g.view.Update()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.cfg.Background != nil {
		screen.Fill(g.cfg.Background)
	}
	if g.cfg.Draw != nil {
		g.cfg.Draw(screen, g.view)
	}
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nZoom: %.2f",
			ebiten.ActualFPS(), ebiten.ActualTPS(), g.view.camera.Zoom))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.view.Resize(float64(outsideWidth), float64(outsideHeight))
	}
	return outsideWidth, outsideHeight
}
