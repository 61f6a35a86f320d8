// Package tilekit is the input and tile-loading core of an interactive map
// view for [Ebitengine].
//
// It has two halves that meet in [MapView]:
//
//   - Gesture arbitration. A [Normalizer] turns raw pointer samples into
//     taps, scrolls, and two-pointer pinch, rotate, and shove gestures. A
//     [GestureArbiter] decides which of them may run together and emits
//     [CameraCommand]s to a [CommandSink] such as [Camera].
//   - Tile fetching. A [FetchManager] retrieves URLs through a byte-bounded
//     [Cache] and the network, and reports exactly one success or failure
//     per token. Outcomes are queued and handed to a [TileConsumer] on the
//     game thread by [MapView.Update].
//
// # Quick start
//
//	cfg := tilekit.DefaultConfig()
//	cfg.TileURL = "https://{s}.tile.example.org/{z}/{x}/{y}.png"
//	cfg.Subdomains = []string{"a", "b", "c"}
//	view, err := tilekit.NewMapView(cfg, consumer)
//	if err != nil {
//		log.Fatal(err)
//	}
//	view.RequestTile(tilekit.TileID{X: 0, Y: 0, Z: 0}, 1)
//	tilekit.Run(view, tilekit.RunConfig{Title: "Map", Width: 800, Height: 600})
//
// For full control, implement [ebiten.Game] yourself and call
// [MapView.Update] each tick.
//
// # Logging
//
// The package is silent by default. Pass a [log/slog] logger to [SetLogger]
// to see request lifecycles, cache-tier problems, and classified fetch
// failures.
//
// # Configuration
//
// [LoadConfig] reads a config file and TILEKIT_* environment variables on
// top of [DefaultConfig].
//
// Camera animation uses [gween]; ECS integration lives in tilekit/ecs (via
// a [Donburi] adapter).
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package tilekit
