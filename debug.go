package tilekit

import "time"

// debugStats holds per-frame metrics.
// Only populated when MapView.debug is true.
type debugStats struct {
	updateTime time.Duration
	commands   int
	outcomes   int
	inFlight   int
	state      GestureState
}

// debugLog logs frame stats at debug level. Idle frames are skipped.
func (v *MapView) debugLog(stats debugStats) {
	if !v.debug {
		return
	}
	if stats.commands == 0 && stats.outcomes == 0 && stats.inFlight == 0 && stats.state == GestureIdle {
		return
	}
	Logger().Debug("frame",
		"update", stats.updateTime,
		"commands", stats.commands,
		"outcomes", stats.outcomes,
		"in_flight", stats.inFlight,
		"gesture", stats.state.String(),
		"zoom", v.camera.Zoom,
	)
}
