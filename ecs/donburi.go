package ecs

import (
	"github.com/phanxgames/tilekit"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// CameraCommandEventType is the Donburi event type for camera commands
// emitted by a MapView's gesture arbiter.
var CameraCommandEventType = events.NewEventType[tilekit.CameraCommand]()

// FetchOutcomeEventType is the Donburi event type for tile fetch outcomes,
// published on the game thread as MapView.Update drains them.
var FetchOutcomeEventType = events.NewEventType[tilekit.FetchOutcome]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are queued and can be consumed with Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) tilekit.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitCommand(cmd tilekit.CameraCommand) {
	CameraCommandEventType.Publish(s.world, cmd)
}

func (s *donburiStore) EmitOutcome(o tilekit.FetchOutcome) {
	FetchOutcomeEventType.Publish(s.world, o)
}
