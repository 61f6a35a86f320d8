package ecs

import (
	"testing"

	"github.com/phanxgames/tilekit"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitCommand(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []tilekit.CameraCommand
	CameraCommandEventType.Subscribe(world, func(w donburi.World, c tilekit.CameraCommand) {
		received = append(received, c)
	})

	store.EmitCommand(tilekit.TapCommand(100, 200))
	store.EmitCommand(tilekit.PinchCommand(10, 20, 2.0))

	// Events are queued; process them.
	CameraCommandEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Kind != tilekit.CommandTap || received[0].X != 100 || received[0].Y != 200 {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].Kind != tilekit.CommandPinch || received[1].Scale != 2.0 {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiStore_EmitOutcome(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []tilekit.FetchOutcome
	FetchOutcomeEventType.Subscribe(world, func(w donburi.World, o tilekit.FetchOutcome) {
		received = append(received, o)
	})

	store.EmitOutcome(tilekit.FetchOutcome{Kind: tilekit.OutcomeSuccess, Token: 7, URL: "u", Data: []byte("abc")})
	store.EmitOutcome(tilekit.FetchOutcome{Kind: tilekit.OutcomeFailure, Token: 8, URL: "v"})
	FetchOutcomeEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Token != 7 || string(received[0].Data) != "abc" {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].Kind != tilekit.OutcomeFailure || received[1].Token != 8 {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiStore_ImplementsEntityStore(t *testing.T) {
	world := donburi.NewWorld()
	var store tilekit.EntityStore = NewDonburiStore(world)
	_ = store // compile-time interface check
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	CameraCommandEventType.Subscribe(world, func(w donburi.World, c tilekit.CameraCommand) {
		count1++
	})
	CameraCommandEventType.Subscribe(world, func(w donburi.World, c tilekit.CameraCommand) {
		count2++
	})

	store.EmitCommand(tilekit.ShoveCommand(0.1))
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
