// Package ecs provides ECS adapters for tilekit's map view.
//
// The primary adapter is [NewDonburiStore], which bridges camera commands
// and tile fetch outcomes into a [Donburi] world as typed events. Subscribe
// to [CameraCommandEventType] or [FetchOutcomeEventType] in your ECS
// systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	view.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
