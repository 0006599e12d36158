package ecs_test

import (
	"fmt"

	"github.com/plus3/ooscene/ecs"
)

type CleanupSystem struct {
	ecs.BaseSystem
	scene    *ecs.Scene
	entities map[*ecs.Entity]struct{}
}

func (s *CleanupSystem) OnEntityAdded(e *ecs.Entity)   { s.entities[e] = struct{}{} }
func (s *CleanupSystem) OnEntityRemoved(e *ecs.Entity) { delete(s.entities, e) }

func (s *CleanupSystem) Update() {
	deadCount := 0
	for e := range s.entities {
		health, err := ecs.GetComponent[Health](e)
		if err != nil {
			continue
		}
		if health.Current <= 0 {
			s.scene.Commands().Dispose(e)
			deadCount++
		}
	}
	if deadCount > 0 {
		fmt.Printf("Queued %d dead entities for disposal\n", deadCount)
	}
}

// ExampleCommands demonstrates using the command buffer to defer entity
// mutations. Systems in the general update pass run concurrently, so they
// queue structural changes instead of applying them. The buffer is applied at
// the start of the next PrepareForNextIteration, and the resulting events fire
// in that same flush.
func ExampleCommands() {
	scene := ecs.NewScene()
	scene.AddSystem(&CleanupSystem{scene: scene, entities: make(map[*ecs.Entity]struct{})})

	for i, hp := range []int{0, 50, 100} {
		e, _ := scene.Create(fmt.Sprintf("unit-%d", i))
		_, _ = e.AddComponent(&Health{Current: hp, Max: 100})
	}

	scheduler := ecs.NewScheduler(scene)
	_ = scheduler.Once()
	_ = scene.PrepareForNextIteration()

	fmt.Printf("Remaining entities: %d\n", scene.EntityCount())

	// Output:
	// Queued 1 dead entities for disposal
	// Remaining entities: 2
}
