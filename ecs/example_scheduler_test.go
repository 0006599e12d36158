package ecs_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plus3/ooscene/ecs"
)

type Transform struct {
	ecs.BaseComponent
	X, Y float32
}

type Speed struct {
	ecs.BaseComponent
	DX, DY float32
}

type PhysicsSystem struct {
	ecs.BaseSystem
	mu     sync.Mutex
	bodies []*ecs.Entity
}

func (s *PhysicsSystem) OnEntityAdded(e *ecs.Entity) {
	if ok, _ := ecs.HasComponent[Speed](e); ok {
		s.mu.Lock()
		s.bodies = append(s.bodies, e)
		s.mu.Unlock()
	}
}

func (s *PhysicsSystem) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.bodies {
		transform := ecs.MustGetComponent[Transform](e)
		speed := ecs.MustGetComponent[Speed](e)
		transform.X += speed.DX
		transform.Y += speed.DY
	}
}

// ExampleScheduler demonstrates driving a scene with a Scheduler. Once runs a
// single iteration: flush, general update, behaviour update, general draw and
// behaviour draw. Run repeats iterations on a ticker until its context is
// cancelled.
func ExampleScheduler() {
	scene := ecs.NewScene()
	scene.AddSystem(&PhysicsSystem{})

	ball, _ := scene.Create("ball")
	transform, _ := ecs.AddComponent[Transform](ball)
	speed, _ := ecs.AddComponent[Speed](ball)
	speed.DX, speed.DY = 2, 1

	scheduler := ecs.NewScheduler(scene)
	for range 3 {
		_ = scheduler.Once()
	}
	fmt.Printf("After %d frames: (%.0f, %.0f)\n", scheduler.Frames(), transform.X, transform.Y)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = scheduler.Run(ctx, time.Millisecond)

	fmt.Println("Moved further:", transform.X > 6)

	stats := scene.Stats()
	fmt.Printf("%s ran %v\n", stats.Systems[0].Name, stats.Systems[0].Update.ExecutionCount == scheduler.Frames())

	// Output:
	// After 3 frames: (6, 3)
	// Moved further: true
	// PhysicsSystem ran true
}
