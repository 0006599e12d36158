package ecs_test

import (
	"sync/atomic"

	"github.com/plus3/ooscene/ecs"
)

// Common test component types
type Position struct {
	ecs.BaseComponent `yaml:",inline"`
	X, Y              float32
}

type Velocity struct {
	ecs.BaseComponent `yaml:",inline"`
	DX, DY            float32
}

type Health struct {
	ecs.BaseComponent `yaml:",inline"`
	Current           int
	Max               int
}

// Lifecycle records OnAdded/OnRemoved/Dispose calls.
type Lifecycle struct {
	ecs.BaseComponent
	Added    int
	Removed  int
	Disposed int
}

func (l *Lifecycle) OnAdded()   { l.Added++ }
func (l *Lifecycle) OnRemoved() { l.Removed++ }
func (l *Lifecycle) Dispose()   { l.Disposed++ }

// Spinner is a behaviour counting its callbacks.
type Spinner struct {
	ecs.BaseBehaviour
	Updates int
	Draws   int
}

func (s *Spinner) Update() { s.Updates++ }
func (s *Spinner) Draw()   { s.Draws++ }

// Shape is an interface-typed component used with collections and linear
// lookup.
type Shape interface {
	ecs.Component
	Area() float64
}

type Circle struct {
	Lifecycle
	R float64
}

func (c *Circle) Area() float64 { return 3 * c.R * c.R }

type Square struct {
	Lifecycle
	Side float64
}

func (s *Square) Area() float64 { return s.Side * s.Side }

// eventLog counts scene events.
type eventLog struct {
	entityAdded      []*ecs.Entity
	entityRemoved    []*ecs.Entity
	componentAdded   []ecs.Component
	componentRemoved []ecs.Component
}

func watch(scene *ecs.Scene) *eventLog {
	log := &eventLog{}
	scene.OnEntityAdded(func(e *ecs.Entity) { log.entityAdded = append(log.entityAdded, e) })
	scene.OnEntityRemoved(func(e *ecs.Entity) { log.entityRemoved = append(log.entityRemoved, e) })
	scene.OnComponentAdded(func(c ecs.Component) { log.componentAdded = append(log.componentAdded, c) })
	scene.OnComponentRemoved(func(c ecs.Component) { log.componentRemoved = append(log.componentRemoved, c) })
	return log
}

// CounterSystem counts its Update and Draw calls.
type CounterSystem struct {
	ecs.BaseSystem
	updates atomic.Int64
	draws   atomic.Int64
}

func (s *CounterSystem) Update() { s.updates.Add(1) }
func (s *CounterSystem) Draw()   { s.draws.Add(1) }

// OtherCounterSystem is a distinct type so both can be registered.
type OtherCounterSystem struct {
	CounterSystem
}

type PanickingSystem struct {
	ecs.BaseSystem
}

func (PanickingSystem) Update() { panic("boom") }

// TrackingSystem records the entities it was told about.
type TrackingSystem struct {
	ecs.BaseSystem
	Entities map[*ecs.Entity]bool
	Disposed bool
}

func NewTrackingSystem() *TrackingSystem {
	return &TrackingSystem{Entities: make(map[*ecs.Entity]bool)}
}

func (s *TrackingSystem) OnEntityAdded(e *ecs.Entity)   { s.Entities[e] = true }
func (s *TrackingSystem) OnEntityRemoved(e *ecs.Entity) { delete(s.Entities, e) }
func (s *TrackingSystem) Dispose()                      { s.Disposed = true }
