package main

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/plus3/ooscene/ecs"
)

type Position struct {
	ecs.BaseComponent `yaml:",inline"`
	X, Y              float64
}

type Velocity struct {
	ecs.BaseComponent `yaml:",inline"`
	DX, DY            float64
}

type Health struct {
	ecs.BaseComponent `yaml:",inline"`
	Current           int
}

// Wobble is a behaviour that perturbs its owner's position every frame.
type Wobble struct {
	ecs.BaseBehaviour `yaml:",inline"`
	Phase             int
}

func (w *Wobble) Update() {
	w.Phase++
	if pos, err := ecs.GetComponent[Position](w.Owner()); err == nil {
		if w.Phase%2 == 0 {
			pos.X += 0.5
		} else {
			pos.X -= 0.5
		}
	}
}

func registerComponents(r *ecs.ComponentRegistry) int {
	ecs.RegisterComponentAs[Position](r, "position")
	ecs.RegisterComponentAs[Velocity](r, "velocity")
	ecs.RegisterComponentAs[Health](r, "health")
	ecs.RegisterComponentAs[Wobble](r, "wobble")
	return r.Len()
}

// spawner creates entities with a random mix of components.
type spawner struct {
	rng     *rand.Rand
	spawned atomic.Int64
	failed  atomic.Int64
}

func newSpawner(seed uint64) *spawner {
	return &spawner{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *spawner) spawn(scene *ecs.Scene) error {
	e, err := scene.Create(fmt.Sprintf("entity-%d", s.spawned.Load()))
	if err != nil {
		s.failed.Add(1)
		return err
	}

	components := []ecs.Component{
		&Position{X: s.rng.Float64() * 1000, Y: s.rng.Float64() * 1000},
	}
	if s.rng.IntN(2) == 0 {
		components = append(components, &Velocity{DX: s.rng.NormFloat64(), DY: s.rng.NormFloat64()})
	}
	if s.rng.IntN(2) == 0 {
		components = append(components, &Health{Current: s.rng.IntN(200) + 1})
	}
	if s.rng.IntN(4) == 0 {
		components = append(components, &Wobble{})
	}

	for _, c := range components {
		if _, err := e.AddComponent(c); err != nil {
			return err
		}
	}
	s.spawned.Add(1)
	return nil
}

// MoverSystem integrates velocities into positions.
type MoverSystem struct {
	ecs.BaseSystem
	mu     sync.Mutex
	bodies map[*Velocity]struct{}
}

func NewMoverSystem() *MoverSystem {
	return &MoverSystem{bodies: make(map[*Velocity]struct{})}
}

func (s *MoverSystem) OnComponentAdded(c ecs.Component) {
	if v, ok := c.(*Velocity); ok {
		s.mu.Lock()
		s.bodies[v] = struct{}{}
		s.mu.Unlock()
	}
}

func (s *MoverSystem) OnComponentRemoved(c ecs.Component) {
	if v, ok := c.(*Velocity); ok {
		s.mu.Lock()
		delete(s.bodies, v)
		s.mu.Unlock()
	}
}

func (s *MoverSystem) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for v := range s.bodies {
		owner := v.Owner()
		if owner == nil {
			continue
		}
		pos, err := ecs.GetComponent[Position](owner)
		if err != nil {
			continue
		}
		pos.X += v.DX
		pos.Y += v.DY
	}
}

// DecaySystem drains health and disposes entities that reach zero.
type DecaySystem struct {
	ecs.BaseSystem
	scene    *ecs.Scene
	mu       sync.Mutex
	tracked  map[*Health]struct{}
	disposed atomic.Int64
}

func NewDecaySystem(scene *ecs.Scene) *DecaySystem {
	return &DecaySystem{scene: scene, tracked: make(map[*Health]struct{})}
}

func (s *DecaySystem) OnComponentAdded(c ecs.Component) {
	if h, ok := c.(*Health); ok {
		s.mu.Lock()
		s.tracked[h] = struct{}{}
		s.mu.Unlock()
	}
}

func (s *DecaySystem) OnComponentRemoved(c ecs.Component) {
	if h, ok := c.(*Health); ok {
		s.mu.Lock()
		delete(s.tracked, h)
		s.mu.Unlock()
	}
}

func (s *DecaySystem) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h := range s.tracked {
		h.Current--
		if h.Current == 0 && h.Owner() != nil {
			s.scene.Commands().Dispose(h.Owner())
			s.disposed.Add(1)
		}
	}
}

// ChurnSystem queues a fixed number of spawns per frame.
type ChurnSystem struct {
	ecs.BaseSystem
	scene   *ecs.Scene
	spawner *spawner
	perTick int
	logger  *zap.Logger
	warned  atomic.Bool
}

func NewChurnSystem(scene *ecs.Scene, sp *spawner, perTick int) *ChurnSystem {
	return &ChurnSystem{
		scene:   scene,
		spawner: sp,
		perTick: perTick,
		logger:  scene.Logger().Named("churn"),
	}
}

func (s *ChurnSystem) Update() {
	s.scene.Commands().Defer(func() {
		for range s.perTick {
			if err := s.spawner.spawn(s.scene); err != nil {
				if !s.warned.Swap(true) {
					s.logger.Warn("spawn failed", zap.Error(err))
				}
				return
			}
		}
	})
}

// CensusSystem samples the scene population during the draw pass.
type CensusSystem struct {
	ecs.BaseSystem
	scene   *ecs.Scene
	added   atomic.Int64
	removed atomic.Int64
	peak    atomic.Int64
}

func NewCensusSystem(scene *ecs.Scene) *CensusSystem {
	return &CensusSystem{scene: scene}
}

func (s *CensusSystem) OnEntityAdded(*ecs.Entity)   { s.added.Add(1) }
func (s *CensusSystem) OnEntityRemoved(*ecs.Entity) { s.removed.Add(1) }

func (s *CensusSystem) Draw() {
	n := int64(s.scene.EntityCount())
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}
