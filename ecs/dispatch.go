package ecs

import (
	"reflect"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type systemEntry struct {
	system    System
	typ       reflect.Type
	name      string
	behaviour bool
	subs      [4]uint64
	update    passStatsInternal
	draw      passStatsInternal
}

type pass int

const (
	passUpdate pass = iota
	passDraw
)

func (p pass) String() string {
	if p == passDraw {
		return "draw"
	}
	return "update"
}

// AddSystem registers sys and subscribes it to the scene's lifecycle events.
// It returns false when a system of the same concrete type is registered.
func (s *Scene) AddSystem(sys System) bool {
	if sys == nil {
		panic("ecs: AddSystem called with nil system")
	}
	t := reflect.TypeOf(sys)

	s.sysMu.Lock()
	defer s.sysMu.Unlock()

	if _, ok := s.systems[t]; ok {
		return false
	}

	_, isBehaviour := sys.(*BehaviourSystem)
	entry := &systemEntry{
		system:    sys,
		typ:       t,
		name:      systemName(t),
		behaviour: isBehaviour,
	}
	entry.subs = [4]uint64{
		s.entityAdded.subscribe(sys.OnEntityAdded),
		s.entityRemoved.subscribe(sys.OnEntityRemoved),
		s.componentAdded.subscribe(sys.OnComponentAdded),
		s.componentRemoved.subscribe(sys.OnComponentRemoved),
	}

	s.systems[t] = entry
	s.order = append(s.order, entry)
	s.logger.Debug("system added", zap.String("system", entry.name))
	return true
}

// RemoveSystem unregisters the system of sys's concrete type, unsubscribing
// the instance that was registered.
func (s *Scene) RemoveSystem(sys System) bool {
	if sys == nil {
		return false
	}
	t := reflect.TypeOf(sys)

	s.sysMu.Lock()
	defer s.sysMu.Unlock()

	entry, ok := s.systems[t]
	if !ok {
		return false
	}

	s.entityAdded.unsubscribe(entry.subs[0])
	s.entityRemoved.unsubscribe(entry.subs[1])
	s.componentAdded.unsubscribe(entry.subs[2])
	s.componentRemoved.unsubscribe(entry.subs[3])

	delete(s.systems, t)
	s.order = slices.DeleteFunc(s.order, func(x *systemEntry) bool { return x == entry })
	s.logger.Debug("system removed", zap.String("system", entry.name))
	return true
}

// GetSystem returns the registered system of type T.
func GetSystem[T System](s *Scene) (T, bool) {
	var zero T

	s.sysMu.RLock()
	entry, ok := s.systems[reflect.TypeFor[T]()]
	s.sysMu.RUnlock()

	if !ok {
		return zero, false
	}
	sys, ok := entry.system.(T)
	return sys, ok
}

// Systems returns the registered systems in registration order.
func (s *Scene) Systems() []System {
	entries := s.systemEntries()
	out := make([]System, len(entries))
	for i, entry := range entries {
		out[i] = entry.system
	}
	return out
}

// SystemCount returns the number of registered systems.
func (s *Scene) SystemCount() int {
	s.sysMu.RLock()
	defer s.sysMu.RUnlock()
	return len(s.order)
}

func (s *Scene) systemEntries() []*systemEntry {
	s.sysMu.RLock()
	defer s.sysMu.RUnlock()
	return slices.Clone(s.order)
}

// UpdateGeneral runs Update on every UpdateSystem concurrently, bounded by the
// worker limit, and waits for all of them. A panicking system is reported as
// a *SystemPanicError.
func (s *Scene) UpdateGeneral() error {
	return s.dispatch(passUpdate)
}

// DrawGeneral runs Draw on every DrawSystem concurrently, like UpdateGeneral.
func (s *Scene) DrawGeneral() error {
	return s.dispatch(passDraw)
}

// UpdateBehaviour runs the BehaviourSystem's Update on the calling goroutine.
func (s *Scene) UpdateBehaviour() {
	if b, ok := GetSystem[*BehaviourSystem](s); ok {
		b.Update()
	}
}

// DrawBehaviour runs the BehaviourSystem's Draw on the calling goroutine.
func (s *Scene) DrawBehaviour() {
	if b, ok := GetSystem[*BehaviourSystem](s); ok {
		b.Draw()
	}
}

func (s *Scene) dispatch(p pass) error {
	if !s.dispatching.CompareAndSwap(false, true) {
		return ErrDispatchInProgress
	}
	defer s.dispatching.Store(false)

	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, entry := range s.systemEntries() {
		run, stats := entry.runner(p)
		if run == nil {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &SystemPanicError{System: entry.name, Value: r}
				}
			}()
			stats.time(run)
			return nil
		})
	}

	s.dispatches.Add(1)
	if err := g.Wait(); err != nil {
		s.logger.Error("system dispatch failed", zap.Stringer("pass", p), zap.Error(err))
		return err
	}
	return nil
}

func (e *systemEntry) runner(p pass) (func(), *passStatsInternal) {
	if e.behaviour {
		return nil, nil
	}
	switch p {
	case passUpdate:
		if u, ok := e.system.(UpdateSystem); ok {
			return u.Update, &e.update
		}
	case passDraw:
		if d, ok := e.system.(DrawSystem); ok {
			return d.Draw, &e.draw
		}
	}
	return nil, nil
}

// Stats returns a snapshot of the scene's size and per-system dispatch timings.
func (s *Scene) Stats() *SceneStats {
	entries := s.systemEntries()

	s.mu.RLock()
	stats := &SceneStats{
		EntityCount:    s.entities.Len(),
		PendingAdds:    s.pendingAdd.len(),
		PendingRemoves: s.pendingRemove.len(),
		Generation:     s.generation,
	}
	s.mu.RUnlock()

	stats.SystemCount = len(entries)
	stats.Dispatches = s.dispatches.Load()
	stats.Systems = make([]SystemStats, len(entries))
	for i, entry := range entries {
		stats.Systems[i] = SystemStats{
			Name:   entry.name,
			Update: entry.update.snapshot(),
			Draw:   entry.draw.snapshot(),
		}
	}
	return stats
}

func systemName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
