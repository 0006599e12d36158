package ecs

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// Scene owns entities and systems. Structural changes requested during a
// frame become visible, and their events fire, only when
// PrepareForNextIteration flushes them.
type Scene struct {
	id       uuid.UUID
	registry *ComponentRegistry
	logger   *zap.Logger

	mu            sync.RWMutex
	entities      *intmap.Map[EntityID, *Entity]
	pendingAdd    entitySet
	pendingRemove entitySet
	nextID        uint32
	maxEntities   uint32
	generation    uint64

	sysMu   sync.RWMutex
	systems map[reflect.Type]*systemEntry
	order   []*systemEntry

	entityAdded      observer[*Entity]
	entityRemoved    observer[*Entity]
	componentAdded   observer[Component]
	componentRemoved observer[Component]

	commands    *Commands
	workers     int
	strict      bool
	dispatching atomic.Bool
	dispatches  atomic.Int64

	dataMu sync.RWMutex
	data   any
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry shares a component registry between scenes.
func WithRegistry(r *ComponentRegistry) Option {
	return func(s *Scene) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithMaxEntities caps the ID space. A scene with capacity n issues IDs
// 0 through n-2.
func WithMaxEntities(n uint32) Option {
	return func(s *Scene) {
		s.maxEntities = min(max(n, 1), MaxEntityCount)
	}
}

// WithWorkers bounds the number of systems run concurrently by the general
// passes. The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Scene) {
		s.workers = max(n, 1)
	}
}

// WithStrictRemoval makes component reads on an entity pending removal fail
// with ErrEntityRemoved instead of only logging a warning.
func WithStrictRemoval(strict bool) Option {
	return func(s *Scene) {
		s.strict = strict
	}
}

// WithData sets the initial scene payload.
func WithData(data any) Option {
	return func(s *Scene) {
		s.data = data
	}
}

// NewScene creates an empty scene.
func NewScene(opts ...Option) *Scene {
	s := &Scene{
		id:          uuid.New(),
		logger:      zap.NewNop(),
		entities:    intmap.New[EntityID, *Entity](256),
		maxEntities: MaxEntityCount,
		systems:     make(map[reflect.Type]*systemEntry),
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewComponentRegistry()
	}
	s.pendingAdd.init()
	s.pendingRemove.init()
	s.commands = newCommands()
	s.logger = s.logger.With(zap.Stringer("scene", s.id))
	return s
}

// ID returns the scene's unique identifier.
func (s *Scene) ID() uuid.UUID {
	return s.id
}

// Registry returns the component registry used by the scene's entities.
func (s *Scene) Registry() *ComponentRegistry {
	return s.registry
}

// Logger returns the scene logger.
func (s *Scene) Logger() *zap.Logger {
	return s.logger
}

// Commands returns the deferred command buffer. It is applied at the start of
// PrepareForNextIteration and is safe to use from concurrently running systems.
func (s *Scene) Commands() *Commands {
	return s.commands
}

// Generation counts flushed structural changes.
func (s *Scene) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Create makes a new entity with a fresh ID. The entity can be looked up
// immediately, but it joins the scene and its events fire only on the next
// flush.
func (s *Scene) Create(name string) (*Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.nextID >= s.maxEntities-1 {
			return nil, fmt.Errorf("%w: limit %d", ErrCapacityExceeded, s.maxEntities)
		}
		id := EntityID(s.nextID)
		s.nextID++
		if s.entities.Has(id) {
			continue
		}

		e := newEntity(s, id, name)
		s.entities.Put(id, e)
		s.pendingAdd.add(e)
		return e, nil
	}
}

// AddEntity schedules e to join the scene on the next flush. Adding an entity
// that is already live here, that is still held by the scene that created
// it, or whose ID is taken by another entity is a no-op.
func (s *Scene) AddEntity(e *Entity) error {
	if e == nil {
		panic("ecs: AddEntity called with nil entity")
	}
	if !e.IsValid() {
		return ErrEntityDisposed
	}
	if e.home != nil && e.home != s {
		if held, ok := e.home.GetByID(e.id); ok && held == e {
			s.logger.Warn("entity is still held by its home scene",
				zap.Uint32("entity", uint32(e.id)),
				zap.String("name", e.Name),
				zap.Stringer("home", e.home.id),
			)
			return nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if live, ok := s.entities.Get(e.id); ok {
		if live != e {
			s.logger.Warn("ignoring entity with conflicting id",
				zap.Uint32("entity", uint32(e.id)),
				zap.String("name", e.Name),
			)
		}
		return nil
	}
	s.pendingAdd.add(e)
	return nil
}

// RemoveEntity takes e out of the scene immediately and schedules its removal
// events for the next flush. It returns false when e is neither live nor
// pending addition.
func (s *Scene) RemoveEntity(e *Entity) bool {
	if e == nil {
		panic("ecs: RemoveEntity called with nil entity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	if live, ok := s.entities.Get(e.id); ok && live == e {
		s.entities.Del(e.id)
		removed = true
	}
	if s.pendingAdd.remove(e) {
		removed = true
	}
	if removed {
		s.pendingRemove.add(e)
		e.pending.Store(s)
		e.warned.Store(false)
	}
	return removed
}

// PrepareForNextIteration applies buffered commands, then flushes pending
// additions followed by pending removals, firing their events in order. It
// must not be called while a general pass is running.
func (s *Scene) PrepareForNextIteration() error {
	if s.dispatching.Load() {
		return ErrDispatchInProgress
	}

	cmdErr := s.commands.flush(s)

	s.mu.Lock()
	adds := s.pendingAdd.drain()
	s.mu.Unlock()

	added := 0
	for _, e := range adds {
		if s.install(e) {
			added++
			s.entityAdded.publish(e)
			for _, c := range e.sortedComponents() {
				s.componentAdded.publish(c)
			}
		}
	}

	s.mu.Lock()
	removes := s.pendingRemove.drain()
	s.mu.Unlock()

	removed := 0
	for _, e := range removes {
		if e.pending.CompareAndSwap(s, nil) {
			e.warned.Store(false)
		}
		if e.scene != s {
			continue
		}

		removed++
		s.entityRemoved.publish(e)
		e.scene = nil
		for _, c := range e.sortedComponents() {
			s.componentRemoved.publish(c)
		}
	}

	s.mu.Lock()
	s.generation += uint64(added + removed)
	s.mu.Unlock()

	if added > 0 || removed > 0 {
		s.logger.Debug("flushed scene changes",
			zap.Int("added", added),
			zap.Int("removed", removed),
		)
	}
	if cmdErr != nil {
		return fmt.Errorf("apply commands: %w", cmdErr)
	}
	return nil
}

func (s *Scene) install(e *Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !e.IsValid() {
		return false
	}
	if e.scene != nil {
		if live, ok := s.entities.Get(e.id); ok && live == e && e.scene != s {
			s.entities.Del(e.id)
		}
		return false
	}
	if live, ok := s.entities.Get(e.id); ok && live != e {
		s.logger.Warn("skipping entity with conflicting id",
			zap.Uint32("entity", uint32(e.id)),
			zap.String("name", e.Name),
		)
		return false
	}

	s.entities.Put(e.id, e)
	e.scene = s
	return true
}

// pendingRemovalRead warns once per entity and removal.
func (s *Scene) pendingRemovalRead(e *Entity) error {
	if !e.warned.Swap(true) {
		s.logger.Warn("component access on entity pending removal",
			zap.Uint32("entity", uint32(e.id)),
			zap.String("name", e.Name),
		)
	}
	if s.strict {
		return fmt.Errorf("%w: %s", ErrEntityRemoved, e)
	}
	return nil
}

// GetByID returns the live entity with the given ID.
func (s *Scene) GetByID(id EntityID) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Get(id)
}

// GetEntityByName returns the live entity with the lowest ID whose name
// matches.
func (s *Scene) GetEntityByName(name string) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *Entity
	s.entities.ForEach(func(id EntityID, e *Entity) bool {
		if e.Name == name && (found == nil || id < found.id) {
			found = e
		}
		return true
	})
	return found, found != nil
}

// Entities returns the live entities ordered by ID.
func (s *Scene) Entities() []*Entity {
	s.mu.RLock()
	out := slices.Collect(s.entities.Values())
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Entity) int { return cmp.Compare(a.id, b.id) })
	return out
}

// EntityCount returns the number of live entities.
func (s *Scene) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Len()
}

// PendingCount returns the number of additions and removals awaiting a flush.
func (s *Scene) PendingCount() (adds, removes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingAdd.len(), s.pendingRemove.len()
}

// OnEntityAdded subscribes fn to entity additions. The returned function
// unsubscribes it.
func (s *Scene) OnEntityAdded(fn func(*Entity)) func() {
	return s.entityAdded.handle(s.entityAdded.subscribe(fn))
}

// OnEntityRemoved subscribes fn to entity removals.
func (s *Scene) OnEntityRemoved(fn func(*Entity)) func() {
	return s.entityRemoved.handle(s.entityRemoved.subscribe(fn))
}

// OnComponentAdded subscribes fn to component attachments.
func (s *Scene) OnComponentAdded(fn func(Component)) func() {
	return s.componentAdded.handle(s.componentAdded.subscribe(fn))
}

// OnComponentRemoved subscribes fn to component detachments.
func (s *Scene) OnComponentRemoved(fn func(Component)) func() {
	return s.componentRemoved.handle(s.componentRemoved.subscribe(fn))
}

// Data returns the scene payload.
func (s *Scene) Data() any {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data
}

// SetData replaces the scene payload.
func (s *Scene) SetData(data any) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data = data
}

// GetDataAs returns the scene payload as T.
func GetDataAs[T any](s *Scene) (T, error) {
	data := s.Data()
	v, ok := data.(T)
	if !ok {
		return v, fmt.Errorf("%w: scene data is %T, not %s", ErrTypeMismatch, data, reflect.TypeFor[T]())
	}
	return v, nil
}

// Dispose removes and disposes every system, then disposes every entity the
// scene holds or is about to hold.
func (s *Scene) Dispose() error {
	for _, entry := range s.systemEntries() {
		s.RemoveSystem(entry.system)
		if d, ok := entry.system.(Disposer); ok {
			d.Dispose()
		}
	}

	s.mu.Lock()
	targets := slices.Collect(s.entities.Values())
	for _, e := range s.pendingAdd.items {
		if !slices.Contains(targets, e) {
			targets = append(targets, e)
		}
	}
	s.mu.Unlock()
	slices.SortFunc(targets, func(a, b *Entity) int { return cmp.Compare(a.id, b.id) })

	var errs []error
	for _, e := range targets {
		if !e.IsValid() {
			continue
		}
		if err := e.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.pendingAdd.drain()
	for _, e := range s.pendingRemove.drain() {
		e.pending.CompareAndSwap(s, nil)
		if e.scene == s {
			e.scene = nil
		}
	}
	s.mu.Unlock()

	s.logger.Debug("scene disposed", zap.Int("entities", len(targets)))
	return errors.Join(errs...)
}

// entitySet is an insertion-ordered set of entities.
type entitySet struct {
	items []*Entity
	index map[*Entity]struct{}
}

func (s *entitySet) init() {
	s.index = make(map[*Entity]struct{})
}

func (s *entitySet) add(e *Entity) bool {
	if _, ok := s.index[e]; ok {
		return false
	}
	s.index[e] = struct{}{}
	s.items = append(s.items, e)
	return true
}

func (s *entitySet) remove(e *Entity) bool {
	if _, ok := s.index[e]; !ok {
		return false
	}
	delete(s.index, e)
	s.items = slices.DeleteFunc(s.items, func(x *Entity) bool { return x == e })
	return true
}

func (s *entitySet) len() int {
	return len(s.items)
}

func (s *entitySet) drain() []*Entity {
	items := s.items
	s.items = nil
	clear(s.index)
	return items
}
