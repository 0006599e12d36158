package ecs

import (
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/kamstrup/intmap"
)

// EntityID identifies an entity within a Scene. IDs are issued monotonically
// and never reused.
type EntityID uint32

const (
	// InvalidID marks a disposed entity.
	InvalidID EntityID = 0xFFFFFFFF

	// MaxEntityCount is the default capacity of a Scene.
	MaxEntityCount uint32 = 0xFFFFFFFB
)

// Entity owns at most one component per concrete component type.
type Entity struct {
	// Name is a display name; it is not required to be unique.
	Name string

	id         EntityID
	home       *Scene
	scene      *Scene
	registry   *ComponentRegistry
	components *intmap.Map[ComponentType, Component]
	pending    atomic.Pointer[Scene]
	warned     atomic.Bool
}

func newEntity(home *Scene, id EntityID, name string) *Entity {
	return &Entity{
		Name:       name,
		id:         id,
		home:       home,
		registry:   home.registry,
		components: intmap.New[ComponentType, Component](8),
	}
}

// ID returns the entity ID, or InvalidID once the entity was disposed.
func (e *Entity) ID() EntityID {
	return e.id
}

// Scene returns the scene the entity has been flushed into, or nil while it
// is free-floating.
func (e *Entity) Scene() *Scene {
	return e.scene
}

// Registry returns the registry that tags the entity's components. It is the
// registry of the scene that created the entity.
func (e *Entity) Registry() *ComponentRegistry {
	return e.registry
}

// IsValid reports whether the entity has not been disposed.
func (e *Entity) IsValid() bool {
	return e.id != InvalidID
}

// PendingRemoval reports whether the entity was removed from a scene whose
// removal notifications have not been flushed yet.
func (e *Entity) PendingRemoval() bool {
	return e.pending.Load() != nil
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity(%d %q)", e.id, e.Name)
}

func (e *Entity) checkValid() error {
	if !e.IsValid() {
		return ErrEntityDisposed
	}
	return nil
}

func (e *Entity) checkReadable() error {
	if err := e.checkValid(); err != nil {
		return err
	}
	if s := e.pending.Load(); s != nil {
		return s.pendingRemovalRead(e)
	}
	return nil
}

// AddComponent attaches c under its concrete type. It returns false without
// error when c already has an owner or the entity already holds a component
// of the same type.
func (e *Entity) AddComponent(c Component) (bool, error) {
	if c == nil {
		panic("ecs: AddComponent called with nil component")
	}
	if err := e.checkValid(); err != nil {
		return false, err
	}
	if c.Owner() != nil {
		return false, nil
	}

	t := e.registry.TypeOf(c)
	if e.components.Has(t) {
		return false, nil
	}

	e.components.Put(t, c)
	c.SetOwner(e)

	if sc, ok := c.(StateComponent); ok {
		sc.OnAdded()
	}
	if e.scene != nil {
		e.scene.componentAdded.publish(c)
	}
	return true, nil
}

// RemoveComponent detaches c. It returns false without error when c is not
// the instance this entity stores for its type.
func (e *Entity) RemoveComponent(c Component) (bool, error) {
	if c == nil {
		panic("ecs: RemoveComponent called with nil component")
	}
	if err := e.checkValid(); err != nil {
		return false, err
	}
	return e.detach(c, true), nil
}

// detach removes c from the type map and clears its owner. The component's
// own OnRemoved hook is skipped when hook is false; the scene is notified
// either way.
func (e *Entity) detach(c Component, hook bool) bool {
	if c.Owner() != e {
		return false
	}

	t := e.registry.TypeOf(c)
	stored, ok := e.components.Get(t)
	if !ok || stored != c {
		return false
	}

	e.components.Del(t)
	c.SetOwner(nil)

	if sc, ok := c.(StateComponent); ok && hook {
		sc.OnRemoved()
	}
	if e.scene != nil {
		e.scene.componentRemoved.publish(c)
	}
	return true
}

// GetComponent returns the component stored for t.
func (e *Entity) GetComponent(t ComponentType) (Component, error) {
	if err := e.checkReadable(); err != nil {
		return nil, err
	}

	c, ok := e.components.Get(t)
	if !ok {
		return nil, &ComponentNotFoundError{Type: e.registry.Name(t)}
	}
	return c, nil
}

// HasComponent reports whether a component is stored for t.
func (e *Entity) HasComponent(t ComponentType) (bool, error) {
	if err := e.checkReadable(); err != nil {
		return false, err
	}
	return e.components.Has(t), nil
}

// Components returns the owned components ordered by component type.
func (e *Entity) Components() ([]Component, error) {
	if err := e.checkReadable(); err != nil {
		return nil, err
	}
	return e.sortedComponents(), nil
}

// ComponentCount returns the number of owned components.
func (e *Entity) ComponentCount() int {
	return e.components.Len()
}

func (e *Entity) sortedComponents() []Component {
	types := slices.Sorted(e.components.Keys())
	out := make([]Component, 0, len(types))
	for _, t := range types {
		c, _ := e.components.Get(t)
		out = append(out, c)
	}
	return out
}

// membership is the scene the entity belongs to: the scene it was flushed
// into, else the scene that created it.
func (e *Entity) membership() *Scene {
	if e.scene != nil {
		return e.scene
	}
	return e.home
}

// Enabled reports whether the entity is a live member of its current scene,
// or of the scene that created it while it belongs to none.
func (e *Entity) Enabled() bool {
	s := e.membership()
	if s == nil || !e.IsValid() {
		return false
	}
	live, ok := s.GetByID(e.id)
	return ok && live == e
}

// SetEnabled adds the entity to, or removes it from, its current scene. An
// entity in no scene is added back to the scene that created it.
func (e *Entity) SetEnabled(enabled bool) error {
	if err := e.checkValid(); err != nil {
		return err
	}
	s := e.membership()
	if enabled {
		return s.AddEntity(e)
	}
	s.RemoveEntity(e)
	return nil
}

// Dispose detaches and disposes every owned component, removes the entity
// from its scene and invalidates its ID. Any later call fails with
// ErrEntityDisposed.
func (e *Entity) Dispose() error {
	if err := e.checkValid(); err != nil {
		return err
	}

	for _, c := range e.sortedComponents() {
		e.detach(c, true)
		if d, ok := c.(Disposer); ok {
			d.Dispose()
		}
	}
	e.components.Clear()

	if e.scene != nil {
		e.scene.RemoveEntity(e)
	}
	if e.home != nil && e.home != e.scene {
		e.home.RemoveEntity(e)
	}

	e.id = InvalidID
	return nil
}

// AddComponent constructs a *T and attaches it to e. The returned component
// is unowned when e already holds a *T.
func AddComponent[T any, PT componentPtr[T]](e *Entity) (PT, error) {
	c := PT(new(T))
	if _, err := e.AddComponent(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComponent returns the *T attached to e.
func GetComponent[T any, PT componentPtr[T]](e *Entity) (PT, error) {
	c, err := e.GetComponent(ComponentTypeOf[T, PT](e.registry))
	if err != nil {
		return nil, err
	}
	return c.(PT), nil
}

// HasComponent reports whether a *T is attached to e.
func HasComponent[T any, PT componentPtr[T]](e *Entity) (bool, error) {
	return e.HasComponent(ComponentTypeOf[T, PT](e.registry))
}

// GetComponentLinear scans the owned components for the (skip+1)-th one
// assignable to T. T is usually an interface, which the type-keyed lookup
// cannot serve.
func GetComponentLinear[T any](e *Entity, skip int) (T, bool, error) {
	var zero T
	components, err := e.Components()
	if err != nil {
		return zero, false, err
	}

	for _, c := range components {
		match, ok := c.(T)
		if !ok {
			continue
		}
		if skip == 0 {
			return match, true, nil
		}
		skip--
	}
	return zero, false, nil
}

// MustGetComponent is like GetComponent but panics when the component is
// missing. Use it only where absence is a programming error.
func MustGetComponent[T any, PT componentPtr[T]](e *Entity) PT {
	c, err := GetComponent[T, PT](e)
	if err != nil {
		panic(fmt.Sprintf("ecs: %v on %s (%s)", err, e, reflect.TypeFor[T]()))
	}
	return c
}
