package ecs

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kamstrup/intmap"
)

// ComponentType is the storage tag a ComponentRegistry issues for one
// concrete component type. Entities key their components by it.
type ComponentType uint32

type componentInfo struct {
	typ     reflect.Type
	name    string
	key     string
	factory func() Component
}

// ComponentRegistry issues component type tags and maps logical keys to
// component factories. Each Scene has its own registry unless one is shared
// explicitly with WithRegistry, allowing multiple independent scenes to
// coexist without interference.
type ComponentRegistry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]ComponentType
	byKey  map[string]ComponentType
	infos  *intmap.Map[ComponentType, *componentInfo]
	next   ComponentType
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]ComponentType),
		byKey:  make(map[string]ComponentType),
		infos:  intmap.New[ComponentType, *componentInfo](64),
	}
}

// RegisterComponent registers *T under its type name as logical key.
// Registration is only required for types that are persisted; other types
// receive a tag on first attach.
func RegisterComponent[T any, PT componentPtr[T]](r *ComponentRegistry) ComponentType {
	return RegisterComponentAs[T, PT](r, reflect.TypeFor[T]().Name())
}

// RegisterComponentAs registers *T under the given logical key. Binding a key
// that is already in use moves it to the new type.
func RegisterComponentAs[T any, PT componentPtr[T]](r *ComponentRegistry, key string) ComponentType {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.tagLocked(reflect.TypeFor[PT]())
	info, _ := r.infos.Get(id)
	if info.key != "" && info.key != key {
		delete(r.byKey, info.key)
	}
	if prev, ok := r.byKey[key]; ok && prev != id {
		if other, ok := r.infos.Get(prev); ok {
			other.key = ""
			other.factory = nil
		}
	}

	info.key = key
	info.factory = func() Component { return PT(new(T)) }
	r.byKey[key] = id
	return id
}

// ComponentTypeOf returns the tag of *T, issuing one if needed.
func ComponentTypeOf[T any, PT componentPtr[T]](r *ComponentRegistry) ComponentType {
	return r.tagFor(reflect.TypeFor[PT]())
}

// TypeOf returns the tag for the dynamic type of c.
func (r *ComponentRegistry) TypeOf(c Component) ComponentType {
	return r.tagFor(reflect.TypeOf(c))
}

func (r *ComponentRegistry) tagFor(t reflect.Type) ComponentType {
	r.mu.RLock()
	id, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tagLocked(t)
}

func (r *ComponentRegistry) tagLocked(t reflect.Type) ComponentType {
	if id, ok := r.byType[t]; ok {
		return id
	}

	r.next++
	id := r.next
	r.byType[t] = id
	r.infos.Put(id, &componentInfo{
		typ:  t,
		name: displayName(t),
	})
	return id
}

// Name renders a human-readable name for a tag.
func (r *ComponentRegistry) Name(id ComponentType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if info, ok := r.infos.Get(id); ok {
		return info.name
	}
	return fmt.Sprintf("ComponentType(%d)", id)
}

// Key returns the logical key bound to a tag, if any.
func (r *ComponentRegistry) Key(id ComponentType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.infos.Get(id)
	if !ok || info.key == "" {
		return "", false
	}
	return info.key, true
}

// Lookup resolves a logical key to its tag.
func (r *ComponentRegistry) Lookup(key string) (ComponentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownComponentKey, key)
	}
	return id, nil
}

// New constructs a fresh, unowned component for a logical key.
func (r *ComponentRegistry) New(key string) (Component, error) {
	r.mu.RLock()
	id, ok := r.byKey[key]
	var factory func() Component
	if ok {
		if info, found := r.infos.Get(id); found {
			factory = info.factory
		}
	}
	r.mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponentKey, key)
	}
	return factory(), nil
}

// Len returns the number of tags issued so far.
func (r *ComponentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.infos.Len()
}

func displayName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}
