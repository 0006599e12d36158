package debugui

import (
	"reflect"
	"sync"

	"github.com/kamstrup/intmap"

	"github.com/plus3/ooscene/ecs"
)

// FieldInfo describes one editable field. Index is a FieldByIndex path, so
// fields promoted from embedded structs are listed alongside direct ones.
type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     []int
	IsPointer bool
	IsStruct  bool
	IsSlice   bool
	IsMap     bool
}

// ComponentLayout is the inspectable shape of a registered component type.
type ComponentLayout struct {
	Type   ecs.ComponentType
	Name   string
	Fields []FieldInfo
}

// ReflectionCache memoizes component layouts by the tag a registry assigns
// them. Structs reached through fields carry no tag and are cached by type.
type ReflectionCache struct {
	registry *ecs.ComponentRegistry

	mu      sync.RWMutex
	layouts *intmap.Map[ecs.ComponentType, *ComponentLayout]
	nested  map[reflect.Type][]FieldInfo
}

func NewReflectionCache(registry *ecs.ComponentRegistry) *ReflectionCache {
	return &ReflectionCache{
		registry: registry,
		layouts:  intmap.New[ecs.ComponentType, *ComponentLayout](32),
		nested:   make(map[reflect.Type][]FieldInfo),
	}
}

// Registry returns the registry the layouts are keyed by.
func (rc *ReflectionCache) Registry() *ecs.ComponentRegistry {
	return rc.registry
}

// Layout returns the layout of c's component type, building it on first use.
func (rc *ReflectionCache) Layout(c ecs.Component) *ComponentLayout {
	tag := rc.registry.TypeOf(c)

	rc.mu.RLock()
	layout, ok := rc.layouts.Get(tag)
	rc.mu.RUnlock()
	if ok {
		return layout
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if layout, ok := rc.layouts.Get(tag); ok {
		return layout
	}
	layout = &ComponentLayout{
		Type:   tag,
		Name:   rc.registry.Name(tag),
		Fields: inspectableFields(reflect.TypeOf(c)),
	}
	rc.layouts.Put(tag, layout)
	return layout
}

// Fields returns the inspectable fields of a struct reached through a
// component field.
func (rc *ReflectionCache) Fields(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	fields, ok := rc.nested[t]
	rc.mu.RUnlock()
	if ok {
		return fields
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if fields, ok := rc.nested[t]; ok {
		return fields
	}
	fields = inspectableFields(t)
	rc.nested[t] = fields
	return fields
}

// inspectableFields lists the exported fields of t, promoted ones included.
// Embedded structs themselves are skipped: their fields already appear, and
// bookkeeping embeds such as ecs.BaseComponent have none exported.
func inspectableFields(t reflect.Type) []FieldInfo {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var fields []FieldInfo
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}

		ft := f.Type
		isPointer := ft.Kind() == reflect.Pointer
		if isPointer {
			ft = ft.Elem()
		}

		fields = append(fields, FieldInfo{
			Name:      f.Name,
			Type:      ft,
			Index:     f.Index,
			IsPointer: isPointer,
			IsStruct:  ft.Kind() == reflect.Struct,
			IsSlice:   ft.Kind() == reflect.Slice,
			IsMap:     ft.Kind() == reflect.Map,
		})
	}
	return fields
}
