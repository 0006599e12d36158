package ecs

import "slices"

// ComponentCollection is a component that holds any number of child
// components sharing its owner. Children are not stored in the entity's type
// map, so several children of the same type may coexist.
//
// Children that implement Behaviour are updated and drawn by the collection.
type ComponentCollection[T Component] struct {
	BaseBehaviour

	children   []T
	behaviours []Behaviour
}

// NewComponentCollection creates an empty collection.
func NewComponentCollection[T Component]() *ComponentCollection[T] {
	return &ComponentCollection[T]{}
}

// SetOwner moves the collection and all of its children to owner. Children
// receive OnRemoved first; each is then detached from any entity still
// holding it directly, takes the new owner, and receives OnAdded when owner
// is not nil.
func (cc *ComponentCollection[T]) SetOwner(owner *Entity) {
	cc.BaseBehaviour.SetOwner(owner)

	for _, c := range cc.children {
		if sc, ok := Component(c).(StateComponent); ok {
			sc.OnRemoved()
		}
	}

	for _, c := range cc.children {
		if prev := c.Owner(); prev != nil {
			prev.detach(c, false)
		}
		c.SetOwner(owner)
	}

	if owner == nil {
		return
	}
	for _, c := range cc.children {
		if sc, ok := Component(c).(StateComponent); ok {
			sc.OnAdded()
		}
	}
}

// Add appends c. It returns false when c already has an owner or is already
// held by this or another collection. If the collection is attached, c joins
// its owner immediately.
func (cc *ComponentCollection[T]) Add(c T) bool {
	if c.Owner() != nil || cc.indexOf(c) >= 0 {
		return false
	}
	m, tracked := Component(c).(collectionMember)
	if tracked {
		if h := m.holder(); h != nil && h != any(cc) {
			return false
		}
		m.setHolder(cc)
	}

	cc.children = append(cc.children, c)
	if b, ok := Component(c).(Behaviour); ok {
		cc.behaviours = append(cc.behaviours, b)
	}

	if owner := cc.Owner(); owner != nil {
		c.SetOwner(owner)
		if sc, ok := Component(c).(StateComponent); ok {
			sc.OnAdded()
		}
	}
	return true
}

// Remove drops c from the collection, clearing its owner if it was shared
// with the collection.
func (cc *ComponentCollection[T]) Remove(c T) bool {
	i := cc.indexOf(c)
	if i < 0 {
		return false
	}

	cc.children = slices.Delete(cc.children, i, i+1)
	cc.release(c)
	if b, ok := Component(c).(Behaviour); ok {
		cc.behaviours = slices.DeleteFunc(cc.behaviours, func(x Behaviour) bool { return x == b })
	}

	if owner := cc.Owner(); owner != nil && c.Owner() == owner {
		if sc, ok := Component(c).(StateComponent); ok {
			sc.OnRemoved()
		}
		c.SetOwner(nil)
	}
	return true
}

// Contains reports whether c is held.
func (cc *ComponentCollection[T]) Contains(c T) bool {
	return cc.indexOf(c) >= 0
}

// Len returns the number of children.
func (cc *ComponentCollection[T]) Len() int {
	return len(cc.children)
}

// Components returns a copy of the children in insertion order.
func (cc *ComponentCollection[T]) Components() []T {
	return slices.Clone(cc.children)
}

// First returns the first child.
func (cc *ComponentCollection[T]) First() (T, bool) {
	var zero T
	if len(cc.children) == 0 {
		return zero, false
	}
	return cc.children[0], true
}

// FirstWhere returns the first child matching pred.
func (cc *ComponentCollection[T]) FirstWhere(pred func(T) bool) (T, bool) {
	var zero T
	i := slices.IndexFunc(cc.children, pred)
	if i < 0 {
		return zero, false
	}
	return cc.children[i], true
}

func (cc *ComponentCollection[T]) Update() {
	for _, b := range slices.Clone(cc.behaviours) {
		b.Update()
	}
}

func (cc *ComponentCollection[T]) Draw() {
	for _, b := range slices.Clone(cc.behaviours) {
		b.Draw()
	}
}

// Dispose disposes every child that implements Disposer and empties the
// collection.
func (cc *ComponentCollection[T]) Dispose() {
	for _, c := range cc.children {
		cc.release(c)
		if d, ok := Component(c).(Disposer); ok {
			d.Dispose()
		}
	}
	cc.children = nil
	cc.behaviours = nil
}

func (cc *ComponentCollection[T]) release(c T) {
	if m, ok := Component(c).(collectionMember); ok && m.holder() == any(cc) {
		m.setHolder(nil)
	}
}

func (cc *ComponentCollection[T]) indexOf(c T) int {
	return slices.IndexFunc(cc.children, func(x T) bool {
		return Component(x) == Component(c)
	})
}

// AddNew constructs a *T, adds it to cc and returns it.
func AddNew[T any, PT componentPtr[T]](cc *ComponentCollection[PT]) PT {
	c := PT(new(T))
	cc.Add(c)
	return c
}
