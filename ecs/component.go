package ecs

// Component is a unit of attachable state or behaviour. A component belongs
// to at most one entity at a time; Owner returns nil while it is free.
//
// Components are always pointers. Embed BaseComponent to satisfy the
// interface.
type Component interface {
	Owner() *Entity
	SetOwner(owner *Entity)
}

// StateComponent is implemented by components that want to be told when they
// are attached to or detached from an entity.
type StateComponent interface {
	Component
	OnAdded()
	OnRemoved()
}

// Disposer is implemented by components and systems that hold resources
// which must be released when their owner is disposed.
type Disposer interface {
	Dispose()
}

// Behaviour is implemented by components that receive per-frame callbacks
// from the BehaviourSystem.
type Behaviour interface {
	Component
	Update()
	Draw()
}

// BaseComponent stores the owning entity. Embed it in component structs.
type BaseComponent struct {
	owner *Entity
	held  any
}

// Owner returns the entity the component is attached to, or nil.
func (c *BaseComponent) Owner() *Entity {
	return c.owner
}

// SetOwner is called by Entity and ComponentCollection when ownership changes.
func (c *BaseComponent) SetOwner(owner *Entity) {
	c.owner = owner
}

func (c *BaseComponent) holder() any      { return c.held }
func (c *BaseComponent) setHolder(cc any) { c.held = cc }

// collectionMember records which ComponentCollection holds a child. Components
// that do not embed BaseComponent are not tracked.
type collectionMember interface {
	holder() any
	setHolder(cc any)
}

// BaseBehaviour is a BaseComponent with no-op Update, Draw, lifecycle and
// dispose hooks. Embed it and override what you need.
type BaseBehaviour struct {
	BaseComponent
}

func (b *BaseBehaviour) Update()    {}
func (b *BaseBehaviour) Draw()      {}
func (b *BaseBehaviour) OnAdded()   {}
func (b *BaseBehaviour) OnRemoved() {}
func (b *BaseBehaviour) Dispose()   {}

type componentPtr[T any] interface {
	*T
	Component
}
