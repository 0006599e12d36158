package ecs

// System observes the entity and component lifecycle of a Scene. A scene
// holds at most one system per concrete type.
//
// Systems that also implement UpdateSystem or DrawSystem take part in the
// scene's general passes, which run systems concurrently. Such systems must
// not mutate scene membership directly; use Scene.Commands instead.
type System interface {
	OnEntityAdded(entity *Entity)
	OnEntityRemoved(entity *Entity)
	OnComponentAdded(component Component)
	OnComponentRemoved(component Component)
}

// UpdateSystem is a System with per-frame simulation work.
type UpdateSystem interface {
	System
	Update()
}

// DrawSystem is a System with per-frame rendering work.
type DrawSystem interface {
	System
	Draw()
}

// BaseSystem implements System with no-op hooks. Embed it and override the
// events you care about.
type BaseSystem struct{}

func (BaseSystem) OnEntityAdded(*Entity)        {}
func (BaseSystem) OnEntityRemoved(*Entity)      {}
func (BaseSystem) OnComponentAdded(Component)   {}
func (BaseSystem) OnComponentRemoved(Component) {}
