package ecs

import (
	"errors"
	"sync"
)

// Commands provides a buffer for deferred scene operations that are applied at
// the start of the next flush. Systems running in the general passes use it
// instead of mutating entities or membership directly.
type Commands struct {
	mu       sync.Mutex
	disposes []*Entity
	removes  []componentCommand
	adds     []componentCommand
	detaches []*Entity
	attaches []*Entity
	defers   []func()
}

type componentCommand struct {
	entity    *Entity
	component Component
}

func newCommands() *Commands {
	return &Commands{}
}

// Defer queues a function to run after all other buffered operations.
func (c *Commands) Defer(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defers = append(c.defers, fn)
}

// AddEntity queues e to be added to the scene.
func (c *Commands) AddEntity(e *Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attaches = append(c.attaches, e)
}

// RemoveEntity queues e to be removed from the scene.
func (c *Commands) RemoveEntity(e *Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detaches = append(c.detaches, e)
}

// Dispose queues e to be disposed.
func (c *Commands) Dispose(e *Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposes = append(c.disposes, e)
}

// AddComponent queues a component attachment.
func (c *Commands) AddComponent(e *Entity, component Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adds = append(c.adds, componentCommand{entity: e, component: component})
}

// RemoveComponent queues a component detachment.
func (c *Commands) RemoveComponent(e *Entity, component Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removes = append(c.removes, componentCommand{entity: e, component: component})
}

// Len returns the number of buffered operations.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.disposes) + len(c.removes) + len(c.adds) +
		len(c.detaches) + len(c.attaches) + len(c.defers)
}

// flush applies disposals, component removals, component additions, entity
// removals, entity additions and deferred functions in that order, then
// resets the buffer. Operations on an entity disposed in the same flush are
// dropped.
func (c *Commands) flush(scene *Scene) error {
	c.mu.Lock()
	disposes, removes, adds := c.disposes, c.removes, c.adds
	detaches, attaches, defers := c.detaches, c.attaches, c.defers
	c.disposes, c.removes, c.adds = nil, nil, nil
	c.detaches, c.attaches, c.defers = nil, nil, nil
	c.mu.Unlock()

	disposedEntities := make(map[*Entity]bool)
	var errs []error

	for _, e := range disposes {
		if disposedEntities[e] || !e.IsValid() {
			continue
		}
		if err := e.Dispose(); err != nil {
			errs = append(errs, err)
		}
		disposedEntities[e] = true
	}

	for _, cmd := range removes {
		if disposedEntities[cmd.entity] {
			continue
		}
		if _, err := cmd.entity.RemoveComponent(cmd.component); err != nil {
			errs = append(errs, err)
		}
	}

	for _, cmd := range adds {
		if disposedEntities[cmd.entity] {
			continue
		}
		if _, err := cmd.entity.AddComponent(cmd.component); err != nil {
			errs = append(errs, err)
		}
	}

	for _, e := range detaches {
		if !disposedEntities[e] {
			scene.RemoveEntity(e)
		}
	}

	for _, e := range attaches {
		if disposedEntities[e] {
			continue
		}
		if err := scene.AddEntity(e); err != nil {
			errs = append(errs, err)
		}
	}

	for _, fn := range defers {
		fn()
	}

	return errors.Join(errs...)
}
