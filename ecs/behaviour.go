package ecs

import (
	"slices"
	"sync"
)

// BehaviourSystem drives every Behaviour component attached to an entity of
// its scene. Its Update and Draw run synchronously on the calling goroutine
// through Scene.UpdateBehaviour and Scene.DrawBehaviour; the general passes
// skip it.
type BehaviourSystem struct {
	BaseSystem

	mu         sync.Mutex
	behaviours []Behaviour
	index      map[Behaviour]int
}

// NewBehaviourSystem creates an empty behaviour system.
func NewBehaviourSystem() *BehaviourSystem {
	return &BehaviourSystem{
		index: make(map[Behaviour]int),
	}
}

func (b *BehaviourSystem) OnComponentAdded(c Component) {
	behaviour, ok := c.(Behaviour)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.index[behaviour]; ok {
		return
	}
	b.index[behaviour] = len(b.behaviours)
	b.behaviours = append(b.behaviours, behaviour)
}

func (b *BehaviourSystem) OnComponentRemoved(c Component) {
	behaviour, ok := c.(Behaviour)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[behaviour]
	if !ok {
		return
	}

	last := len(b.behaviours) - 1
	if i != last {
		b.behaviours[i] = b.behaviours[last]
		b.index[b.behaviours[i]] = i
	}
	b.behaviours[last] = nil
	b.behaviours = b.behaviours[:last]
	delete(b.index, behaviour)
}

// Update calls Update on every tracked behaviour.
func (b *BehaviourSystem) Update() {
	for _, behaviour := range b.snapshot() {
		behaviour.Update()
	}
}

// Draw calls Draw on every tracked behaviour.
func (b *BehaviourSystem) Draw() {
	for _, behaviour := range b.snapshot() {
		behaviour.Draw()
	}
}

// Len returns the number of tracked behaviours.
func (b *BehaviourSystem) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.behaviours)
}

// Contains reports whether behaviour is tracked.
func (b *BehaviourSystem) Contains(behaviour Behaviour) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.index[behaviour]
	return ok
}

func (b *BehaviourSystem) snapshot() []Behaviour {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.behaviours)
}
