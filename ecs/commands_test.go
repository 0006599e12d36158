package ecs_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ooscene/ecs"
)

func TestCommands(t *testing.T) {
	t.Run("applied at the next flush", func(t *testing.T) {
		scene := ecs.NewScene()
		log := watch(scene)
		e, _ := scene.Create("")
		require.NoError(t, scene.PrepareForNextIteration())

		cmds := scene.Commands()
		pos := &Position{X: 1}
		cmds.AddComponent(e, pos)
		assert.Equal(t, 1, cmds.Len())

		has, _ := ecs.HasComponent[Position](e)
		assert.False(t, has)

		require.NoError(t, scene.PrepareForNextIteration())
		assert.Equal(t, 0, cmds.Len())
		assert.Same(t, e, pos.Owner())
		assert.Equal(t, []ecs.Component{pos}, log.componentAdded)

		cmds.RemoveComponent(e, pos)
		require.NoError(t, scene.PrepareForNextIteration())
		assert.Nil(t, pos.Owner())
	})

	t.Run("membership changes fire in the same flush", func(t *testing.T) {
		scene := ecs.NewScene()
		log := watch(scene)
		keep, _ := scene.Create("keep")
		drop, _ := scene.Create("drop")
		require.NoError(t, scene.PrepareForNextIteration())
		require.Len(t, log.entityAdded, 2)

		scene.Commands().RemoveEntity(drop)
		require.NoError(t, scene.PrepareForNextIteration())

		assert.Equal(t, []*ecs.Entity{drop}, log.entityRemoved)
		assert.Equal(t, []*ecs.Entity{keep}, scene.Entities())
	})

	t.Run("re-adding before the removal is flushed is absorbed", func(t *testing.T) {
		scene := ecs.NewScene()
		log := watch(scene)
		e, _ := scene.Create("")
		require.NoError(t, scene.PrepareForNextIteration())

		scene.Commands().RemoveEntity(e)
		scene.Commands().AddEntity(e)
		require.NoError(t, scene.PrepareForNextIteration())
		require.NoError(t, scene.PrepareForNextIteration())

		assert.Len(t, log.entityAdded, 1)
		assert.Len(t, log.entityRemoved, 1)
		assert.Equal(t, 0, scene.EntityCount())
	})

	t.Run("operations on disposed entities are dropped", func(t *testing.T) {
		scene := ecs.NewScene()
		e, _ := scene.Create("")

		cmds := scene.Commands()
		pos := &Position{}
		cmds.AddComponent(e, pos)
		cmds.AddEntity(e)
		cmds.Dispose(e)
		cmds.Dispose(e)

		require.NoError(t, scene.PrepareForNextIteration())
		assert.False(t, e.IsValid())
		assert.Nil(t, pos.Owner())
	})

	t.Run("errors are joined", func(t *testing.T) {
		scene := ecs.NewScene()
		e, _ := scene.Create("")
		require.NoError(t, e.Dispose())

		scene.Commands().AddComponent(e, &Position{})
		scene.Commands().RemoveComponent(e, &Velocity{})

		err := scene.PrepareForNextIteration()
		assert.ErrorIs(t, err, ecs.ErrEntityDisposed)
	})

	t.Run("defers run last", func(t *testing.T) {
		scene := ecs.NewScene()
		e, _ := scene.Create("")

		var sawComponent bool
		scene.Commands().Defer(func() {
			sawComponent, _ = ecs.HasComponent[Health](e)
		})
		scene.Commands().AddComponent(e, &Health{})

		require.NoError(t, scene.PrepareForNextIteration())
		assert.True(t, sawComponent)
	})

	t.Run("safe from concurrent systems", func(t *testing.T) {
		scene := ecs.NewScene()
		entities := make([]*ecs.Entity, 32)
		for i := range entities {
			entities[i], _ = scene.Create("")
		}

		var wg sync.WaitGroup
		for _, e := range entities {
			wg.Add(1)
			go func() {
				defer wg.Done()
				scene.Commands().AddComponent(e, &Velocity{DX: 1})
			}()
		}
		wg.Wait()

		require.NoError(t, scene.PrepareForNextIteration())
		for _, e := range entities {
			has, err := ecs.HasComponent[Velocity](e)
			require.NoError(t, err)
			assert.True(t, has)
		}
	})
}
