package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ooscene/ecs"
)

func TestSystems(t *testing.T) {
	t.Run("one system per concrete type", func(t *testing.T) {
		scene := ecs.NewScene()
		first := &CounterSystem{}

		assert.True(t, scene.AddSystem(first))
		assert.False(t, scene.AddSystem(&CounterSystem{}))
		assert.True(t, scene.AddSystem(&OtherCounterSystem{}))
		assert.Equal(t, 2, scene.SystemCount())

		got, ok := ecs.GetSystem[*CounterSystem](scene)
		require.True(t, ok)
		assert.Same(t, first, got)

		assert.True(t, scene.RemoveSystem(&CounterSystem{}))
		assert.False(t, scene.RemoveSystem(first))
		_, ok = ecs.GetSystem[*CounterSystem](scene)
		assert.False(t, ok)
	})

	t.Run("removed system stops receiving events", func(t *testing.T) {
		scene := ecs.NewScene()
		tracker := NewTrackingSystem()
		scene.AddSystem(tracker)

		a, _ := scene.Create("a")
		require.NoError(t, scene.PrepareForNextIteration())
		assert.True(t, tracker.Entities[a])

		scene.RemoveSystem(tracker)
		b, _ := scene.Create("b")
		require.NoError(t, scene.PrepareForNextIteration())
		assert.False(t, tracker.Entities[b])
	})

	t.Run("systems registered late see no replay", func(t *testing.T) {
		scene := ecs.NewScene()
		a, _ := scene.Create("a")
		require.NoError(t, scene.PrepareForNextIteration())

		tracker := NewTrackingSystem()
		scene.AddSystem(tracker)
		assert.False(t, tracker.Entities[a])
	})
}

func TestGeneralDispatch(t *testing.T) {
	t.Run("every system runs exactly once", func(t *testing.T) {
		scene := ecs.NewScene(ecs.WithWorkers(4))
		s1 := &CounterSystem{}
		s2 := &OtherCounterSystem{}
		scene.AddSystem(s1)
		scene.AddSystem(s2)

		require.NoError(t, scene.UpdateGeneral())
		assert.Equal(t, int64(1), s1.updates.Load())
		assert.Equal(t, int64(1), s2.updates.Load())
		assert.Equal(t, int64(0), s1.draws.Load())

		require.NoError(t, scene.DrawGeneral())
		assert.Equal(t, int64(1), s1.draws.Load())
		assert.Equal(t, int64(1), s2.draws.Load())
	})

	t.Run("panics surface as errors", func(t *testing.T) {
		scene := ecs.NewScene()
		counter := &CounterSystem{}
		scene.AddSystem(&PanickingSystem{})
		scene.AddSystem(counter)

		err := scene.UpdateGeneral()
		var panicErr *ecs.SystemPanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "PanickingSystem", panicErr.System)
		assert.Equal(t, "boom", panicErr.Value)
		assert.Equal(t, int64(1), counter.updates.Load())
	})

	t.Run("behaviour system is skipped by the general pass", func(t *testing.T) {
		scene := ecs.NewScene()
		scene.AddSystem(ecs.NewBehaviourSystem())

		e, _ := scene.Create("")
		spinner, _ := ecs.AddComponent[Spinner](e)
		require.NoError(t, scene.PrepareForNextIteration())

		require.NoError(t, scene.UpdateGeneral())
		require.NoError(t, scene.DrawGeneral())
		assert.Equal(t, 0, spinner.Updates)
		assert.Equal(t, 0, spinner.Draws)

		scene.UpdateBehaviour()
		scene.DrawBehaviour()
		assert.Equal(t, 1, spinner.Updates)
		assert.Equal(t, 1, spinner.Draws)
	})

	t.Run("flush is refused during dispatch", func(t *testing.T) {
		scene := ecs.NewScene()
		reentrant := &reentrantFlush{scene: scene}
		scene.AddSystem(reentrant)

		require.NoError(t, scene.UpdateGeneral())
		assert.ErrorIs(t, reentrant.err, ecs.ErrDispatchInProgress)
		assert.NoError(t, scene.PrepareForNextIteration())
	})
}

type reentrantFlush struct {
	ecs.BaseSystem
	scene *ecs.Scene
	err   error
}

func (r *reentrantFlush) Update() { r.err = r.scene.PrepareForNextIteration() }

func TestSceneStats(t *testing.T) {
	scene := ecs.NewScene()
	scene.AddSystem(&CounterSystem{})
	_, _ = scene.Create("")
	_, _ = scene.Create("")
	require.NoError(t, scene.PrepareForNextIteration())

	for range 3 {
		require.NoError(t, scene.UpdateGeneral())
	}
	require.NoError(t, scene.DrawGeneral())

	stats := scene.Stats()
	assert.Equal(t, 2, stats.EntityCount)
	assert.Equal(t, 1, stats.SystemCount)
	assert.Equal(t, int64(4), stats.Dispatches)
	require.Len(t, stats.Systems, 1)

	system := stats.Systems[0]
	assert.Equal(t, "CounterSystem", system.Name)
	assert.Equal(t, int64(3), system.Update.ExecutionCount)
	assert.Equal(t, int64(1), system.Draw.ExecutionCount)
	assert.LessOrEqual(t, system.Update.MinDuration, system.Update.MaxDuration)
	assert.Equal(t, system.Update.TotalDuration/3, system.Update.AvgDuration)
}

type orderProbe struct {
	ecs.BaseBehaviour
	steps *[]string
	name  string
}

func (p *orderProbe) Update() { *p.steps = append(*p.steps, p.name+".update") }
func (p *orderProbe) Draw()   { *p.steps = append(*p.steps, p.name+".draw") }

type orderSystem struct {
	ecs.BaseSystem
	steps *[]string
}

func (s *orderSystem) Update() { *s.steps = append(*s.steps, "system.update") }
func (s *orderSystem) Draw()   { *s.steps = append(*s.steps, "system.draw") }
func (s *orderSystem) OnEntityAdded(*ecs.Entity) {
	*s.steps = append(*s.steps, "flush")
}

func TestScheduler(t *testing.T) {
	t.Run("iteration order", func(t *testing.T) {
		var steps []string
		scene := ecs.NewScene(ecs.WithWorkers(1))
		scene.AddSystem(&orderSystem{steps: &steps})
		scene.AddSystem(ecs.NewBehaviourSystem())

		e, _ := scene.Create("")
		_, _ = e.AddComponent(&orderProbe{steps: &steps, name: "behaviour"})

		scheduler := ecs.NewScheduler(scene)
		require.NoError(t, scheduler.Once())

		assert.Equal(t, []string{
			"flush",
			"system.update",
			"behaviour.update",
			"system.draw",
			"behaviour.draw",
		}, steps)
		assert.Equal(t, int64(1), scheduler.Frames())
	})

	t.Run("run until cancelled", func(t *testing.T) {
		scene := ecs.NewScene()
		counter := &CounterSystem{}
		scene.AddSystem(counter)
		scheduler := ecs.NewScheduler(scene)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		require.NoError(t, scheduler.Run(ctx, 5*time.Millisecond))
		assert.Positive(t, scheduler.Frames())
		assert.Equal(t, scheduler.Frames(), counter.updates.Load())
	})

	t.Run("run stops on failure", func(t *testing.T) {
		scene := ecs.NewScene()
		scene.AddSystem(&PanickingSystem{})
		scheduler := ecs.NewScheduler(scene)

		err := scheduler.Run(context.Background(), time.Millisecond)

		var panicErr *ecs.SystemPanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, int64(0), scheduler.Frames())
	})
}
