package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/plus3/ooscene/ecs"
)

func newTestScene(t *testing.T) *ecs.Scene {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	registerComponents(registry)
	return ecs.NewScene(ecs.WithRegistry(registry), ecs.WithLogger(zaptest.NewLogger(t)))
}

func TestMoverSystem(t *testing.T) {
	scene := newTestScene(t)
	scene.AddSystem(NewMoverSystem())

	e, err := scene.Create("mover")
	require.NoError(t, err)
	pos, err := ecs.AddComponent[Position](e)
	require.NoError(t, err)
	vel, err := ecs.AddComponent[Velocity](e)
	require.NoError(t, err)
	vel.DX, vel.DY = 1, -2

	scheduler := ecs.NewScheduler(scene)
	for range 3 {
		require.NoError(t, scheduler.Once())
	}
	assert.Equal(t, 3.0, pos.X)
	assert.Equal(t, -6.0, pos.Y)
}

func TestDecaySystem(t *testing.T) {
	scene := newTestScene(t)
	decay := NewDecaySystem(scene)
	census := NewCensusSystem(scene)
	scene.AddSystem(decay)
	scene.AddSystem(census)

	e, err := scene.Create("mortal")
	require.NoError(t, err)
	_, err = e.AddComponent(&Health{Current: 2})
	require.NoError(t, err)

	scheduler := ecs.NewScheduler(scene)
	require.NoError(t, scheduler.Once())
	assert.True(t, e.IsValid())
	require.NoError(t, scheduler.Once())
	assert.Equal(t, int64(1), decay.disposed.Load())

	// The disposal is applied at the start of the next frame.
	require.NoError(t, scheduler.Once())
	assert.False(t, e.IsValid())
	assert.Zero(t, scene.EntityCount())
	assert.Equal(t, int64(1), census.added.Load())
	assert.Equal(t, int64(1), census.removed.Load())
	assert.Equal(t, int64(1), census.peak.Load())
}

func TestChurnSystem(t *testing.T) {
	scene := newTestScene(t)
	sp := newSpawner(42)
	scene.AddSystem(NewChurnSystem(scene, sp, 5))

	scheduler := ecs.NewScheduler(scene)
	require.NoError(t, scheduler.Once())
	assert.Zero(t, scene.EntityCount(), "spawns are deferred to the next flush")

	require.NoError(t, scheduler.Once())
	assert.Equal(t, 5, scene.EntityCount())
	assert.Equal(t, int64(5), sp.spawned.Load())

	for _, e := range scene.Entities() {
		has, err := ecs.HasComponent[Position](e)
		require.NoError(t, err)
		assert.True(t, has)
	}
}

func TestSpawnCapacity(t *testing.T) {
	scene := ecs.NewScene(ecs.WithMaxEntities(3))
	sp := newSpawner(1)

	require.NoError(t, sp.spawn(scene))
	require.NoError(t, sp.spawn(scene))
	assert.ErrorIs(t, sp.spawn(scene), ecs.ErrCapacityExceeded)
	assert.Equal(t, int64(1), sp.failed.Load())
}

func TestReportGenerate(t *testing.T) {
	scene := newTestScene(t)
	scene.AddSystem(NewMoverSystem())
	require.NoError(t, ecs.NewScheduler(scene).Once())

	report := &Report{
		Entities:  10,
		FrameTime: Stats{Samples: nil},
		Scene:     scene.Stats(),
	}
	report.FrameTime.Finalize()

	var buf bytes.Buffer
	require.NoError(t, report.Generate(&buf))
	assert.Contains(t, buf.String(), "Initial Entities:** 10")
	assert.Contains(t, buf.String(), "| MoverSystem | 1 |")
	assert.NotContains(t, buf.String(), "Frame Time")
}
