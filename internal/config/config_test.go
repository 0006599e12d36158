package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plus3/ooscene/ecs"
	"github.com/plus3/ooscene/internal/config"
)

func TestParse(t *testing.T) {
	t.Run("defaults fill missing keys", func(t *testing.T) {
		cfg, err := config.Parse([]byte(`
[scene]
workers = 3

[logging]
level = "debug"
`))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Scene.Workers)
		assert.Equal(t, ecs.MaxEntityCount, cfg.Scene.MaxEntities)
		assert.False(t, cfg.Scene.StrictRemoval)
		assert.Equal(t, 16*time.Millisecond, cfg.Scheduler.TickRate)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "console", cfg.Logging.Format)
	})

	t.Run("durations and flags", func(t *testing.T) {
		cfg, err := config.Parse([]byte(`
[scene]
max_entities = 1024
strict_removal = true

[scheduler]
tick_rate = "50ms"

[logging]
format = "json"
`))
		require.NoError(t, err)
		assert.Equal(t, uint32(1024), cfg.Scene.MaxEntities)
		assert.True(t, cfg.Scene.StrictRemoval)
		assert.Equal(t, 50*time.Millisecond, cfg.Scheduler.TickRate)
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("invalid values", func(t *testing.T) {
		for name, doc := range map[string]string{
			"tiny capacity":    "[scene]\nmax_entities = 1",
			"negative workers": "[scene]\nworkers = -1",
			"zero tick":        "[scheduler]\ntick_rate = \"0s\"",
			"bad format":       "[logging]\nformat = \"xml\"",
			"bad toml":         "[scene\n",
		} {
			t.Run(name, func(t *testing.T) {
				_, err := config.Parse([]byte(doc))
				assert.Error(t, err)
			})
		}
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scene]\nmax_entities = 8\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), cfg.Scene.MaxEntities)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSceneOptions(t *testing.T) {
	cfg := config.Defaults()
	cfg.Scene.MaxEntities = 4
	cfg.Scene.StrictRemoval = true

	scene := ecs.NewScene(cfg.SceneOptions(zap.NewNop())...)

	for range 3 {
		_, err := scene.Create("")
		require.NoError(t, err)
	}
	_, err := scene.Create("")
	assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)

	e := scene.Entities()[0]
	scene.RemoveEntity(e)
	_, err = e.Components()
	assert.ErrorIs(t, err, ecs.ErrEntityRemoved)
}
