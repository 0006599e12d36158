package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/plus3/ooscene/ecs"
)

type Config struct {
	Scene     SceneConfig     `toml:"scene"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Logging   LoggingConfig   `toml:"logging"`
}

type SceneConfig struct {
	MaxEntities   uint32 `toml:"max_entities"`
	Workers       int    `toml:"workers"` // 0 = GOMAXPROCS
	StrictRemoval bool   `toml:"strict_removal"`
}

type SchedulerConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Scene: SceneConfig{
			MaxEntities: ecs.MaxEntityCount,
			Workers:     0,
		},
		Scheduler: SchedulerConfig{
			TickRate: 16 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) validate() error {
	if c.Scene.MaxEntities < 2 {
		return fmt.Errorf("scene.max_entities must be at least 2, got %d", c.Scene.MaxEntities)
	}
	if c.Scene.Workers < 0 {
		return fmt.Errorf("scene.workers must not be negative, got %d", c.Scene.Workers)
	}
	if c.Scheduler.TickRate <= 0 {
		return fmt.Errorf("scheduler.tick_rate must be positive, got %s", c.Scheduler.TickRate)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// SceneOptions converts the scene section into scene options.
func (c *Config) SceneOptions(logger *zap.Logger) []ecs.Option {
	workers := c.Scene.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return []ecs.Option{
		ecs.WithLogger(logger),
		ecs.WithMaxEntities(c.Scene.MaxEntities),
		ecs.WithWorkers(workers),
		ecs.WithStrictRemoval(c.Scene.StrictRemoval),
	}
}
