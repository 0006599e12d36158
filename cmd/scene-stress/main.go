package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/plus3/ooscene/ecs"
	"github.com/plus3/ooscene/internal/config"
	"github.com/plus3/ooscene/persist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a TOML config file. Defaults are used when empty.")
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	workers := flag.Int("workers", 0, "Concurrent systems per pass. Overrides the config when positive.")
	churn := flag.Int("churn", 10, "Entities spawned per frame.")
	paced := flag.Bool("paced", false, "Run at the configured tick rate instead of as fast as possible.")
	snapshot := flag.String("snapshot", "", "Write a YAML snapshot of the final scene to this path.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *workers > 0 {
		cfg.Scene.Workers = *workers
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting scene stress test",
		zap.Duration("duration", *duration),
		zap.Int("entities", *entityCount),
		zap.Int("churn", *churn),
	)

	// 1. Setup registry, scene and systems
	registry := ecs.NewComponentRegistry()
	components := registerComponents(registry)
	scene := ecs.NewScene(append(cfg.SceneOptions(logger), ecs.WithRegistry(registry))...)
	defer scene.Dispose()

	sp := newSpawner(uint64(time.Now().UnixNano()))
	census := NewCensusSystem(scene)
	decay := NewDecaySystem(scene)
	scene.AddSystem(ecs.NewBehaviourSystem())
	scene.AddSystem(NewMoverSystem())
	scene.AddSystem(decay)
	scene.AddSystem(census)
	if *churn > 0 {
		scene.AddSystem(NewChurnSystem(scene, sp, *churn))
	}

	// 2. Populate the scene with initial entities
	for range *entityCount {
		if err := sp.spawn(scene); err != nil {
			return fmt.Errorf("populate: %w", err)
		}
	}
	logger.Info("population complete", zap.Int("entities", scene.EntityCount()))

	// 3. Run the simulation loop
	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Churn:          *churn,
		Workers:        cfg.Scene.Workers,
		Components:     components,
		Paced:          *paced,
		TickRate:       cfg.Scheduler.TickRate,
		GCPauseMetrics: *gcPauseMetrics,
	}
	if report.Workers == 0 {
		report.Workers = runtime.GOMAXPROCS(0)
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	scheduler := ecs.NewScheduler(scene)
	startTime := time.Now()
	if *paced {
		err = scheduler.Run(ctx, cfg.Scheduler.TickRate)
	} else {
		err = runUnpaced(ctx, scheduler, &report.FrameTime)
	}
	if err != nil {
		return err
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = scheduler.Frames()
	report.FrameTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.Spawned = sp.spawned.Load()
	report.SpawnFailures = sp.failed.Load()
	report.Disposed = decay.disposed.Load()
	report.EntitiesAdded = census.added.Load()
	report.EntitiesGone = census.removed.Load()
	report.PeakEntities = census.peak.Load()
	report.Scene = scene.Stats()

	logger.Info("simulation finished", zap.Int64("frames", report.TotalUpdates))

	// 4. Generate report to console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")

	if *snapshot != "" {
		data, err := persist.SnapshotScene(scene)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if err := persist.SaveFile(*snapshot, data); err != nil {
			return err
		}
		logger.Info("snapshot written",
			zap.String("path", *snapshot),
			zap.Int("entities", len(data.Entities)),
		)
	}
	return nil
}

// runUnpaced iterates as fast as possible, sampling each frame's duration.
func runUnpaced(ctx context.Context, scheduler *ecs.Scheduler, frames *Stats) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			start := time.Now()
			if err := scheduler.Once(); err != nil {
				return err
			}
			frames.Samples = append(frames.Samples, time.Since(start))
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
