package ecs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SceneStats provides statistics about a scene and its system dispatches.
type SceneStats struct {
	EntityCount    int
	PendingAdds    int
	PendingRemoves int
	SystemCount    int
	Generation     uint64
	Dispatches     int64
	Systems        []SystemStats
}

// SystemStats provides dispatch statistics for a single system.
type SystemStats struct {
	Name   string
	Update PassStats
	Draw   PassStats
}

// PassStats provides execution statistics for one kind of pass of a system.
type PassStats struct {
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type passStatsInternal struct {
	mu             sync.Mutex
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (p *passStatsInternal) time(fn func()) {
	start := time.Now()
	fn()
	p.record(time.Since(start))
}

func (p *passStatsInternal) record(duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.executionCount++
	p.lastDuration = duration
	p.totalDuration += duration

	if p.executionCount == 1 || duration < p.minDuration {
		p.minDuration = duration
	}
	if duration > p.maxDuration {
		p.maxDuration = duration
	}
}

func (p *passStatsInternal) snapshot() PassStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	avgDuration := time.Duration(0)
	if p.executionCount > 0 {
		avgDuration = p.totalDuration / time.Duration(p.executionCount)
	}
	return PassStats{
		ExecutionCount: p.executionCount,
		MinDuration:    p.minDuration,
		MaxDuration:    p.maxDuration,
		AvgDuration:    avgDuration,
		LastDuration:   p.lastDuration,
		TotalDuration:  p.totalDuration,
	}
}

// Scheduler drives a scene one iteration at a time: flush, general update,
// behaviour update, general draw, behaviour draw.
type Scheduler struct {
	scene  *Scene
	frames atomic.Int64
}

// NewScheduler creates a new scheduler for the given scene.
func NewScheduler(scene *Scene) *Scheduler {
	return &Scheduler{scene: scene}
}

// Scene returns the driven scene.
func (s *Scheduler) Scene() *Scene {
	return s.scene
}

// Once runs a single iteration.
func (s *Scheduler) Once() error {
	if err := s.scene.PrepareForNextIteration(); err != nil {
		return fmt.Errorf("prepare iteration: %w", err)
	}
	if err := s.scene.UpdateGeneral(); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	s.scene.UpdateBehaviour()
	if err := s.scene.DrawGeneral(); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	s.scene.DrawBehaviour()

	s.frames.Add(1)
	return nil
}

// Run executes iterations at the given interval until the context is
// cancelled or an iteration fails.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Once(); err != nil {
				s.scene.Logger().Error("iteration failed",
					zap.Int64("frame", s.frames.Load()),
					zap.Error(err),
				)
				return err
			}
		}
	}
}

// Frames returns the number of completed iterations.
func (s *Scheduler) Frames() int64 {
	return s.frames.Load()
}
