package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/ooscene/ecs"
)

type Report struct {
	// Configuration
	Duration   time.Duration
	Entities   int
	Churn      int
	Workers    int
	Components int
	Paced      bool
	TickRate   time.Duration

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	FrameTime      Stats
	Spawned        int64
	SpawnFailures  int64
	Disposed       int64
	EntitiesAdded  int64
	EntitiesGone   int64
	PeakEntities   int64
	Scene          *ecs.SceneStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Scene Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Churn Per Frame:** {{.Churn}}
- **Workers:** {{.Workers}}
- **Registered Components:** {{.Components}}
- **Pacing:** {{if .Paced}}{{.TickRate}} ticks{{else}}unpaced{{end}}

## Performance Results
- **Total Frames:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
{{- if .FrameTime.Samples}}
- **Frame Time:**
  - **Avg:** {{.FrameTime.Avg}}
  - **Min:** {{.FrameTime.Min}}
  - **Max:** {{.FrameTime.Max}}
{{- end}}

## Scene
- **Live Entities:** {{.Scene.EntityCount}} (peak {{.PeakEntities}})
- **Pending:** {{.Scene.PendingAdds}} adds, {{.Scene.PendingRemoves}} removes
- **Generation:** {{.Scene.Generation}}
- **Dispatches:** {{.Scene.Dispatches}}
- **Spawned:** {{.Spawned}} ({{.SpawnFailures}} failed)
- **Decayed:** {{.Disposed}}
- **Entity Events:** {{.EntitiesAdded}} added, {{.EntitiesGone}} removed

## Systems
| System | Updates | Update Avg | Update Max | Draws | Draw Avg | Draw Max |
|--------|---------|------------|------------|-------|----------|----------|
{{- range .Scene.Systems}}
| {{.Name}} | {{.Update.ExecutionCount}} | {{.Update.AvgDuration}} | {{.Update.MaxDuration}} | {{.Draw.ExecutionCount}} | {{.Draw.AvgDuration}} | {{.Draw.MaxDuration}} |
{{- end}}

## Memory Usage (MiB)
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} (start) -> {{mb .MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc | mb}}
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} (start) -> {{mb .MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc | mb}}
- Sys Memory:     {{mb .MemStatsStart.Sys}} (start) -> {{mb .MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys | mb}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
