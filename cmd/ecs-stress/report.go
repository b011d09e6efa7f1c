package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/plus3/simcore/ecs"
)

type Report struct {
	// Configuration
	Duration  time.Duration
	Entities  int
	Workers   int
	Spawners  int
	TimeScale float32

	// Results
	PopulateTime   time.Duration
	TotalUpdates   int64
	TotalTime      time.Duration
	UpdateTime     Stats
	FinalEntities  int
	Expired        int64
	Respawns       int64
	Pings          int64
	Scheduler      *ecs.SchedulerStats
	Process        ProcessStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// ProcessStats is what the OS reports for this process at the end of a run.
type ProcessStats struct {
	Available  bool
	CPUPercent float64
	RSS        uint64
	Threads    int32
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P99     time.Duration
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
	s.P99 = percentile(s.Samples, 0.99)
}

// percentile sorts a copy of samples and returns the sample at rank q.
func percentile(samples []time.Duration, q float64) time.Duration {
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	slices.Sort(sorted)
	return sorted[int(float64(len(sorted)-1)*q)]
}

// readProcessStats asks the OS about the current process. Failures leave
// Available false; the report then skips the section.
func readProcessStats() ProcessStats {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ProcessStats{}
	}
	cpu, err := proc.CPUPercent()
	if err != nil {
		return ProcessStats{}
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return ProcessStats{}
	}
	threads, _ := proc.NumThreads()
	return ProcessStats{Available: true, CPUPercent: cpu, RSS: mem.RSS, Threads: threads}
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Populate Workers:** {{.Workers}}
- **Spawnable Templates:** {{.Spawners}}
- **Time Scale:** {{.TimeScale}}

## Performance Results
- **Populate Time:** {{.PopulateTime}}
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
  - **P99:** {{.UpdateTime.P99}}

## Simulation
- **Final Entities:** {{.FinalEntities}}
- **Expired:** {{.Expired}}
- **Respawned:** {{.Respawns}}
- **Pings Delivered:** {{.Pings}}
{{with .Scheduler}}- **Simulation Time:** {{printf "%.3f" .SimulationTime}} s over {{.Frames}} frames

| Phase | Runs | Avg | Max |
|-------|------|-----|-----|
{{range .Phases}}| {{.Name}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MaxDuration}} |
{{end}}
| System | Runs | Avg | Max |
|--------|------|-----|-----|
{{range .Systems}}| {{.Name}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MaxDuration}} |
{{end}}{{end}}
## Memory Usage (MB)
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} (start) -> {{mb .MemStatsEnd.HeapAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc)}}
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} (start) -> {{mb .MemStatsEnd.TotalAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc)}}
- Sys Memory:     {{mb .MemStatsStart.Sys}} (start) -> {{mb .MemStatsEnd.Sys}} (end) -> delta: {{mb (bsub .MemStatsEnd.Sys .MemStatsStart.Sys)}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .Process.Available}}
## Process
- CPU: {{printf "%.1f" .Process.CPUPercent}}%
- RSS: {{mb .Process.RSS}} MB
- Threads: {{.Process.Threads}}
{{end}}{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}`

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
