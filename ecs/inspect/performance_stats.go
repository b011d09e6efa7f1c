package inspect

import (
	"fmt"
	"io"
	"time"

	"github.com/plus3/simcore/ecs"
)

// PerformanceStats keeps a ring of recent frame times and renders them next
// to the scheduler's per-system and per-phase timings.
type PerformanceStats struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
	recorded      int
}

func NewPerformanceStats(historyFrames int) *PerformanceStats {
	if historyFrames <= 0 {
		historyFrames = 120
	}
	return &PerformanceStats{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

// Record adds a frame that took deltaTime seconds.
func (ps *PerformanceStats) Record(deltaTime float64) {
	ps.frameHistory[ps.frameIndex] = float32(deltaTime * 1000.0)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
	ps.recorded = min(ps.recorded+1, ps.historyFrames)
}

// AverageFrameTime returns the mean of the recorded frames in milliseconds.
func (ps *PerformanceStats) AverageFrameTime() float32 {
	if ps.recorded == 0 {
		return 0
	}
	var sum float32
	for _, ft := range ps.frameHistory[:ps.recorded] {
		sum += ft
	}
	return sum / float32(ps.recorded)
}

// History returns the recorded frame times, oldest first.
func (ps *PerformanceStats) History() []float32 {
	out := make([]float32, 0, ps.recorded)
	if ps.recorded < ps.historyFrames {
		return append(out, ps.frameHistory[:ps.recorded]...)
	}
	out = append(out, ps.frameHistory[ps.frameIndex:]...)
	return append(out, ps.frameHistory[:ps.frameIndex]...)
}

// Render prints entity counts, the frame time summary and, when stats is not
// nil, the scheduler timings.
func (ps *PerformanceStats) Render(w io.Writer, em *ecs.EntityManager, stats *ecs.SchedulerStats) error {
	ew := &errWriter{w: w}
	header(ew, "Performance Stats")

	st := takeStamp(em)
	ew.printf("Total Entities: %d\n", st.entities)
	ew.printf("Total Components: %d\n", st.components)
	ew.printf("Entity Systems: %d\n", len(em.EntitySystems()))
	ew.printf("Queued Messages: %d\n", em.MessagePump().QueuedCount())

	if avg := ps.AverageFrameTime(); avg > 0 {
		ew.printf("Avg Frame Time: %.2f ms (%.0f FPS)\n", avg, 1000.0/avg)
	}
	if stats == nil {
		return ew.err
	}

	ew.printf("Frames: %d  Simulation Time: %.3f s  Time Scale: %g\n", stats.Frames, stats.SimulationTime, stats.TimeScale)
	renderTimings(ew, "System", stats.Systems)
	renderTimings(ew, "Phase", stats.Phases)
	return ew.err
}

func renderTimings(ew *errWriter, kind string, rows []ecs.SystemStats) {
	if len(rows) == 0 {
		return
	}
	tw := newTable(ew.w)
	fmt.Fprintf(tw, "%s\tRuns\tAvg\tMin\tMax\tLast\n", kind)
	for _, s := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", s.Name, s.ExecutionCount,
			s.AvgDuration, s.MinDuration, s.MaxDuration, s.LastDuration)
	}
	ew.flush(tw)
}

type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

// DeltaTime returns the seconds since the previous call.
func (ft *FrameTimer) DeltaTime() float64 {
	now := time.Now()
	delta := now.Sub(ft.lastFrameTime).Seconds()
	ft.lastFrameTime = now
	return delta
}
