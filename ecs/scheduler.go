package ecs

import (
	"context"
	"errors"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Frames          uint64
	SimulationTime  float64
	TimeScale       float32
	Systems         []SystemStats
	Phases          []SystemStats
}

// SystemStats provides execution statistics for a single system or frame phase.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newStatsInternal(name string) *systemStatsInternal {
	return &systemStatsInternal{name: name, minDuration: time.Duration(1<<63 - 1)}
}

func (s *systemStatsInternal) record(d time.Duration) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d
	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

func (s *systemStatsInternal) export() SystemStats {
	var avg, minDuration time.Duration
	if s.executionCount > 0 {
		avg = s.totalDuration / time.Duration(s.executionCount)
		minDuration = s.minDuration
	}
	return SystemStats{
		Name:           s.name,
		ExecutionCount: s.executionCount,
		MinDuration:    minDuration,
		MaxDuration:    s.maxDuration,
		AvgDuration:    avg,
		LastDuration:   s.lastDuration,
		TotalDuration:  s.totalDuration,
	}
}

// Frame phases, in execution order.
const (
	PhaseTick = iota
	PhaseSystems
	PhaseQueued
	PhaseEndOfFrame
	PhaseCommands
	phaseCount
)

var phaseNames = [phaseCount]string{"tick", "systems", "queued", "end-of-frame", "commands"}

// Scheduler is the simulation clock. Each step emits the Tick message, runs
// the registered systems in order, delivers the deferred messages that are
// due, emits EndOfFrame and PostUpdate and finally flushes the manager's
// command buffer.
type Scheduler struct {
	em          *EntityManager
	systems     []System
	systemStats []*systemStatsInternal
	phaseStats  [phaseCount]*systemStatsInternal

	simTime   float64
	timeScale float32
	frame     uint64
	log       *zap.Logger
}

// NewScheduler creates a scheduler driving em at time scale 1.
func NewScheduler(em *EntityManager) *Scheduler {
	s := &Scheduler{
		em:        em,
		systems:   make([]System, 0),
		timeScale: 1,
		log:       em.log.Named("scheduler"),
	}
	for i := range s.phaseStats {
		s.phaseStats[i] = newStatsInternal(phaseNames[i])
	}
	return s
}

// Register appends a system; systems run in registration order.
func (s *Scheduler) Register(system System) {
	s.systems = append(s.systems, system)

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	s.systemStats = append(s.systemStats, newStatsInternal(systemType.Name()))
}

func (s *Scheduler) SimulationTime() float64 { return s.simTime }
func (s *Scheduler) TimeScale() float32      { return s.timeScale }
func (s *Scheduler) Frame() uint64           { return s.frame }

// SetTimeScale changes how fast simulated time runs relative to real time
// and emits a TimeChanged message.
func (s *Scheduler) SetTimeScale(scale float32) error {
	if scale == s.timeScale {
		return nil
	}
	s.timeScale = scale
	return s.em.EmitMessage(NewTimeChangedMessage(s.simTime, scale))
}

// SetSimulationTime moves the clock and emits a TimeChanged message.
func (s *Scheduler) SetSimulationTime(t float64) error {
	s.simTime = t
	return s.em.EmitMessage(NewTimeChangedMessage(t, s.timeScale))
}

func (s *Scheduler) timed(phase int, fn func() error) error {
	start := time.Now()
	err := fn()
	s.phaseStats[phase].record(time.Since(start))
	return err
}

// Once advances the simulation by dt seconds of real time. Errors of the
// individual phases are joined; a failing phase does not skip later ones.
func (s *Scheduler) Once(dt float64) error {
	s.frame++
	frame := &UpdateFrame{
		DeltaTime:     dt * float64(s.timeScale),
		DeltaRealTime: dt,
		TimeScale:     s.timeScale,
		Frame:         s.frame,
		Commands:      s.em.Commands(),
		Manager:       s.em,
	}
	s.simTime += frame.DeltaTime
	frame.SimulationTime = s.simTime
	view := frame.tick()

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	collect(s.timed(PhaseTick, func() error {
		return s.em.EmitMessage(NewTickMessage(view))
	}))
	collect(s.timed(PhaseSystems, func() error {
		for i, system := range s.systems {
			start := time.Now()
			system.Execute(frame)
			s.systemStats[i].record(time.Since(start))
		}
		return nil
	}))
	collect(s.timed(PhaseQueued, func() error {
		return s.em.EmitQueuedMessages(s.simTime)
	}))
	collect(s.timed(PhaseEndOfFrame, func() error {
		return errors.Join(
			s.em.EmitMessage(NewEndOfFrameMessage(view)),
			s.em.EmitMessage(NewPostUpdateMessage(view)),
		)
	}))
	collect(s.timed(PhaseCommands, func() error {
		return frame.Commands.Flush(s.em)
	}))
	return errors.Join(errs...)
}

// Run steps the simulation at the given interval until the context is
// cancelled. Step errors are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.Once(dt); err != nil {
				s.log.Warn("frame failed", zap.Uint64("frame", s.frame), zap.Error(err))
			}
		}
	}
}

// GetStats returns statistics about system and phase execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount:    len(s.systems),
		Frames:         s.frame,
		SimulationTime: s.simTime,
		TimeScale:      s.timeScale,
		Systems:        make([]SystemStats, len(s.systemStats)),
		Phases:         make([]SystemStats, phaseCount),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		stats.Systems[i] = internal.export()
		totalExecs += internal.executionCount
	}
	for i, internal := range s.phaseStats {
		stats.Phases[i] = internal.export()
	}

	stats.TotalExecutions = totalExecs
	return stats
}
