// Command ecs-stress populates an entity manager from spawner templates and
// runs the scheduler flat out for a fixed time, then prints a report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/simcore/ecs"
	"github.com/plus3/simcore/ecs/inspect"
	"github.com/plus3/simcore/internal/config"
	"github.com/plus3/simcore/internal/logging"
	"github.com/plus3/simcore/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ecs-stress:", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := config.Defaults()
	configPath := flag.String("config", "", "TOML file with the run settings.")
	duration := flag.Duration("duration", defaults.Stress.Duration, "The total duration the test should run for.")
	entityCount := flag.Int("entities", defaults.Stress.Entities, "The initial number of entities to create.")
	workers := flag.Int("workers", defaults.Stress.Workers, "Goroutines creating the initial entities.")
	spawners := flag.String("spawners", "", "YAML spawner file replacing the built-in templates.")
	inspectOn := flag.Bool("inspect", false, "Print the inspector console while running.")
	metricsOn := flag.Bool("metrics", false, "Serve Prometheus metrics while running.")
	profileMode := flag.String("profile", "", "Profile the run: cpu, mem, block, mutex or trace.")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for template picks and placement.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg := defaults
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Stress.Duration = *duration
		case "entities":
			cfg.Stress.Entities = *entityCount
		case "workers":
			cfg.Stress.Workers = *workers
		case "spawners":
			cfg.Spawners.File = *spawners
		case "inspect":
			cfg.Inspect.Enabled = *inspectOn
		case "metrics":
			cfg.Metrics.Enabled = *metricsOn
		case "profile":
			cfg.Profile.Mode = *profileMode
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	if mode, ok := profileModes[cfg.Profile.Mode]; ok {
		defer profile.Start(mode, profile.ProfilePath(cfg.Profile.Path), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	var exporter *metrics.Exporter
	if cfg.Metrics.Enabled {
		exporter = metrics.New(cfg.Metrics.Namespace, ecs.Strings)
	}

	w, err := newWorld(cfg, log, exporter, *seed)
	if err != nil {
		return err
	}
	defer w.close()

	if cfg.Inspect.Enabled {
		console := inspect.NewConsole(w.em, os.Stderr)
		console.RenderEvery = cfg.Inspect.RenderEvery
		console.UseScheduler(w.scheduler)
		w.scheduler.Register(console)
		defer console.Close()
		if err := w.em.EmitMessage(ecs.NewEnableDebugDrawingMessage(true)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report := &Report{
		Duration:       cfg.Stress.Duration,
		Entities:       cfg.Stress.Entities,
		Workers:        cfg.Stress.Workers,
		Spawners:       len(w.spawnable),
		TimeScale:      cfg.Simulation.TimeScale,
		GCPauseMetrics: *gcPauseMetrics,
	}

	log.Info("populating", zap.Int("entities", cfg.Stress.Entities), zap.Int("workers", cfg.Stress.Workers))
	start := time.Now()
	if err := w.populate(ctx, cfg.Stress.Entities, cfg.Stress.Workers); err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	report.PopulateTime = time.Since(start)

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running simulation", zap.Duration("duration", cfg.Stress.Duration))
	runCtx, cancel := context.WithTimeout(ctx, cfg.Stress.Duration)
	defer cancel()
	g, runCtx := errgroup.WithContext(runCtx)
	if exporter != nil {
		g.Go(func() error { return exporter.Serve(runCtx, cfg.Metrics.BindAddress, log) })
	}
	g.Go(func() error {
		defer cancel()
		return w.run(runCtx, report, exporter)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	runtime.ReadMemStats(&report.MemStatsEnd)
	report.FinalEntities = w.em.EntityCount()
	report.Expired, report.Respawns, report.Pings = w.expired, w.respawns, w.pings
	report.Scheduler = w.scheduler.GetStats()
	report.Process = readProcessStats()
	log.Info("simulation finished", zap.Int64("frames", report.TotalUpdates))

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")
	return nil
}

var profileModes = map[string]func(*profile.Profile){
	"cpu":   profile.CPUProfile,
	"mem":   profile.MemProfile,
	"block": profile.BlockProfile,
	"mutex": profile.MutexProfile,
	"trace": profile.TraceProfile,
}

// run steps the scheduler until ctx is done. A configured frame time paces
// the loop; otherwise frames run back to back.
func (w *world) run(ctx context.Context, report *Report, exporter *metrics.Exporter) error {
	startTime := time.Now()
	lastFrameTime := startTime
	var ticker <-chan time.Time
	if ft := w.cfg.Simulation.FrameTime; ft > 0 {
		t := time.NewTicker(ft)
		defer t.Stop()
		ticker = t.C
	}

	for {
		select {
		case <-ctx.Done():
			report.TotalTime = time.Since(startTime)
			report.UpdateTime.Finalize()
			return nil
		default:
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				continue
			case <-ticker:
			}
		}

		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		if err := w.scheduler.Once(deltaTime.Seconds()); err != nil {
			w.log.Warn("frame failed", zap.Uint64("frame", w.scheduler.Frame()), zap.Error(err))
		}
		updateDuration := time.Since(updateStart)

		report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
		report.TotalUpdates++
		if exporter != nil {
			exporter.ObserveFrame(updateDuration)
		}
	}
}
