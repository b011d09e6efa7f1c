package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/simcore/ecs"
	"github.com/plus3/simcore/ecs/spawnerio"
	"github.com/plus3/simcore/internal/config"
	"github.com/plus3/simcore/internal/metrics"
)

//go:embed units.yaml
var builtinSpawners []byte

// world is the simulation under test: a manager with lazily created systems,
// a spawner store and a scheduler running the stress systems.
type world struct {
	cfg       *config.Config
	em        *ecs.EntityManager
	store     *ecs.SpawnerStore
	handler   *ecs.CommandHandler
	scheduler *ecs.Scheduler
	spawnable []*ecs.Spawner
	rng       *rand.Rand
	log       *zap.Logger

	positions  *ecs.ComponentSystem[*Position]
	velocities *ecs.ComponentSystem[*Velocity]
	lifetimes  *ecs.ComponentSystem[*Lifetime]

	pings    int64
	expired  int64
	respawns int64
}

func newWorld(cfg *config.Config, log *zap.Logger, exporter *metrics.Exporter, seed uint64) (*world, error) {
	registry := ecs.NewComponentRegistry()
	registerComponents(registry, cfg.Stress.Entities)

	opts := []ecs.Option{ecs.WithLogger(log), ecs.WithRegistry(registry)}
	if exporter != nil {
		opts = append(opts, ecs.WithObserver(exporter))
	}
	em := ecs.NewEntityManager(opts...)
	if exporter != nil {
		exporter.Attach(em)
	}
	if err := registry.CreateAll(em); err != nil {
		return nil, err
	}

	w := &world{
		cfg:       cfg,
		em:        em,
		store:     ecs.NewSpawnerStore(em),
		scheduler: ecs.NewScheduler(em),
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:       log,
	}
	w.handler = ecs.NewCommandHandler(em, w.store)
	if err := w.scheduler.SetTimeScale(cfg.Simulation.TimeScale); err != nil {
		return nil, err
	}

	var ok bool
	if w.positions, ok = ecs.GetSystem[*ecs.ComponentSystem[*Position]](em, PositionType); !ok {
		return nil, fmt.Errorf("no Position system")
	}
	if w.velocities, ok = ecs.GetSystem[*ecs.ComponentSystem[*Velocity]](em, VelocityType); !ok {
		return nil, fmt.Errorf("no Velocity system")
	}
	if w.lifetimes, ok = ecs.GetSystem[*ecs.ComponentSystem[*Lifetime]](em, LifetimeType); !ok {
		return nil, fmt.Errorf("no Lifetime system")
	}

	if err := w.loadSpawners(cfg.Spawners.File); err != nil {
		return nil, err
	}

	em.RegisterForMessages(PingMessageType, func(*ecs.Message) error {
		w.pings++
		return nil
	}, ecs.OrderDefault, "stress.Ping")

	w.scheduler.Register(MovementSystem{w})
	w.scheduler.Register(AgingSystem{w})
	w.scheduler.Register(ChurnSystem{w})
	w.scheduler.Register(ChatterSystem{w})
	return w, nil
}

// loadSpawners fills the store from path, or from the built-in set when path
// is empty. Spawners flagged for the store that resolve to at most
// MaxComponents components become spawnable.
func (w *world) loadSpawners(path string) error {
	if path != "" {
		n, err := spawnerio.LoadIntoStore(path, w.store)
		if err != nil {
			return err
		}
		w.log.Info("loaded spawners", zap.String("file", path), zap.Int("count", n))
	} else {
		spawners, err := spawnerio.Decode(bytes.NewReader(builtinSpawners), spawnerio.WithMapName("builtin"))
		if err != nil {
			return err
		}
		for _, s := range spawners {
			if err := w.store.Add(s); err != nil {
				return err
			}
		}
	}

	limit := w.cfg.Stress.MaxComponents
	for _, name := range w.store.Names() {
		s, _ := w.store.Get(name)
		if !s.AddToSpawnerStore() {
			continue
		}
		if n := len(s.GetAllComponentPropertiesRecursive()); n > limit {
			w.log.Debug("skipping spawner", zap.String("spawner", name), zap.Int("components", n), zap.Int("max", limit))
			continue
		}
		w.spawnable = append(w.spawnable, s)
	}
	if len(w.spawnable) == 0 {
		return fmt.Errorf("no spawner is flagged add_to_store with at most %d components", limit)
	}
	return nil
}

func (w *world) pick() *ecs.Spawner {
	return w.spawnable[w.rng.IntN(len(w.spawnable))]
}

// scatter moves a fresh entity to a random spot in a 1000 unit cube.
func (w *world) scatter(e *ecs.Entity) {
	p, ok := ecs.ComponentOf[*Position](e, PositionType)
	if !ok {
		return
	}
	p.Translation.Set(ecs.Vec3{
		w.rng.Float32() * 1000,
		w.rng.Float32() * 1000,
		w.rng.Float32() * 1000,
	})
}

// populate creates n entities from the given number of goroutines and then
// spawns a random template onto each of them. Entity creation is safe for
// concurrent use; spawning creates components and stays on this goroutine.
func (w *world) populate(ctx context.Context, n, workers int) error {
	batches := make([][]*ecs.Entity, workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := range workers {
		count := n / workers
		if i < n%workers {
			count++
		}
		g.Go(func() error {
			batch := make([]*ecs.Entity, 0, count)
			for range count {
				if err := ctx.Err(); err != nil {
					return err
				}
				e, err := w.em.CreateEntity()
				if err != nil {
					return err
				}
				batch = append(batch, e)
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, e := range slices.Concat(batches...) {
		if err := w.pick().Spawn(e); err != nil {
			return fmt.Errorf("populate entity %d: %w", e.Id(), err)
		}
		w.scatter(e)
	}
	return nil
}

// The scheduler reports timings under the system's type name.
type (
	MovementSystem struct{ w *world }
	AgingSystem    struct{ w *world }
	ChurnSystem    struct{ w *world }
	ChatterSystem  struct{ w *world }
)

func (s MovementSystem) Execute(frame *ecs.UpdateFrame) { s.w.move(frame) }
func (s AgingSystem) Execute(frame *ecs.UpdateFrame)    { s.w.age(frame) }
func (s ChurnSystem) Execute(frame *ecs.UpdateFrame)    { s.w.churn(frame) }
func (s ChatterSystem) Execute(frame *ecs.UpdateFrame)  { s.w.chatter(frame) }

func (w *world) move(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	for row := range ecs.Join2(w.positions, w.velocities) {
		p, v := row.A.Translation.Get(), row.B.Linear.Get()
		row.A.Translation.Set(ecs.Vec3{p[0] + v[0]*dt, p[1] + v[1]*dt, p[2] + v[2]*dt})
	}
}

// age counts lifetimes down and replaces every expired entity with a fresh
// one once the frame's commands are flushed.
func (w *world) age(frame *ecs.UpdateFrame) {
	for eid, l := range w.lifetimes.All() {
		left := l.Remaining.Get()
		if left <= 0 {
			continue
		}
		left -= frame.DeltaTime
		l.Remaining.Set(left)
		if left <= 0 {
			w.expired++
			frame.Commands.KillEntity(eid)
			frame.Commands.Spawn(w.pick(), w.scatter)
		}
	}
}

// churn kills a share of the live entities and respawns the same number
// through SpawnEntity requests, so the command handler assigns each a
// unique id.
func (w *world) churn(frame *ecs.UpdateFrame) {
	if w.cfg.Stress.KillRate <= 0 {
		return
	}
	ids := w.em.EntityIds()
	n := int(float64(len(ids)) * w.cfg.Stress.KillRate)
	for range n {
		frame.Commands.KillEntity(ids[w.rng.IntN(len(ids))])
		req := ecs.NewSpawnEntityMessage(ecs.SpawnEntityView{SpawnerName: w.pick().Name()})
		if err := w.em.EmitMessage(req); err != nil {
			w.log.Warn("respawn failed", zap.Error(err))
			continue
		}
		w.respawns++
	}
}

// chatter queues pings for delivery within the next simulated second.
func (w *world) chatter(frame *ecs.UpdateFrame) {
	for range w.cfg.Stress.MessagesPerRun {
		msg := ecs.NewMessage(PingMessageType).
			Register(fieldSentAt, ecs.NewProperty(frame.SimulationTime))
		w.em.EnqueueMessage(msg, frame.SimulationTime+w.rng.Float64())
	}
}

func (w *world) close() {
	w.handler.Close()
}
