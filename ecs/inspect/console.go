package inspect

import (
	"io"
	"slices"

	"github.com/plus3/simcore/ecs"
	"go.uber.org/zap"
)

// Console bundles the inspectors for one manager. It keeps the entity
// selection in sync with the RequestEntitySelect, RequestEntityDeselect and
// RequestToggleEntitySelection messages and switches output on and off with
// EnableDebugDrawing.
//
// As a System it records frame times and, while enabled, renders every
// RenderEvery frames once the frame's commands are flushed.
type Console struct {
	Browser   *EntityBrowser
	Inspector *ComponentInspector
	Systems   *SystemBrowser
	Query     *TypeQuery
	Perf      *PerformanceStats

	RenderEvery uint64

	em        *ecs.EntityManager
	out       io.Writer
	scheduler *ecs.Scheduler
	selection []ecs.EntityId
	enabled   bool
	regs      []*ecs.Registration
	log       *zap.Logger
}

// NewConsole creates a disabled console writing to out.
func NewConsole(em *ecs.EntityManager, out io.Writer) *Console {
	c := &Console{
		Browser:     NewEntityBrowser(100),
		Inspector:   NewComponentInspector(),
		Systems:     NewSystemBrowser(),
		Query:       NewTypeQuery(),
		Perf:        NewPerformanceStats(120),
		RenderEvery: 60,
		em:          em,
		out:         out,
		log:         em.Logger().Named("inspect"),
	}
	c.regs = append(c.regs,
		em.RegisterForMessages(ecs.RequestEntitySelectMessageType, c.onSelect, ecs.OrderDefault, "inspect.Select"),
		em.RegisterForMessages(ecs.RequestEntityDeselectMessageType, c.onDeselect, ecs.OrderDefault, "inspect.Deselect"),
		em.RegisterForMessages(ecs.RequestToggleEntitySelectionMessageType, c.onToggle, ecs.OrderDefault, "inspect.Toggle"),
		em.RegisterForMessages(ecs.EnableDebugDrawingMessageType, c.onEnable, ecs.OrderDefault, "inspect.Enable"),
	)
	return c
}

// UseScheduler makes Render include the scheduler's timings.
func (c *Console) UseScheduler(s *ecs.Scheduler) { c.scheduler = s }

func (c *Console) Enabled() bool { return c.enabled }

// Selection returns the selected entities in selection order.
func (c *Console) Selection() []ecs.EntityId { return slices.Clone(c.selection) }

// Close unregisters the console's listeners.
func (c *Console) Close() {
	for _, r := range c.regs {
		c.em.UnregisterForMessages(r)
	}
	c.regs = nil
}

func (c *Console) Execute(frame *ecs.UpdateFrame) {
	c.Perf.Record(frame.DeltaRealTime)
	if !c.enabled || c.out == nil || c.RenderEvery == 0 || frame.Frame%c.RenderEvery != 0 {
		return
	}
	frame.Commands.Defer(func() {
		if err := c.Render(c.out); err != nil {
			c.log.Warn("render failed", zap.Error(err))
		}
	})
}

// Render writes every view to w. The component inspector shows the most
// recently selected entity.
func (c *Console) Render(w io.Writer) error {
	var stats *ecs.SchedulerStats
	if c.scheduler != nil {
		stats = c.scheduler.GetStats()
	}
	for _, render := range []func() error{
		func() error { return c.Browser.Render(w, c.em) },
		func() error { return c.Inspector.Render(w, c.em, c.Browser.Selected()) },
		func() error { return c.Systems.Render(w, c.em) },
		func() error { return c.Query.Render(w, c.em) },
		func() error { return c.Perf.Render(w, c.em, stats) },
	} {
		if err := render(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) setSelection(ids []ecs.EntityId) {
	c.selection = ids
	var primary ecs.EntityId
	if n := len(ids); n > 0 {
		primary = ids[n-1]
	}
	c.Browser.Select(primary)
}

// Requests without an entity are ignored.
func (c *Console) onSelect(msg *ecs.Message) error {
	eid := ecs.AboutEntity(msg)
	if eid == 0 {
		return nil
	}
	if !ecs.UseMultiSelect(msg) {
		c.setSelection([]ecs.EntityId{eid})
		return nil
	}
	ids := slices.DeleteFunc(c.selection, func(id ecs.EntityId) bool { return id == eid })
	c.setSelection(append(ids, eid))
	return nil
}

func (c *Console) onDeselect(msg *ecs.Message) error {
	eid := ecs.AboutEntity(msg)
	c.setSelection(slices.DeleteFunc(c.selection, func(id ecs.EntityId) bool { return id == eid }))
	return nil
}

func (c *Console) onToggle(msg *ecs.Message) error {
	eid := ecs.AboutEntity(msg)
	if eid == 0 {
		return nil
	}
	if slices.Contains(c.selection, eid) {
		return c.onDeselect(msg)
	}
	c.setSelection(append(c.selection, eid))
	return nil
}

func (c *Console) onEnable(msg *ecs.Message) error {
	c.enabled = ecs.DebugDrawingEnabled(msg)
	return nil
}
