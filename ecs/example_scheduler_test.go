package ecs_test

import (
	"fmt"

	"github.com/plus3/simcore/ecs"
)

// regenSystem heals every Health component by Rate points per simulated
// second and removes entities whose health ran out.
type regenSystem struct {
	healths *ecs.ComponentSystem[*Health]
	Rate    float64
}

func (s *regenSystem) Execute(frame *ecs.UpdateFrame) {
	for eid, h := range s.healths.All() {
		if h.Current.Get() <= 0 {
			frame.Commands.KillEntity(eid)
			continue
		}
		next := h.Current.Get() + int32(s.Rate*frame.DeltaTime)
		h.Current.Set(min(next, h.Max.Get()))
	}
}

// ExampleScheduler runs a system for a few frames at double time scale. The
// kill requested during the first frame takes effect when that frame's
// commands are flushed.
func ExampleScheduler() {
	w := newTestWorld()

	hurt, _ := ecs.CreateComponentOf[*Health](w.em, mustEntity(w.em).Id(), HealthType)
	hurt.Current.Set(50)
	dead, _ := ecs.CreateComponentOf[*Health](w.em, mustEntity(w.em).Id(), HealthType)
	dead.Current.Set(0)

	scheduler := ecs.NewScheduler(w.em)
	scheduler.Register(&regenSystem{healths: w.healths, Rate: 10})
	_ = scheduler.SetTimeScale(2)

	for i := 0; i < 3; i++ {
		_ = scheduler.Once(1)
		fmt.Printf("frame %d: t=%.0f hp=%d entities=%d\n",
			scheduler.Frame(), scheduler.SimulationTime(), hurt.Current.Get(), w.em.EntityCount())
	}

	// Output:
	// frame 1: t=2 hp=70 entities=1
	// frame 2: t=4 hp=90 entities=1
	// frame 3: t=6 hp=100 entities=1
}
