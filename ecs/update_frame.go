package ecs

// UpdateFrame is the view of one scheduler step handed to every System.
type UpdateFrame struct {
	// DeltaTime is the simulated time since the previous frame, already scaled.
	DeltaTime      float64
	DeltaRealTime  float64
	TimeScale      float32
	SimulationTime float64
	Frame          uint64
	Commands       *Commands
	Manager        *EntityManager
}

func (f *UpdateFrame) tick() TickView {
	return TickView{
		DeltaSimTime:   f.DeltaTime,
		DeltaRealTime:  f.DeltaRealTime,
		TimeScale:      f.TimeScale,
		SimulationTime: f.SimulationTime,
	}
}
