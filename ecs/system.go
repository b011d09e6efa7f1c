package ecs

// System is per-frame behaviour run by the Scheduler after the Tick message
// went out. Systems typically hold the component systems they work on and
// queue structural changes through frame.Commands.
type System interface {
	Execute(frame *UpdateFrame)
}

// SystemFunc adapts a function to System.
type SystemFunc func(frame *UpdateFrame)

func (f SystemFunc) Execute(frame *UpdateFrame) { f(frame) }
