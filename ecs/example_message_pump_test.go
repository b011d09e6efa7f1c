package ecs_test

import (
	"fmt"

	"github.com/plus3/simcore/ecs"
)

// ExampleMessagePump registers listeners at different orders and queues a
// message for a later simulation time.
func ExampleMessagePump() {
	pump := ecs.NewMessagePump(nil)
	alarm := ecs.SID("AlarmMessage")
	level := ecs.SID("Level")

	pump.RegisterForMessages(alarm, func(m *ecs.Message) error {
		fmt.Println("late listener sees level", m.Value(level).IntValue())
		return nil
	}, ecs.OrderLate, "late")
	pump.RegisterForMessages(alarm, func(m *ecs.Message) error {
		fmt.Println("early listener sees level", m.Value(level).IntValue())
		return nil
	}, ecs.OrderEarly|ecs.SingleShot, "early")

	_ = pump.EmitMessage(ecs.NewMessage(alarm).Register(level, ecs.NewProperty(int32(1))))

	pump.EnqueueMessage(ecs.NewMessage(alarm).Register(level, ecs.NewProperty(int32(2))), 3.0)
	_ = pump.EmitQueuedMessages(1.0)
	fmt.Println("queued:", pump.QueuedCount())
	_ = pump.EmitQueuedMessages(3.0)
	fmt.Println("queued:", pump.QueuedCount())

	// Output:
	// early listener sees level 1
	// late listener sees level 1
	// queued: 1
	// late listener sees level 2
	// queued: 0
}
