package ecs

import (
	"container/heap"
	"errors"

	"go.uber.org/zap"
)

// MessageFunc receives a delivered message. A returned error is reported to
// the emitter; it does not stop delivery to the remaining listeners.
type MessageFunc func(msg *Message) error

// FilterOptions controls the order and lifetime of a registration.
type FilterOptions uint8

const (
	OrderDefault FilterOptions = 0
	OrderEarly   FilterOptions = 1 << 0
	OrderLate    FilterOptions = 1 << 1
	// SingleShot registrations are removed after their first delivery.
	SingleShot FilterOptions = 1 << 2
)

func (o FilterOptions) level() int {
	switch {
	case o&OrderEarly != 0:
		return 0
	case o&OrderLate != 0:
		return 2
	default:
		return 1
	}
}

// Registration is the handle returned by RegisterForMessages.
type Registration struct {
	mtype   MessageType
	fn      MessageFunc
	options FilterOptions
	name    string
	seq     uint64
	active  bool
}

func (r *Registration) MessageType() MessageType { return r.mtype }
func (r *Registration) Name() string             { return r.name }
func (r *Registration) Options() FilterOptions   { return r.options }
func (r *Registration) Active() bool             { return r.active }

// PumpObserver is told about every emission and every change of the queue
// depth. Metrics exporters implement it.
type PumpObserver interface {
	OnEmit(t MessageType, listeners int, err error)
	OnQueue(depth int)
}

type queuedMessage struct {
	msg  *Message
	time float64
	seq  uint64
}

type messageQueue []queuedMessage

func (q messageQueue) Len() int { return len(q) }
func (q messageQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}
func (q messageQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *messageQueue) Push(x any)   { *q = append(*q, x.(queuedMessage)) }
func (q *messageQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = queuedMessage{}
	*q = old[:n-1]
	return item
}

// MessagePump delivers messages to registered listeners, either immediately
// or deferred until a simulation time is reached. It is not safe for
// concurrent use; all calls belong on the simulation goroutine.
type MessagePump struct {
	listeners map[MessageType][]*Registration
	queue     messageQueue
	regSeq    uint64
	queueSeq  uint64
	observer  PumpObserver
	log       *zap.Logger
}

// NewMessagePump creates an empty pump. log may be nil.
func NewMessagePump(log *zap.Logger) *MessagePump {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessagePump{
		listeners: make(map[MessageType][]*Registration),
		log:       log,
	}
}

// SetObserver installs o, replacing the previous observer. nil removes it.
func (p *MessagePump) SetObserver(o PumpObserver) {
	p.observer = o
}

// RegisterForMessages adds fn as a listener for t. Registering the same
// function twice yields two registrations and double delivery; keep the
// returned handle to unregister.
func (p *MessagePump) RegisterForMessages(t MessageType, fn MessageFunc, options FilterOptions, name string) *Registration {
	p.regSeq++
	reg := &Registration{
		mtype:   t,
		fn:      fn,
		options: options,
		name:    name,
		seq:     p.regSeq,
		active:  true,
	}

	// Copy on write: an emission in progress keeps iterating its own slice.
	current := p.listeners[t]
	next := make([]*Registration, 0, len(current)+1)
	inserted := false
	for _, r := range current {
		if !inserted && reg.options.level() < r.options.level() {
			next = append(next, reg)
			inserted = true
		}
		next = append(next, r)
	}
	if !inserted {
		next = append(next, reg)
	}
	p.listeners[t] = next

	p.log.Debug("registered for messages",
		zap.Stringer("type", t),
		zap.String("listener", name),
		zap.Uint8("options", uint8(options)))
	return reg
}

// UnregisterForMessages removes reg. It reports false if reg was not registered.
func (p *MessagePump) UnregisterForMessages(reg *Registration) bool {
	if reg == nil || !reg.active {
		return false
	}
	current := p.listeners[reg.mtype]
	next := make([]*Registration, 0, len(current))
	found := false
	for _, r := range current {
		if r == reg {
			found = true
			continue
		}
		next = append(next, r)
	}
	if !found {
		return false
	}
	reg.active = false
	if len(next) == 0 {
		delete(p.listeners, reg.mtype)
	} else {
		p.listeners[reg.mtype] = next
	}
	return true
}

// UnregisterAll removes every listener of t and returns how many were removed.
func (p *MessagePump) UnregisterAll(t MessageType) int {
	regs := p.listeners[t]
	for _, r := range regs {
		r.active = false
	}
	delete(p.listeners, t)
	return len(regs)
}

// HasListeners reports whether anything is registered for t.
func (p *MessagePump) HasListeners(t MessageType) bool {
	return len(p.listeners[t]) > 0
}

// ListenerNames returns the diagnostic names of t's listeners in delivery order.
func (p *MessagePump) ListenerNames(t MessageType) []string {
	regs := p.listeners[t]
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.name
	}
	return out
}

// EmitMessage delivers msg synchronously to every listener of its type:
// early listeners first, then default, then late, each level in registration
// order. Every listener runs; their errors are joined into the result.
func (p *MessagePump) EmitMessage(msg *Message) error {
	regs := p.listeners[msg.Type()]
	var errs []error
	delivered := 0
	for _, r := range regs {
		// Unregistered by an earlier listener of this same emission.
		if !r.active {
			continue
		}
		if r.options&SingleShot != 0 {
			p.UnregisterForMessages(r)
		}
		delivered++
		if err := r.fn(msg); err != nil {
			p.log.Warn("message listener failed",
				zap.Stringer("type", msg.Type()),
				zap.String("listener", r.name),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if p.observer != nil {
		p.observer.OnEmit(msg.Type(), delivered, err)
	}
	return err
}

// EnqueueMessage stores a copy of msg for delivery by the first
// EmitQueuedMessages call whose simulation time reaches time.
func (p *MessagePump) EnqueueMessage(msg *Message, time float64) {
	p.queueSeq++
	heap.Push(&p.queue, queuedMessage{msg: msg.Clone(), time: time, seq: p.queueSeq})
	if p.observer != nil {
		p.observer.OnQueue(len(p.queue))
	}
}

// EmitQueuedMessages delivers every queued message whose time is at most
// simtime, in time order and enqueue order for equal times. Messages enqueued
// while this call is delivering wait for the next call.
func (p *MessagePump) EmitQueuedMessages(simtime float64) error {
	var due []queuedMessage
	for len(p.queue) > 0 && p.queue[0].time <= simtime {
		due = append(due, heap.Pop(&p.queue).(queuedMessage))
	}

	// Listeners that enqueue push onto the heap, not onto due.
	var errs []error
	for _, item := range due {
		if err := p.EmitMessage(item.msg); err != nil {
			errs = append(errs, err)
		}
	}
	if p.observer != nil && len(due) > 0 {
		p.observer.OnQueue(len(p.queue))
	}
	return errors.Join(errs...)
}

// QueuedCount returns how many messages wait in the deferred queue.
func (p *MessagePump) QueuedCount() int {
	return len(p.queue)
}

// ClearQueue drops every deferred message.
func (p *MessagePump) ClearQueue() {
	p.queue = p.queue[:0]
	if p.observer != nil {
		p.observer.OnQueue(0)
	}
}
