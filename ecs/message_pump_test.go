package ecs_test

import (
	"errors"
	"testing"

	"github.com/plus3/simcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pingType = ecs.SID("PingMessage")
	pongType = ecs.SID("PongMessage")
	seqField = ecs.SID("Seq")
)

func ping(seq int32) *ecs.Message {
	return ecs.NewMessage(pingType).Register(seqField, ecs.NewProperty(seq))
}

func recorder(log *[]string, name string) ecs.MessageFunc {
	return func(*ecs.Message) error {
		*log = append(*log, name)
		return nil
	}
}

func TestEmitOrderByPriority(t *testing.T) {
	orders := [][]ecs.FilterOptions{
		{ecs.OrderLate, ecs.OrderDefault, ecs.OrderEarly},
		{ecs.OrderDefault, ecs.OrderLate, ecs.OrderEarly},
		{ecs.OrderEarly, ecs.OrderDefault, ecs.OrderLate},
	}
	names := map[ecs.FilterOptions]string{
		ecs.OrderEarly:   "early",
		ecs.OrderDefault: "default",
		ecs.OrderLate:    "late",
	}

	for _, order := range orders {
		pump := ecs.NewMessagePump(nil)
		var got []string
		for _, opt := range order {
			pump.RegisterForMessages(pingType, recorder(&got, names[opt]), opt, names[opt])
		}

		require.NoError(t, pump.EmitMessage(ping(1)))
		assert.Equal(t, []string{"early", "default", "late"}, got)
	}
}

func TestEmitOrderWithinLevel(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var got []string

	pump.RegisterForMessages(pingType, recorder(&got, "a"), ecs.OrderDefault, "a")
	pump.RegisterForMessages(pingType, recorder(&got, "late"), ecs.OrderLate, "late")
	pump.RegisterForMessages(pingType, recorder(&got, "b"), ecs.OrderDefault, "b")
	pump.RegisterForMessages(pingType, recorder(&got, "c"), ecs.OrderDefault, "c")

	require.NoError(t, pump.EmitMessage(ping(1)))
	assert.Equal(t, []string{"a", "b", "c", "late"}, got)
	assert.Equal(t, []string{"a", "b", "c", "late"}, pump.ListenerNames(pingType))
}

func TestEmitOnlyMatchingType(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var got []string
	pump.RegisterForMessages(pongType, recorder(&got, "pong"), ecs.OrderDefault, "pong")

	require.NoError(t, pump.EmitMessage(ping(1)))
	assert.Empty(t, got)
}

func TestDuplicateRegistrationDeliversTwice(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var got []string
	fn := recorder(&got, "dup")

	first := pump.RegisterForMessages(pingType, fn, ecs.OrderDefault, "dup")
	pump.RegisterForMessages(pingType, fn, ecs.OrderDefault, "dup")

	require.NoError(t, pump.EmitMessage(ping(1)))
	assert.Len(t, got, 2)

	assert.True(t, pump.UnregisterForMessages(first))
	assert.False(t, pump.UnregisterForMessages(first))

	got = nil
	require.NoError(t, pump.EmitMessage(ping(2)))
	assert.Len(t, got, 1)
}

func TestSingleShotRegistration(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var got []string
	reg := pump.RegisterForMessages(pingType, recorder(&got, "once"), ecs.SingleShot|ecs.OrderEarly, "once")

	require.NoError(t, pump.EmitMessage(ping(1)))
	require.NoError(t, pump.EmitMessage(ping(2)))

	assert.Equal(t, []string{"once"}, got)
	assert.False(t, reg.Active())
	assert.False(t, pump.HasListeners(pingType))
}

func TestUnregisterDuringEmit(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var got []string
	var second *ecs.Registration

	pump.RegisterForMessages(pingType, func(*ecs.Message) error {
		got = append(got, "first")
		pump.UnregisterForMessages(second)
		return nil
	}, ecs.OrderDefault, "first")
	second = pump.RegisterForMessages(pingType, recorder(&got, "second"), ecs.OrderDefault, "second")

	require.NoError(t, pump.EmitMessage(ping(1)))
	assert.Equal(t, []string{"first"}, got)
}

func TestListenerErrorsAreJoined(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	var got []string

	pump.RegisterForMessages(pingType, func(*ecs.Message) error { return errA }, ecs.OrderEarly, "a")
	pump.RegisterForMessages(pingType, recorder(&got, "b"), ecs.OrderDefault, "b")
	pump.RegisterForMessages(pingType, func(*ecs.Message) error { return errC }, ecs.OrderLate, "c")

	err := pump.EmitMessage(ping(1))

	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.Equal(t, []string{"b"}, got, "a failing listener does not stop delivery")
}

func TestEmitQueuedMessages(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var seqs []int32
	pump.RegisterForMessages(pingType, func(m *ecs.Message) error {
		seqs = append(seqs, m.Value(seqField).IntValue())
		return nil
	}, ecs.OrderDefault, "collect")

	pump.EnqueueMessage(ping(1), 3.0)
	pump.EnqueueMessage(ping(2), 1.0)
	pump.EnqueueMessage(ping(3), 2.0)
	pump.EnqueueMessage(ping(4), 1.0)
	pump.EnqueueMessage(ping(5), 10.0)

	assert.Empty(t, seqs, "enqueue never delivers")
	assert.Equal(t, 5, pump.QueuedCount())

	require.NoError(t, pump.EmitQueuedMessages(2.5))
	assert.Equal(t, []int32{2, 4, 3}, seqs, "time order, enqueue order on ties")
	assert.Equal(t, 2, pump.QueuedCount())

	require.NoError(t, pump.EmitQueuedMessages(3.0))
	assert.Equal(t, []int32{2, 4, 3, 1}, seqs)
	assert.Equal(t, 1, pump.QueuedCount(), "later messages stay queued")
}

func TestEnqueueStoresCopy(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var got int32
	pump.RegisterForMessages(pingType, func(m *ecs.Message) error {
		got = m.Value(seqField).IntValue()
		return nil
	}, ecs.OrderDefault, "collect")

	msg := ping(1)
	pump.EnqueueMessage(msg, 0)
	require.NoError(t, msg.Set(seqField, ecs.NewProperty(int32(2))))

	require.NoError(t, pump.EmitQueuedMessages(0))
	assert.Equal(t, int32(1), got)
}

func TestMessagesQueuedDuringDrainWait(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	var seqs []int32
	pump.RegisterForMessages(pingType, func(m *ecs.Message) error {
		seq := m.Value(seqField).IntValue()
		seqs = append(seqs, seq)
		if seq == 1 {
			pump.EnqueueMessage(ping(2), 0)
		}
		return nil
	}, ecs.OrderDefault, "requeue")

	pump.EnqueueMessage(ping(1), 0)

	require.NoError(t, pump.EmitQueuedMessages(1))
	assert.Equal(t, []int32{1}, seqs)
	assert.Equal(t, 1, pump.QueuedCount())

	require.NoError(t, pump.EmitQueuedMessages(1))
	assert.Equal(t, []int32{1, 2}, seqs)
}

type countingObserver struct {
	emits     int
	listeners int
	failures  int
	depth     int
}

func (o *countingObserver) OnEmit(_ ecs.MessageType, listeners int, err error) {
	o.emits++
	o.listeners += listeners
	if err != nil {
		o.failures++
	}
}

func (o *countingObserver) OnQueue(depth int) { o.depth = depth }

func TestPumpObserver(t *testing.T) {
	pump := ecs.NewMessagePump(nil)
	obs := &countingObserver{}
	pump.SetObserver(obs)

	pump.RegisterForMessages(pingType, func(*ecs.Message) error { return nil }, ecs.OrderDefault, "ok")
	pump.RegisterForMessages(pingType, func(*ecs.Message) error { return errors.New("no") }, ecs.OrderDefault, "fail")

	_ = pump.EmitMessage(ping(1))
	pump.EnqueueMessage(ping(2), 5)
	assert.Equal(t, 1, obs.depth)

	_ = pump.EmitQueuedMessages(5)

	assert.Equal(t, 2, obs.emits)
	assert.Equal(t, 4, obs.listeners)
	assert.Equal(t, 2, obs.failures)
	assert.Equal(t, 0, obs.depth)
}

func TestMessageClone(t *testing.T) {
	msg := ping(7)
	clone := msg.Clone()
	require.NoError(t, msg.Set(seqField, ecs.NewProperty(int32(8))))

	assert.Equal(t, pingType, clone.Type())
	assert.Equal(t, int32(7), clone.Value(seqField).IntValue())
	assert.ErrorIs(t, msg.Set(seqField, ecs.NewProperty("wrong")), ecs.ErrTypeMismatch)
}
