package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/broker"
)

// fakeSub replays a script: each entry is either a payload or one of the
// broker sentinel errors.
type fakeSub struct {
	script []scriptStep
	pos    int
	closed int
}

type scriptStep struct {
	data []byte
	err  error
}

func (s *fakeSub) Next(time.Duration) ([]byte, error) {
	if s.pos >= len(s.script) {
		return nil, broker.ErrNoMessage
	}
	st := s.script[s.pos]
	s.pos++
	return st.data, st.err
}

func (s *fakeSub) Close() error {
	s.closed++
	return nil
}

type fakeBroker struct {
	ready          bool
	sub            *fakeSub
	subscribeErr   error
	subscribeCalls int
	channels       []string
}

func (b *fakeBroker) Ready() bool { return b.ready }

func (b *fakeBroker) Subscribe(channel string) (broker.Subscription, error) {
	b.subscribeCalls++
	b.channels = append(b.channels, channel)
	if b.subscribeErr != nil {
		return nil, b.subscribeErr
	}
	return b.sub, nil
}

// recordSink collects frames and can cancel the session or fail after a
// given number of sends.
type recordSink struct {
	frames      []string
	cancelAfter int
	cancel      context.CancelFunc
	failAfter   int
}

func (s *recordSink) Send(frame string) error {
	if s.failAfter > 0 && len(s.frames)+1 >= s.failAfter {
		return errors.New("write: broken pipe")
	}
	s.frames = append(s.frames, frame)
	if s.cancel != nil && len(s.frames) >= s.cancelAfter {
		s.cancel()
	}
	return nil
}

func TestSession_BrokerDisabledEmitsNothing(t *testing.T) {
	b := &fakeBroker{ready: false}
	sink := &recordSink{}
	sess := NewSession(uuid.New(), b, time.Millisecond, zap.NewNop())

	err := sess.Run(context.Background(), sink)

	assert.ErrorIs(t, err, broker.ErrUnavailable)
	assert.Zero(t, b.subscribeCalls, "no subscription without a working broker")
	assert.Empty(t, sink.frames)
}

func TestSession_RelaysMessagesAsDataFrames(t *testing.T) {
	userID := uuid.New()
	sub := &fakeSub{script: []scriptStep{
		{data: []byte(`{"event":"new_comment"}`)},
		{data: []byte(`{"event":"invite"}`)},
	}}
	b := &fakeBroker{ready: true, sub: sub}

	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordSink{cancelAfter: 2, cancel: cancel}
	sess := NewSession(userID, b, time.Millisecond, zap.NewNop())

	err := sess.Run(ctx, sink)
	require.NoError(t, err)

	require.Len(t, sink.frames, 2)
	assert.Equal(t, "data: {\"event\":\"new_comment\"}\n\n", sink.frames[0])
	assert.Equal(t, "data: {\"event\":\"invite\"}\n\n", sink.frames[1])
	assert.Equal(t, []string{ChannelFor(userID)}, b.channels)
	assert.Equal(t, 1, sub.closed, "exactly one unsubscribe")
}

func TestSession_IdlePollEmitsHeartbeatAndContinues(t *testing.T) {
	sub := &fakeSub{script: []scriptStep{
		{err: broker.ErrNoMessage},
		{data: []byte(`{"event":"task_update"}`)},
	}}
	b := &fakeBroker{ready: true, sub: sub}

	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordSink{cancelAfter: 2, cancel: cancel}
	sess := NewSession(uuid.New(), b, time.Millisecond, zap.NewNop())

	err := sess.Run(ctx, sink)
	require.NoError(t, err)

	require.Len(t, sink.frames, 2)
	assert.Equal(t, ":heartbeat\n\n", sink.frames[0], "idle poll produces exactly one heartbeat")
	assert.Equal(t, "data: {\"event\":\"task_update\"}\n\n", sink.frames[1], "session keeps polling after a heartbeat")
	assert.Equal(t, 1, sub.closed)
}

func TestSession_ClientDisconnectStopsWithinOnePoll(t *testing.T) {
	sub := &fakeSub{script: []scriptStep{
		{data: []byte("a")},
		{data: []byte("b")},
	}}
	b := &fakeBroker{ready: true, sub: sub}

	sink := &recordSink{failAfter: 1} // first write fails: client is gone
	sess := NewSession(uuid.New(), b, time.Millisecond, zap.NewNop())

	err := sess.Run(context.Background(), sink)

	assert.NoError(t, err, "disconnect is a normal exit, not an error")
	assert.Empty(t, sink.frames)
	assert.Equal(t, 1, sub.closed, "cleanup runs exactly once")
}

func TestSession_CancellationRunsCleanup(t *testing.T) {
	sub := &fakeSub{}
	b := &fakeBroker{ready: true, sub: sub}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the first poll

	sess := NewSession(uuid.New(), b, time.Millisecond, zap.NewNop())
	err := sess.Run(ctx, &recordSink{})

	assert.NoError(t, err)
	assert.Equal(t, 1, sub.closed)
}

func TestSession_UnrecoverableSubscriptionError(t *testing.T) {
	sub := &fakeSub{script: []scriptStep{
		{err: broker.ErrUnavailable},
	}}
	b := &fakeBroker{ready: true, sub: sub}

	sess := NewSession(uuid.New(), b, time.Millisecond, zap.NewNop())
	err := sess.Run(context.Background(), &recordSink{})

	assert.ErrorIs(t, err, broker.ErrUnavailable)
	assert.Equal(t, 1, sub.closed, "cleanup still runs on the error path")
}

func TestSession_SubscribeFailure(t *testing.T) {
	b := &fakeBroker{ready: true, subscribeErr: errors.New("subject rejected")}

	sess := NewSession(uuid.New(), b, time.Millisecond, zap.NewNop())
	err := sess.Run(context.Background(), &recordSink{})

	assert.Error(t, err)
}
