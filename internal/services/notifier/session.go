package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/broker"
)

var (
	mSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sse_sessions_active",
		Help: "Open stream sessions.",
	})
	mEventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sse_events_delivered_total",
		Help: "Broker messages relayed to stream clients.",
	})
	mHeartbeats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sse_heartbeats_total",
		Help: "Heartbeat comments emitted to stream clients.",
	})
)

// EventSink receives formatted stream frames. The HTTP handler adapts the
// response writer to this; tests substitute a buffer.
type EventSink interface {
	Send(frame string) error
}

// Session is the per-connection state machine: it subscribes to one user's
// channel, relays broker messages as stream events and emits a heartbeat
// whenever a full poll interval passes without one.
type Session struct {
	userID    uuid.UUID
	sub       broker.Subscriber
	heartbeat time.Duration
	log       *zap.Logger
}

func NewSession(userID uuid.UUID, sub broker.Subscriber, heartbeat time.Duration, log *zap.Logger) *Session {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &Session{
		userID:    userID,
		sub:       sub,
		heartbeat: heartbeat,
		log: log.With(
			zap.String("component", "notifier.session"),
			zap.String("user_id", userID.String()),
		),
	}
}

// Run drives the session until the client disconnects, the context is
// cancelled, or the broker becomes unusable. The subscription is released
// exactly once on every exit path. Cancellation is informational, not an
// error; it is observed within one poll cycle because every poll is bounded
// by the heartbeat interval.
func (s *Session) Run(ctx context.Context, sink EventSink) error {
	if !s.sub.Ready() {
		s.log.Error("broker unavailable, ending stream without events")
		return broker.ErrUnavailable
	}

	channel := ChannelFor(s.userID)
	sub, err := s.sub.Subscribe(channel)
	if err != nil {
		s.log.Error("subscribe failed", zap.String("channel", channel), zap.Error(err))
		return err
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil {
			s.log.Warn("unsubscribe", zap.String("channel", channel), zap.Error(cerr))
		}
		s.log.Info("stream closed", zap.String("channel", channel))
	}()

	mSessionsActive.Inc()
	defer mSessionsActive.Dec()
	s.log.Info("client subscribed", zap.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stream cancelled")
			return nil
		default:
		}

		data, err := sub.Next(s.heartbeat)
		switch {
		case err == nil:
			if werr := sink.Send("data: " + string(data) + "\n\n"); werr != nil {
				s.log.Info("client disconnected", zap.Error(werr))
				return nil
			}
			mEventsDelivered.Inc()
		case errors.Is(err, broker.ErrNoMessage):
			if werr := sink.Send(":heartbeat\n\n"); werr != nil {
				s.log.Info("client disconnected", zap.Error(werr))
				return nil
			}
			mHeartbeats.Inc()
		default:
			s.log.Error("subscription read", zap.Error(err))
			return err
		}
	}
}
