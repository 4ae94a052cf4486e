package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/broker"
	"github.com/akudrin/taskwire/internal/obs/retry"
)

type Config struct {
	URL             string        `mapstructure:"url"`
	Name            string        `mapstructure:"name"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`
}

var (
	mPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "broker_publish_total",
		Help: "Messages published to user channels.",
	})
	mPublishErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "broker_publish_errors_total",
		Help: "Failed publish calls, including calls while degraded.",
	})
)

// Client wraps the shared broker connection. A Client whose connection could
// not be established is degraded: Ready reports false, Publish and Subscribe
// return broker.ErrUnavailable, and everything else keeps working.
type Client struct {
	conn *natsgo.Conn
	log  *zap.Logger
}

var (
	_ broker.Publisher  = (*Client)(nil)
	_ broker.Subscriber = (*Client)(nil)
)

// Connect dials the broker with bounded retries. On exhaustion it logs and
// returns a degraded client instead of failing process startup.
func Connect(ctx context.Context, cfg Config, log *zap.Logger) *Client {
	log = log.With(zap.String("component", "nats.client"), zap.String("url", cfg.URL))

	var conn *natsgo.Conn
	err := retry.Do(ctx, func() error {
		c, err := natsgo.Connect(cfg.URL,
			natsgo.Name(cfg.Name),
			natsgo.Timeout(5*time.Second),
			natsgo.MaxReconnects(-1),
			natsgo.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, retry.BrokerConnectPolicy(log, cfg.ConnectAttempts, cfg.ConnectBackoff))
	if err != nil {
		log.Error("broker unreachable, real-time delivery disabled", zap.Error(err))
		return &Client{log: log}
	}

	log.Info("connected to broker")
	return &Client{conn: conn, log: log}
}

func (c *Client) Ready() bool {
	return c.conn != nil && c.conn.IsConnected()
}

func (c *Client) Publish(_ context.Context, channel string, payload []byte) error {
	if c.conn == nil {
		mPublishErr.Inc()
		return broker.ErrUnavailable
	}
	if err := c.conn.Publish(channel, payload); err != nil {
		mPublishErr.Inc()
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	mPublished.Inc()
	c.log.Debug("message published", zap.String("channel", channel), zap.Int("bytes", len(payload)))
	return nil
}

func (c *Client) Subscribe(channel string) (broker.Subscription, error) {
	if c.conn == nil {
		return nil, broker.ErrUnavailable
	}
	sub, err := c.conn.SubscribeSync(channel)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	return &subscription{sub: sub}, nil
}

// Close drains in-flight messages and releases the connection. Safe to call
// on a degraded client and safe to call twice.
func (c *Client) Close() {
	if c.conn == nil || c.conn.IsClosed() {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
	c.log.Info("broker connection closed")
}

type subscription struct{ sub *natsgo.Subscription }

func (s *subscription) Next(timeout time.Duration) ([]byte, error) {
	msg, err := s.sub.NextMsg(timeout)
	if err != nil {
		switch {
		case errors.Is(err, natsgo.ErrTimeout):
			return nil, broker.ErrNoMessage
		case errors.Is(err, natsgo.ErrBadSubscription), errors.Is(err, natsgo.ErrConnectionClosed):
			return nil, broker.ErrUnavailable
		}
		return nil, fmt.Errorf("next message: %w", err)
	}
	return msg.Data, nil
}

func (s *subscription) Close() error {
	if !s.sub.IsValid() {
		return nil
	}
	return s.sub.Unsubscribe()
}
