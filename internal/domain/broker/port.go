package broker

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable means the broker connection was never established or is
	// gone. Callers treat it as a degraded mode, not a fatal condition.
	ErrUnavailable = errors.New("broker unavailable")
	// ErrNoMessage is returned by Subscription.Next when the bounded wait
	// elapsed without a message.
	ErrNoMessage = errors.New("no message")
)

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type Subscriber interface {
	Ready() bool
	Subscribe(channel string) (Subscription, error)
}

// Subscription is a single consumer of one channel. Next blocks for at most
// the given timeout; Close is idempotent.
type Subscription interface {
	Next(timeout time.Duration) ([]byte, error)
	Close() error
}
