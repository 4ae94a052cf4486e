package retry

import (
	"time"

	"go.uber.org/zap"
)

// BrokerConnectPolicy bounds the startup dial to the pub/sub broker. The
// caller degrades to a disabled client when the policy is exhausted, so
// exhaustion here is expected and logged at warn level per attempt only.
func BrokerConnectPolicy(log *zap.Logger, attempts int, base time.Duration) Policy {
	if attempts <= 0 {
		attempts = 5
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return Policy{
		Name:     "broker-connect",
		Attempts: attempts,
		Backoff:  ExpoJitter{Base: base, Max: 10 * time.Second, Jitter: 0.2},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("broker connect retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
