package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// OutboxPolicy retries a relay publish a handful of times before the row is
// left for the next tick.
func OutboxPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "outbox",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("outbox retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox retries exhausted", zap.Error(err))
			}
		},
	}
}

// FanoutPolicy retries a failed fan-out task. Errors for which permanent
// reports true are returned immediately.
func FanoutPolicy(log *zap.Logger, permanent func(error) bool) Policy {
	return Policy{
		Name:     "fanout",
		Attempts: 4,
		Backoff:  ExpoJitter{Base: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return false
			}
			return permanent == nil || !permanent(err)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("fanout retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("fanout gave up", zap.Error(err))
			}
		},
	}
}

// SweepPolicy backs off between failed retention passes.
func SweepPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "retention",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: time.Second, Max: 10 * time.Second, Jitter: 0.1},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("retention retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
