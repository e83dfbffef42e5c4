package retry

import (
	"time"

	"go.uber.org/zap"
)

// Publish is used for broker writes made while a webhook caller waits, so
// the whole budget stays within a few seconds.
func Publish(log *zap.Logger) Policy {
	return Policy{
		Op:       "kafka.publish",
		Attempts: 4,
		Backoff:  Exponential(100*time.Millisecond, 2*time.Second, 0.2),
		Log:      log,
	}
}

// Conflict retries short transactions that lost a serialization race.
// retryable decides which driver errors count as such a loss.
func Conflict(op string, retryable func(error) bool, log *zap.Logger) Policy {
	return Policy{
		Op:        op,
		Attempts:  3,
		Backoff:   Exponential(10*time.Millisecond, 100*time.Millisecond, 0.5),
		Retryable: retryable,
		Log:       log,
	}
}
