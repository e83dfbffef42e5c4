package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	mAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credgate_retry_attempts_total",
		Help: "Attempts made inside retry.Do, first try included.",
	}, []string{"op"})
	mGaveUp = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credgate_retry_gave_up_total",
		Help: "Operations that failed after their last allowed attempt.",
	}, []string{"op"})
)

// Backoff returns the pause before attempt n+1, n counted from zero.
type Backoff func(n int) time.Duration

// Exponential doubles base up to ceiling and spreads each pause by
// +/- jitter (a fraction of the pause).
func Exponential(base, ceiling time.Duration, jitter float64) Backoff {
	return func(n int) time.Duration {
		d := float64(base) * math.Pow(2, float64(max(n, 0)))
		if ceiling > 0 && d > float64(ceiling) {
			d = float64(ceiling)
		}
		if jitter > 0 {
			d *= 1 + (rand.Float64()*2-1)*jitter
		}
		return time.Duration(d)
	}
}

type Policy struct {
	Op        string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	Log       *zap.Logger
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx is done. The last error from fn is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	op := p.Op
	if op == "" {
		op = "unnamed"
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return !isContextErr(err) }
	}
	attempts := max(p.Attempts, 1)
	span := trace.SpanFromContext(ctx)

	var err error
	for n := 0; n < attempts; n++ {
		mAttempts.WithLabelValues(op).Inc()
		if err = fn(ctx); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if n == attempts-1 {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(n)
		}
		span.AddEvent("retry", trace.WithAttributes(
			attribute.String("op", op),
			attribute.Int("attempt", n+1),
		))
		log.Warn("retrying", zap.String("op", op), zap.Int("attempt", n+1), zap.Duration("wait", wait), zap.Error(err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	mGaveUp.WithLabelValues(op).Inc()
	log.Error("retries exhausted", zap.String("op", op), zap.Int("attempts", attempts), zap.Error(err))
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
