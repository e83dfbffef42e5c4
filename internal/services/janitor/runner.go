package janitor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

var (
	mSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "janitor_refresh_records_swept_total", Help: "Expired refresh records removed",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "janitor_errors_total", Help: "Failed sweep passes",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "janitor_sweep_duration_seconds", Help: "Sweep pass duration",
		Buckets: prometheus.DefBuckets,
	})
)

// Runner periodically removes expired refresh records of every subject.
// Login already sweeps the caller's own records; this bounds the store for
// subjects that never come back.
type Runner struct {
	log      *zap.Logger
	sweeper  auth.ExpiredSweeper
	interval time.Duration
	now      func() time.Time
}

func New(log *zap.Logger, sweeper auth.ExpiredSweeper, interval time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		log:      log.With(zap.String("component", "janitor")),
		sweeper:  sweeper,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Runner) tick(ctx context.Context) {
	ctx, span := otel.Tracer("janitor").Start(ctx, "janitor.sweep")
	defer span.End()

	start := time.Now()
	n, err := r.sweeper.SweepAllExpired(ctx, r.now())
	mLoopDur.Observe(time.Since(start).Seconds())
	if err != nil {
		mErr.Inc()
		span.RecordError(err)
		r.log.Warn("sweep error", zap.Error(err))
		return
	}
	span.SetAttributes(attribute.Int64("records.swept", n))
	if n > 0 {
		mSwept.Add(float64(n))
		r.log.Debug("swept expired refresh records", zap.Int64("count", n))
	}
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
