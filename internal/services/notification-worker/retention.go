package worker

import (
	"context"
	"time"

	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type RetentionConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type Purger interface {
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

var (
	mPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retention_notifications_purged_total", Help: "Expired notifications deleted.",
	})
	mSweepErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retention_errors_total", Help: "Failed retention passes.",
	})
	mSweepDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "retention_sweep_duration_seconds", Help: "Retention pass duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// Retention deletes notifications past their expiry on a ticker.
type Retention struct {
	log    *zap.Logger
	repo   Purger
	clock  notification.Clock
	cfg    RetentionConfig
	policy retry.Policy
}

func NewRetention(log *zap.Logger, repo Purger, clock notification.Clock, cfg RetentionConfig) *Retention {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if clock == nil {
		clock = notification.SystemClock{}
	}
	log = obs.Component(log, "worker.retention")
	return &Retention{log: log, repo: repo, clock: clock, cfg: cfg, policy: retry.SweepPolicy(log)}
}

func (r *Retention) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
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

func (r *Retention) tick(ctx context.Context) {
	start := time.Now()
	n, err := r.Sweep(ctx)
	mSweepDur.Observe(time.Since(start).Seconds())
	if err != nil {
		mSweepErr.Inc()
		r.log.Warn("retention pass failed", zap.Int64("deleted", n), zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Info("retention pass", zap.Int64("deleted", n))
	}
}

// Sweep deletes expired rows in batches until a batch comes back short.
func (r *Retention) Sweep(ctx context.Context) (int64, error) {
	now := r.clock.Now()
	var total int64
	for {
		var n int64
		err := retry.Do(ctx, func() error {
			var err error
			n, err = r.repo.DeleteExpired(ctx, now, r.cfg.BatchSize)
			return err
		}, r.policy)
		if err != nil {
			return total, err
		}
		total += n
		mPurged.Add(float64(n))
		if n < int64(r.cfg.BatchSize) {
			return total, nil
		}
	}
}
