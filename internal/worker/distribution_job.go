package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/loyalty-backend/internal/benefits"
	"github.com/angelmondragon/loyalty-backend/internal/users"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
	"github.com/angelmondragon/loyalty-backend/pkg/metrics"
)

const (
	defaultUserBatchSize = 200

	// Run counters are keyed by period, so they only need to outlive the
	// period they count plus a little slack for late replays.
	runCounterTTL = 62 * 24 * time.Hour
)

// runCounter tracks completed sweeps per period in the coordination store.
type runCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// DistributionJob grants the current period's tier benefits to every active
// member. Replays are safe: the benefits service skips grants that already
// exist.
type DistributionJob struct {
	users     users.Repository
	benefits  benefits.Service
	logg      *logger.Logger
	metrics   *metrics.JobMetrics
	counter   runCounter
	batchSize int
	now       func() time.Time
}

// DistributionJobParams configure the monthly distribution job.
type DistributionJobParams struct {
	Users     users.Repository
	Benefits  benefits.Service
	Logger    *logger.Logger
	Metrics   *metrics.JobMetrics
	Counter   runCounter
	BatchSize int
}

// NewDistributionJob builds the monthly benefit distribution job.
func NewDistributionJob(params DistributionJobParams) (*DistributionJob, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Benefits == nil {
		return nil, fmt.Errorf("benefits service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultUserBatchSize
	}
	return &DistributionJob{
		users:     params.Users,
		benefits:  params.Benefits,
		logg:      params.Logger,
		metrics:   params.Metrics,
		counter:   params.Counter,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *DistributionJob) Name() string {
	return "monthly-benefit-distribution"
}

// Run walks all active members in batches and distributes the current
// period's benefits. A failure for one member is logged and collected but
// does not stop the sweep; the job returns every per-member error combined
// so a partial failure still surfaces each cause.
func (j *DistributionJob) Run(ctx context.Context) error {
	period := benefits.PeriodOf(j.now())
	ctx = j.logg.WithField(ctx, "period", period)

	var (
		offset  int
		granted int
		skipped int
		errs    []error
	)
	for {
		batch, err := j.users.ListActive(ctx, offset, j.batchSize)
		if err != nil {
			return fmt.Errorf("list active users at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, user := range batch {
			grant, err := j.benefits.DistributeMonthly(ctx, user.ID, period)
			if err != nil {
				errs = append(errs, fmt.Errorf("distribute to user %s: %w", user.ID, err))
				j.logg.Error(j.logg.WithUserID(ctx, user.ID.String()), "benefit distribution failed for user", err)
				continue
			}
			granted += len(grant.Distributions)
			skipped += grant.Skipped
		}

		if len(batch) < j.batchSize {
			break
		}
		offset += j.batchSize
	}

	j.metrics.AddDistributed(j.Name(), granted)
	j.metrics.AddSkipped(j.Name(), skipped)
	j.recordRun(ctx, period)

	summary := j.logg.WithFields(ctx, map[string]any{
		"granted":  granted,
		"skipped":  skipped,
		"failures": len(errs),
	})
	j.logg.Info(summary, "distribution sweep finished")

	return multierr.Combine(errs...)
}

// recordRun bumps the per-period sweep counter. Store failures never fail
// the sweep.
func (j *DistributionJob) recordRun(ctx context.Context, period string) {
	if j.counter == nil {
		return
	}
	key := j.counter.CounterKey("distribution-runs:" + period)
	if _, err := j.counter.IncrWithTTL(ctx, key, runCounterTTL); err != nil {
		j.logg.Warn(j.logg.WithField(ctx, "counter_key", key), "record distribution run count failed")
	}
}
