package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/receiving/internal/backend"
	jobmetrics "github.com/odyssey-erp/receiving/internal/jobs"
	"github.com/odyssey-erp/receiving/internal/pricing"
	"github.com/odyssey-erp/receiving/internal/shared"
)

const rulesRefreshLockTTL = time.Minute

// RulesRefresher reloads round-off rules and reports how many were loaded.
type RulesRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RulesRefreshJob rebuilds the cached round-off rules.
type RulesRefreshJob struct {
	Pricing RulesRefresher
	Locker  *redislock.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRulesRefreshJob wires dependencies for the refresh handler. locker may
// be nil, in which case runs are not serialised across workers.
func NewRulesRefreshJob(pricingSvc RulesRefresher, locker *redislock.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *RulesRefreshJob {
	return &RulesRefreshJob{Pricing: pricingSvc, Locker: locker, Logger: logger, Metrics: metrics}
}

// Handle processes TaskPricingRulesRefresh tasks.
func (j *RulesRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pricing == nil {
		return errors.New("rules refresh: handler not configured")
	}
	var payload RulesRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.String("reason", payload.Reason))
	if j.Locker != nil {
		lock, err := j.Locker.Obtain(ctx, shared.RulesRefreshLockKey, rulesRefreshLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Info("rules refresh already running, skipping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("rules refresh: lock: %w", err)
		}
		defer func() {
			_ = lock.Release(context.WithoutCancel(ctx))
		}()
	}

	tracker := j.Metrics.Track(TaskPricingRulesRefresh)
	count, err := j.Pricing.Refresh(ctx)
	if err = tracker.End(err); err != nil {
		logger.Error("refresh round-off rules", slog.Any("error", err))
		if permanent(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.Metrics.SetRoundOffRules(count)
	logger.Info("refreshed round-off rules", slog.Int("rules", count))
	return nil
}

// permanent reports failures a retry cannot fix: rejected requests and bad
// rule data.
func permanent(err error) bool {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		return true
	}
	return errors.Is(err, pricing.ErrInvalidRule)
}

func (j *RulesRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
