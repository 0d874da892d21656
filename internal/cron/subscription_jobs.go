package cron

import (
	"context"
	"fmt"

	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

type subscriptionSweeper interface {
	ProcessExpiredTrials(ctx context.Context) (int, error)
	ProcessEndedPeriods(ctx context.Context) (int, error)
}

// SubscriptionJobParams configures the subscription lifecycle jobs.
type SubscriptionJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionSweeper
}

// NewTrialExpiryJob expires trials whose end has passed and falls the user back to FREE.
func NewTrialExpiryJob(params SubscriptionJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &sweepJob{
		name:  "trial-expiry",
		logg:  params.Logger,
		sweep: params.Subscriptions.ProcessExpiredTrials,
	}, nil
}

// NewPeriodEndJob closes subscriptions whose scheduled cancellation took effect.
func NewPeriodEndJob(params SubscriptionJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &sweepJob{
		name:  "subscription-period-end",
		logg:  params.Logger,
		sweep: params.Subscriptions.ProcessEndedPeriods,
	}, nil
}

func (p SubscriptionJobParams) validate() error {
	if p.Logger == nil {
		return fmt.Errorf("logger required")
	}
	if p.Subscriptions == nil {
		return fmt.Errorf("subscription service required")
	}
	return nil
}

type sweepJob struct {
	name  string
	logg  *logger.Logger
	sweep func(ctx context.Context) (int, error)
}

func (j *sweepJob) Name() string { return j.name }

// Run reports the records it did transition even when some of them failed.
func (j *sweepJob) Run(ctx context.Context) error {
	processed, err := j.sweep(ctx)
	logCtx := j.logg.WithField(ctx, "processed", processed)
	if err != nil {
		j.logg.Warn(logCtx, "sweep finished with errors")
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(logCtx, "sweep complete")
	return nil
}
