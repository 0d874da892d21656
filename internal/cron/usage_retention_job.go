package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const usageRetentionDays = 400

type UsageRetentionJobParams struct {
	Logger     *logger.Logger
	Repository usageCleanupRepo
	Retention  int
}

type usageCleanupRepo interface {
	DeleteBefore(ctx context.Context, day time.Time) (int64, error)
}

func NewUsageRetentionJob(params UsageRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("usage repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = usageRetentionDays
	}
	return &usageRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type usageRetentionJob struct {
	logg      *logger.Logger
	repo      usageCleanupRepo
	retention int
	now       func() time.Time
}

func (j *usageRetentionJob) Name() string { return "usage-retention" }

func (j *usageRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	deleted, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("usage retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "usage retention complete")
	return nil
}
