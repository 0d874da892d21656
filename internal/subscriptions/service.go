package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/pkg/db"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const maxSweepBatch = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the subscription lifecycle surface.
type Service interface {
	GetInfo(ctx context.Context, userID uuid.UUID) (*Info, error)
	StartTrial(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Subscription, error)
	Upgrade(ctx context.Context, userID uuid.UUID, tier enums.PlanTier) (*models.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	ProcessExpiredTrials(ctx context.Context) (int, error)
	ProcessEndedPeriods(ctx context.Context) (int, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	TrialDuration     time.Duration
	Logger            *logger.Logger
	Clock             func() time.Time
}

type service struct {
	repo     Repository
	txRunner txRunner
	trial    time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.TrialDuration <= 0 {
		return nil, fmt.Errorf("trial duration must be positive")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		trial:    params.TrialDuration,
		logg:     params.Logger,
		now:      func() time.Time { return clock().UTC() },
	}, nil
}

// GetInfo reports the current plan. It never writes: a trial past its end is
// reported as expired and left for the sweep.
func (s *service) GetInfo(ctx context.Context, userID uuid.UUID) (*Info, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	sub, err := s.repo.FindCurrent(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return buildInfo(sub, s.now()), nil
}

// StartTrial inserts the TRIAL record. When tx is non-nil the insert joins it.
func (s *service) StartTrial(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	now := s.now()
	end := now.Add(s.trial)
	sub := &models.Subscription{
		UserID:     userID,
		Tier:       enums.PlanTierTrial,
		Status:     enums.SubscriptionStatusTrialing,
		TrialStart: &now,
		TrialEnd:   &end,
	}
	if err := s.repo.WithTx(tx).Create(ctx, sub); err != nil {
		return nil, mapWriteError(err, "start trial")
	}
	return sub, nil
}

// Upgrade replaces every current record with an ACTIVE record on tier. The
// current rows are locked for the duration of the swap; a concurrent upgrade
// that slips past the lock fails on the current-subscription index.
func (s *service) Upgrade(ctx context.Context, userID uuid.UUID, tier enums.PlanTier) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !tier.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tier must be one of PRO, BUSINESS or ENTERPRISE").
			WithDetails(map[string]any{"tier": tier})
	}

	var created *models.Subscription
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.LockCurrent(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock current subscriptions")
		}

		now := s.now()
		for i := range current {
			if _, err := txRepo.TransitionStatus(ctx, current[i].ID, current[i].Status, enums.SubscriptionStatusCanceled, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel current subscription")
			}
		}

		periodEnd := now.AddDate(0, 1, 0)
		sub := &models.Subscription{
			UserID:             userID,
			Tier:               tier,
			Status:             enums.SubscriptionStatusActive,
			CurrentPeriodStart: &now,
			CurrentPeriodEnd:   &periodEnd,
		}
		if err := txRepo.Create(ctx, sub); err != nil {
			return mapWriteError(err, "create subscription")
		}
		created = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.info(ctx, userID, "subscription.upgraded", map[string]any{"tier": tier})
	return created, nil
}

// Cancel schedules the current paid record to end with its billing period.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	sub, err := s.repo.FindCurrent(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no current subscription")
	}
	if !sub.Tier.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only paid plans can be canceled").
			WithDetails(map[string]any{"tier": sub.Tier})
	}
	if sub.CancelAtPeriodEnd {
		return sub, nil
	}
	now := s.now()
	ok, err := s.repo.ScheduleCancel(ctx, sub.ID, sub.Status, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscription changed while canceling; retry")
	}
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	s.info(ctx, userID, "subscription.cancel_scheduled", nil)
	return sub, nil
}

// ProcessExpiredTrials expires every trial past its end and falls the user
// back to FREE. Each record is handled in its own transaction; the status CAS
// makes concurrent sweeps create at most one fallback per trial.
func (s *service) ProcessExpiredTrials(ctx context.Context) (int, error) {
	due, err := s.repo.ListTrialsDue(ctx, s.now(), maxSweepBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired trials")
	}
	return s.sweep(ctx, due, enums.SubscriptionStatusExpired, "subscription.trial_expired")
}

// ProcessEndedPeriods closes paid records whose cancellation took effect.
func (s *service) ProcessEndedPeriods(ctx context.Context) (int, error) {
	ended, err := s.repo.ListPeriodsEnded(ctx, s.now(), maxSweepBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ended periods")
	}
	return s.sweep(ctx, ended, enums.SubscriptionStatusCanceled, "subscription.period_ended")
}

func (s *service) sweep(ctx context.Context, subs []models.Subscription, to enums.SubscriptionStatus, event string) (int, error) {
	var (
		processed int
		errs      error
	)
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return processed, multierr.Append(errs, err)
		}
		sub := subs[i]
		won, err := s.fallBackToFree(ctx, sub, to)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		if won {
			processed++
			s.info(ctx, sub.UserID, event, map[string]any{"subscription_id": sub.ID.String()})
		}
	}
	return processed, errs
}

// fallBackToFree moves sub to status and inserts the FREE record, only when
// this call performed the transition.
func (s *service) fallBackToFree(ctx context.Context, sub models.Subscription, to enums.SubscriptionStatus) (bool, error) {
	var won bool
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		now := s.now()
		ok, err := txRepo.TransitionStatus(ctx, sub.ID, sub.Status, to, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		free := &models.Subscription{
			UserID:             sub.UserID,
			Tier:               enums.PlanTierFree,
			Status:             enums.SubscriptionStatusActive,
			CurrentPeriodStart: &now,
		}
		if err := txRepo.Create(ctx, free); err != nil {
			return mapWriteError(err, "create free fallback")
		}
		won = true
		return nil
	})
	return won, err
}

func (s *service) info(ctx context.Context, userID uuid.UUID, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	if len(fields) > 0 {
		ctx = s.logg.WithFields(ctx, fields)
	}
	s.logg.Info(ctx, msg)
}

func mapWriteError(err error, action string) error {
	// the current-subscription index is the only unique key a subscription
	// insert can hit; SQLite does not name it in the error
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user already has a current subscription")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
