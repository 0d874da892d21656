package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.Subscription) error
	ScheduleCancel(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus, at time.Time) (bool, error)
	FindCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	LockCurrent(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error)
	ListTrialsDue(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error)
	ListPeriodsEnded(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.SubscriptionStatus, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// ScheduleCancel flags the record for cancellation at period end while it is
// still in status. It reports false when the record moved on in between.
func (r *repository) ScheduleCancel(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, status).
		Updates(map[string]any{
			"cancel_at_period_end": true,
			"canceled_at":          at,
			"updated_at":           at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindCurrent returns the newest current record, or nil when the user has none.
func (r *repository) FindCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, enums.CurrentSubscriptionStatuses).
		Order("created_at DESC").
		Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// LockCurrent selects the user's current records FOR UPDATE. Call it inside a transaction.
func (r *repository) LockCurrent(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status IN ?", userID, enums.CurrentSubscriptionStatuses).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListTrialsDue(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("status = ? AND trial_end IS NOT NULL AND trial_end <= ?", enums.SubscriptionStatusTrialing, now).
		Order("trial_end ASC").
		Limit(normalizeLimit(limit)).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListPeriodsEnded(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND cancel_at_period_end = ? AND current_period_end IS NOT NULL AND current_period_end <= ?",
			[]enums.SubscriptionStatus{enums.SubscriptionStatusActive, enums.SubscriptionStatusPastDue}, true, now).
		Order("current_period_end ASC").
		Limit(normalizeLimit(limit)).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// TransitionStatus moves a record from one status to another only if it is
// still in the expected status. It reports whether this call won the transition.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.SubscriptionStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	if to == enums.SubscriptionStatusCanceled {
		updates["canceled_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > maxSweepBatch {
		return maxSweepBatch
	}
	return limit
}
