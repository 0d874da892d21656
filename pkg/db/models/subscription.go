package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// CurrentSubscriptionIndex is the partial unique index allowing one current subscription per user.
const CurrentSubscriptionIndex = "ux_subscriptions_current_user"

// Subscription is one plan record for a user; at most one is current at a time.
type Subscription struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	Tier               enums.PlanTier           `gorm:"column:tier;type:text;not null"`
	Status             enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	TrialStart         *time.Time               `gorm:"column:trial_start"`
	TrialEnd           *time.Time               `gorm:"column:trial_end"`
	CurrentPeriodStart *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd   *time.Time               `gorm:"column:current_period_end"`
	CancelAtPeriodEnd  bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CanceledAt         *time.Time               `gorm:"column:canceled_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
