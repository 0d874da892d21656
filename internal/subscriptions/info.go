package subscriptions

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/internal/plans"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// Info is a read-only snapshot of a user's current plan.
type Info struct {
	SubscriptionID     *uuid.UUID               `json:"subscription_id,omitempty"`
	Tier               enums.PlanTier           `json:"tier"`
	PlanName           string                   `json:"plan_name"`
	Status             enums.SubscriptionStatus `json:"status,omitempty"`
	TrialStart         *time.Time               `json:"trial_start,omitempty"`
	TrialEnd           *time.Time               `json:"trial_end,omitempty"`
	TrialDaysLeft      int                      `json:"trial_days_left"`
	TrialExpired       bool                     `json:"trial_expired"`
	CurrentPeriodStart *time.Time               `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time               `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	Limits             plans.Limits             `json:"limits"`
}

// IsTrial reports whether the snapshot is on the TRIAL tier.
func (i *Info) IsTrial() bool {
	return i != nil && i.Tier == enums.PlanTierTrial
}

// TrialDaysLeft rounds the time remaining until trialEnd up to whole days,
// never below zero.
func TrialDaysLeft(trialEnd *time.Time, now time.Time) int {
	if trialEnd == nil {
		return 0
	}
	remaining := trialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

func buildInfo(sub *models.Subscription, now time.Time) *Info {
	if sub == nil {
		return infoForTier(enums.PlanTierFree)
	}
	info := infoForTier(sub.Tier)
	id := sub.ID
	info.SubscriptionID = &id
	info.Status = sub.Status
	info.TrialStart = sub.TrialStart
	info.TrialEnd = sub.TrialEnd
	info.CurrentPeriodStart = sub.CurrentPeriodStart
	info.CurrentPeriodEnd = sub.CurrentPeriodEnd
	info.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if sub.Tier == enums.PlanTierTrial {
		info.TrialDaysLeft = TrialDaysLeft(sub.TrialEnd, now)
		info.TrialExpired = info.TrialDaysLeft == 0
	}
	return info
}

func infoForTier(tier enums.PlanTier) *Info {
	info := &Info{Tier: tier, Limits: plans.For(tier)}
	if plan, ok := plans.Lookup(tier); ok {
		info.PlanName = plan.Name
	} else {
		info.Tier = enums.PlanTierFree
		info.PlanName = "Free"
	}
	return info
}
