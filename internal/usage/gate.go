// Package usage enforces plan quotas and records usage counters.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/internal/plans"
	"github.com/qrgenpro/qrgen-backend/internal/subscriptions"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/metrics"
)

const reasonTrialExpired = "trial expired, upgrade to continue"

// SubscriptionReader is the read side of the subscription service.
type SubscriptionReader interface {
	GetInfo(ctx context.Context, userID uuid.UUID) (*subscriptions.Info, error)
}

// Decision is the outcome of a quota check. A denial is a normal result, not an error.
type Decision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	UpgradeRequired bool   `json:"upgrade_required,omitempty"`
	Usage           int64  `json:"usage"`
	Limit           int    `json:"limit"`
}

// Err converts a denial into a typed API error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	code := pkgerrors.CodeForbidden
	if d.UpgradeRequired {
		code = pkgerrors.CodeUpgrade
	}
	return pkgerrors.New(code, d.Reason).WithDetails(map[string]any{
		"reason":           d.Reason,
		"upgrade_required": d.UpgradeRequired,
		"usage":            d.Usage,
		"limit":            d.Limit,
	})
}

// ActionUsage is one line of a usage summary. Remaining is -1 when unlimited.
type ActionUsage struct {
	Action    enums.UsageAction `json:"action"`
	Used      int64             `json:"used"`
	Limit     int               `json:"limit"`
	Remaining int64             `json:"remaining"`
}

// Summary reports the current month's usage against the plan.
type Summary struct {
	Tier        enums.PlanTier `json:"tier"`
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Actions     []ActionUsage  `json:"actions"`
}

// Gate decides whether a user may perform an action under their plan.
type Gate interface {
	CanPerform(ctx context.Context, userID uuid.UUID, action enums.UsageAction) (Decision, error)
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
}

// GateParams groups dependencies for the usage gate.
type GateParams struct {
	Subscriptions SubscriptionReader
	Repo          Repository
	Metrics       *metrics.UsageMetrics
	Clock         func() time.Time
}

type gate struct {
	subs    SubscriptionReader
	repo    Repository
	metrics *metrics.UsageMetrics
	now     func() time.Time
}

// NewGate builds a usage gate.
func NewGate(params GateParams) (Gate, error) {
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription reader required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("usage repo required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &gate{subs: params.Subscriptions, repo: params.Repo, metrics: params.Metrics, now: clock}, nil
}

// CanPerform resolves the plan, then checks the action's quota. It only reads.
func (g *gate) CanPerform(ctx context.Context, userID uuid.UUID, action enums.UsageAction) (Decision, error) {
	if !action.IsValid() {
		return Decision{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown usage action %q", action))
	}
	info, err := g.subs.GetInfo(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	decision, err := g.decide(ctx, userID, action, info)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		g.metrics.IncDenied(string(action), string(info.Tier))
	}
	return decision, nil
}

func (g *gate) decide(ctx context.Context, userID uuid.UUID, action enums.UsageAction, info *subscriptions.Info) (Decision, error) {
	if info.IsTrial() && info.TrialDaysLeft == 0 {
		return deny(reasonTrialExpired, 0, 0), nil
	}

	limits := info.Limits
	quota := limits.Quota(action)
	if action == enums.UsageActionLogoUpload && !limits.LogoUploads {
		return deny(fmt.Sprintf("logo uploads are not available on the %s plan", info.Tier), 0, 0), nil
	}
	if plans.IsUnlimited(quota) {
		return Decision{Allowed: true, Limit: quota}, nil
	}
	if quota == 0 {
		return deny(fmt.Sprintf("%s is not available on the %s plan", action, info.Tier), 0, 0), nil
	}

	used, err := g.used(ctx, userID, action)
	if err != nil {
		return Decision{}, err
	}
	if used >= int64(quota) {
		return deny(fmt.Sprintf("monthly %s limit reached (%d/%d)", action, used, quota), used, quota), nil
	}
	return Decision{Allowed: true, Usage: used, Limit: quota}, nil
}

// used returns the month-to-date counter, or the live count for dynamic codes.
func (g *gate) used(ctx context.Context, userID uuid.UUID, action enums.UsageAction) (int64, error) {
	if action == enums.UsageActionDynamicQR {
		n, err := g.repo.CountActiveDynamic(ctx, userID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count dynamic codes")
		}
		return n, nil
	}
	from, to := MonthWindow(g.now())
	n, err := g.repo.Total(ctx, userID, action, from, to)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage")
	}
	return n, nil
}

func (g *gate) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	info, err := g.subs.GetInfo(ctx, userID)
	if err != nil {
		return nil, err
	}
	from, to := MonthWindow(g.now())
	totals, err := g.repo.Totals(ctx, userID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage")
	}
	dynamic, err := g.repo.CountActiveDynamic(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count dynamic codes")
	}
	totals[enums.UsageActionDynamicQR] = dynamic

	summary := &Summary{Tier: info.Tier, PeriodStart: from, PeriodEnd: to}
	for _, action := range enums.UsageActions() {
		quota := info.Limits.Quota(action)
		used := totals[action]
		remaining := int64(plans.Unlimited)
		if !plans.IsUnlimited(quota) {
			remaining = max(int64(quota)-used, 0)
		}
		summary.Actions = append(summary.Actions, ActionUsage{
			Action:    action,
			Used:      used,
			Limit:     quota,
			Remaining: remaining,
		})
	}
	return summary, nil
}

func deny(reason string, used int64, quota int) Decision {
	return Decision{Allowed: false, Reason: reason, UpgradeRequired: true, Usage: used, Limit: quota}
}
