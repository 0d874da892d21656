package usage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/internal/plans"
	"github.com/qrgenpro/qrgen-backend/internal/subscriptions"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
)

type stubSubscriptions struct {
	info *subscriptions.Info
	err  error
}

func (s *stubSubscriptions) GetInfo(context.Context, uuid.UUID) (*subscriptions.Info, error) {
	return s.info, s.err
}

type stubRepo struct {
	totals      map[enums.UsageAction]int64
	dynamic     int64
	totalCalls  int
	increments  []enums.UsageAction
	incrementAt []time.Time
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) Increment(_ context.Context, _ uuid.UUID, action enums.UsageAction, day time.Time, _ int64) error {
	s.increments = append(s.increments, action)
	s.incrementAt = append(s.incrementAt, day)
	return nil
}

func (s *stubRepo) Total(_ context.Context, _ uuid.UUID, action enums.UsageAction, _, _ time.Time) (int64, error) {
	s.totalCalls++
	return s.totals[action], nil
}

func (s *stubRepo) Totals(context.Context, uuid.UUID, time.Time, time.Time) (map[enums.UsageAction]int64, error) {
	out := make(map[enums.UsageAction]int64, len(s.totals))
	for k, v := range s.totals {
		out[k] = v
	}
	return out, nil
}

func (s *stubRepo) CountActiveDynamic(context.Context, uuid.UUID) (int64, error) {
	return s.dynamic, nil
}

func (s *stubRepo) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func infoFor(tier enums.PlanTier) *subscriptions.Info {
	return &subscriptions.Info{Tier: tier, Limits: plans.For(tier)}
}

func newStubGate(t *testing.T, info *subscriptions.Info, repo *stubRepo) Gate {
	t.Helper()
	g, err := NewGate(GateParams{
		Subscriptions: &stubSubscriptions{info: info},
		Repo:          repo,
		Clock:         func() time.Time { return time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return g
}

func TestEnterpriseIsUnlimited(t *testing.T) {
	repo := &stubRepo{totals: map[enums.UsageAction]int64{
		enums.UsageActionQRGenerated: 10_000_000,
		enums.UsageActionAPICall:     10_000_000,
	}, dynamic: 10_000_000}
	g := newStubGate(t, infoFor(enums.PlanTierEnterprise), repo)

	for _, action := range enums.UsageActions() {
		decision, err := g.CanPerform(context.Background(), uuid.New(), action)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "action %s", action)
	}
	assert.Zero(t, repo.totalCalls, "unlimited quotas skip the counter read")
}

func TestFreeLogoUploadDenied(t *testing.T) {
	g := newStubGate(t, infoFor(enums.PlanTierFree), &stubRepo{})

	decision, err := g.CanPerform(context.Background(), uuid.New(), enums.UsageActionLogoUpload)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.UpgradeRequired)
}

func TestZeroQuotaDeniesWithoutCounterRead(t *testing.T) {
	repo := &stubRepo{}
	g := newStubGate(t, infoFor(enums.PlanTierFree), repo)

	for _, action := range []enums.UsageAction{enums.UsageActionAPICall, enums.UsageActionDynamicQR} {
		decision, err := g.CanPerform(context.Background(), uuid.New(), action)
		require.NoError(t, err)
		assert.False(t, decision.Allowed, "action %s", action)
		assert.True(t, decision.UpgradeRequired)
	}
	assert.Zero(t, repo.totalCalls)
}

func TestExpiredTrialDeniesEveryAction(t *testing.T) {
	info := infoFor(enums.PlanTierTrial)
	info.TrialDaysLeft = 0
	info.TrialExpired = true
	g := newStubGate(t, info, &stubRepo{})

	for _, action := range enums.UsageActions() {
		decision, err := g.CanPerform(context.Background(), uuid.New(), action)
		require.NoError(t, err)
		assert.False(t, decision.Allowed, "action %s", action)
		assert.True(t, decision.UpgradeRequired)
		assert.Contains(t, strings.ToLower(decision.Reason), "trial expired")
	}
}

func TestActiveTrialUsesTrialLimits(t *testing.T) {
	info := infoFor(enums.PlanTierTrial)
	info.TrialDaysLeft = 3
	g := newStubGate(t, info, &stubRepo{dynamic: 9})

	decision, err := g.CanPerform(context.Background(), uuid.New(), enums.UsageActionDynamicQR)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.EqualValues(t, 9, decision.Usage)
	assert.Equal(t, 10, decision.Limit)
}

func TestMonthlyQuotaBoundary(t *testing.T) {
	repo := &stubRepo{totals: map[enums.UsageAction]int64{enums.UsageActionQRGenerated: 10}}
	g := newStubGate(t, infoFor(enums.PlanTierFree), repo)

	decision, err := g.CanPerform(context.Background(), uuid.New(), enums.UsageActionQRGenerated)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "monthly qr_generated limit reached (10/10)", decision.Reason)

	repo.totals[enums.UsageActionQRGenerated] = 9
	decision, err = g.CanPerform(context.Background(), uuid.New(), enums.UsageActionQRGenerated)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestDynamicQuotaUsesLiveCount(t *testing.T) {
	repo := &stubRepo{
		totals:  map[enums.UsageAction]int64{enums.UsageActionDynamicQR: 0},
		dynamic: 50,
	}
	g := newStubGate(t, infoFor(enums.PlanTierPro), repo)

	decision, err := g.CanPerform(context.Background(), uuid.New(), enums.UsageActionDynamicQR)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Zero(t, repo.totalCalls)
}

func TestCanPerformRejectsUnknownAction(t *testing.T) {
	g := newStubGate(t, infoFor(enums.PlanTierPro), &stubRepo{})
	_, err := g.CanPerform(context.Background(), uuid.New(), "print")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())

	err := Decision{Reason: "monthly api_call limit reached (5/5)", UpgradeRequired: true, Usage: 5, Limit: 5}.Err()
	apiErr := pkgerrors.As(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, pkgerrors.CodeUpgrade, apiErr.Code())
	details, ok := apiErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, details["upgrade_required"])

	assert.True(t, pkgerrors.IsCode(Decision{Reason: "no"}.Err(), pkgerrors.CodeForbidden))
}

func TestSummaryReportsRemaining(t *testing.T) {
	repo := &stubRepo{
		totals: map[enums.UsageAction]int64{
			enums.UsageActionQRGenerated: 120,
			enums.UsageActionAPICall:     6000,
		},
		dynamic: 4,
	}
	g := newStubGate(t, infoFor(enums.PlanTierPro), repo)

	summary, err := g.Summary(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), summary.PeriodStart)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), summary.PeriodEnd)

	byAction := map[enums.UsageAction]ActionUsage{}
	for _, line := range summary.Actions {
		byAction[line.Action] = line
	}
	assert.EqualValues(t, 380, byAction[enums.UsageActionQRGenerated].Remaining)
	assert.EqualValues(t, 0, byAction[enums.UsageActionAPICall].Remaining)
	assert.EqualValues(t, 4, byAction[enums.UsageActionDynamicQR].Used)
	assert.EqualValues(t, plans.Unlimited, byAction[enums.UsageActionLogoUpload].Remaining)
}

func TestTrackerBucketsByUTCDay(t *testing.T) {
	repo := &stubRepo{}
	loc := time.FixedZone("UTC-8", -8*3600)
	tr, err := NewTracker(repo, nil, func() time.Time { return time.Date(2026, 5, 20, 22, 30, 0, 0, loc) })
	require.NoError(t, err)

	require.NoError(t, tr.Track(context.Background(), uuid.New(), enums.UsageActionAPICall))
	require.Len(t, repo.incrementAt, 1)
	assert.Equal(t, time.Date(2026, 5, 21, 0, 0, 0, 0, time.UTC), repo.incrementAt[0])

	err = tr.Track(context.Background(), uuid.Nil, enums.UsageActionAPICall)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
