package scans

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/internal/plans"
	"github.com/qrgenpro/qrgen-backend/internal/qrcodes"
	"github.com/qrgenpro/qrgen-backend/internal/subscriptions"
	"github.com/qrgenpro/qrgen-backend/pkg/db"
	"github.com/qrgenpro/qrgen-backend/pkg/db/dbtest"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/events"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
	"github.com/qrgenpro/qrgen-backend/pkg/migrate"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148"

type stubSubs struct {
	tier enums.PlanTier
}

func (s stubSubs) GetInfo(context.Context, uuid.UUID) (*subscriptions.Info, error) {
	return &subscriptions.Info{Tier: s.tier, Limits: plans.For(s.tier)}, nil
}

type capturedEvent struct {
	eventType enums.AnalyticsEventType
	payload   any
}

type capturePublisher struct {
	events []capturedEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, eventType enums.AnalyticsEventType, _ uuid.UUID, payload any) error {
	p.events = append(p.events, capturedEvent{eventType: eventType, payload: payload})
	return p.err
}

type fixture struct {
	svc       Service
	conn      *gorm.DB
	codes     qrcodes.Repository
	publisher *capturePublisher
	now       time.Time
}

func newFixture(t *testing.T, tier enums.PlanTier) *fixture {
	t.Helper()
	conn := dbtest.Open(t, migrate.AutoMigrateSQLite)
	f := &fixture{
		conn:      conn,
		codes:     qrcodes.NewRepository(conn),
		publisher: &capturePublisher{},
		now:       time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		Codes:             f.codes,
		TransactionRunner: db.NewFromConn(conn),
		Subscriptions:     stubSubs{tier: tier},
		Events:            f.publisher,
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Clock:             func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) dynamicCode(t *testing.T, userID uuid.UUID) *models.QRCode {
	t.Helper()
	short := "Scan" + uuid.NewString()[:4]
	dest := "https://example.com"
	code := &models.QRCode{
		UserID:         userID,
		Name:           "promo",
		ContentType:    enums.QRContentURL,
		Content:        json.RawMessage(`{"url":"https://example.com"}`),
		Encoded:        "https://qr.example.com/r/" + short,
		Style:          json.RawMessage(`{}`),
		IsDynamic:      true,
		ShortCode:      &short,
		DestinationURL: &dest,
		IsActive:       true,
	}
	require.NoError(t, f.codes.Create(context.Background(), code))
	return code
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestRecordStoresScanAndPublishes(t *testing.T) {
	f := newFixture(t, enums.PlanTierPro)
	ctx := context.Background()
	code := f.dynamicCode(t, uuid.New())

	scan, err := f.svc.Record(ctx, code, Meta{IP: "203.0.113.7", UserAgent: iphoneUA, Country: "us", Referer: "https://news.example"})
	require.NoError(t, err)
	assert.Equal(t, enums.DeviceClassMobile, scan.Device)
	assert.Equal(t, "US", scan.Country)
	assert.Equal(t, HashIP("203.0.113.7"), scan.IPHash)
	assert.NotContains(t, scan.IPHash, "203.0.113.7")

	reloaded, err := f.codes.FindByID(ctx, code.UserID, code.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.ScanCount)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, enums.AnalyticsEventQRScanned, f.publisher.events[0].eventType)
	payload, ok := f.publisher.events[0].payload.(events.QRScannedEvent)
	require.True(t, ok)
	assert.Equal(t, *code.ShortCode, payload.ShortCode)
	assert.Equal(t, scan.ID, payload.ScanID)
}

func TestRecordSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t, enums.PlanTierPro)
	f.publisher.err = assert.AnError
	code := f.dynamicCode(t, uuid.New())

	_, err := f.svc.Record(context.Background(), code, Meta{})
	require.NoError(t, err)

	var n int64
	require.NoError(t, f.conn.Model(&models.QRScan{}).Where("qr_code_id = ?", code.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestStatsRequiresAnalyticsTier(t *testing.T) {
	f := newFixture(t, enums.PlanTierFree)
	code := f.dynamicCode(t, uuid.New())

	_, err := f.svc.Stats(context.Background(), code.UserID, code.ID, 7)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpgrade))
}

func TestStatsBasicHasSeriesWithoutBreakdowns(t *testing.T) {
	f := newFixture(t, enums.PlanTierPro)
	ctx := context.Background()
	code := f.dynamicCode(t, uuid.New())

	start := f.now
	f.now = start.AddDate(0, 0, -2)
	_, err := f.svc.Record(ctx, code, Meta{UserAgent: iphoneUA})
	require.NoError(t, err)
	f.now = start.AddDate(0, 0, -10)
	_, err = f.svc.Record(ctx, code, Meta{})
	require.NoError(t, err)
	f.now = start
	for i := 0; i < 2; i++ {
		_, err = f.svc.Record(ctx, code, Meta{})
		require.NoError(t, err)
	}

	stats, err := f.svc.Stats(ctx, code.UserID, code.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, enums.AnalyticsTierBasic, stats.Tier)
	assert.EqualValues(t, 4, stats.TotalScans)
	assert.EqualValues(t, 3, stats.PeriodScans, "the scan ten days ago is outside the window")
	require.Len(t, stats.Daily, 7)
	assert.Equal(t, "2026-06-04", stats.Daily[0].Date)
	assert.Equal(t, "2026-06-10", stats.Daily[6].Date)
	assert.EqualValues(t, 2, stats.Daily[6].Count)
	assert.EqualValues(t, 1, stats.Daily[4].Count)
	assert.Nil(t, stats.Devices)
	assert.Nil(t, stats.Countries)
}

func TestStatsAdvancedAddsBreakdowns(t *testing.T) {
	f := newFixture(t, enums.PlanTierBusiness)
	ctx := context.Background()
	code := f.dynamicCode(t, uuid.New())

	metas := []Meta{
		{UserAgent: iphoneUA, Country: "US"},
		{UserAgent: iphoneUA, Country: "DE"},
		{UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", Country: "US"},
	}
	for _, m := range metas {
		_, err := f.svc.Record(ctx, code, m)
		require.NoError(t, err)
	}

	stats, err := f.svc.Stats(ctx, code.UserID, code.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStatsDays, stats.Days)
	assert.Equal(t, []LabelCount{{Label: "mobile", Count: 2}, {Label: "desktop", Count: 1}}, stats.Devices)
	assert.Equal(t, []LabelCount{{Label: "US", Count: 2}, {Label: "DE", Count: 1}}, stats.Countries)
}

func TestStatsScopedToOwnerAndValidatesDays(t *testing.T) {
	f := newFixture(t, enums.PlanTierBusiness)
	code := f.dynamicCode(t, uuid.New())

	_, err := f.svc.Stats(context.Background(), uuid.New(), code.ID, 7)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Stats(context.Background(), code.UserID, code.ID, MaxStatsDays+1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "FR", normalizeCountry(" fr "))
	assert.Equal(t, "", normalizeCountry("XX"))
	assert.Equal(t, "", normalizeCountry("T1"))
	assert.Equal(t, "", normalizeCountry("France"))
	assert.Equal(t, "", HashIP("  "))
}
