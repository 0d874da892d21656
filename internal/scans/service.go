// Package scans records dynamic-code redirects and serves per-code scan stats.
package scans

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/internal/qrcodes"
	"github.com/qrgenpro/qrgen-backend/internal/usage"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/events"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const (
	DefaultStatsDays = 30
	MaxStatsDays     = 365
	dayLayout        = "2006-01-02"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Meta is what the redirect handler knows about the scanner.
type Meta struct {
	IP        string
	UserAgent string
	Referer   string
	Country   string
}

// DailyCount is one point of the daily scan series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Stats is the analytics view of one code. Breakdowns are only filled on the
// advanced analytics tier.
type Stats struct {
	QRCodeID    uuid.UUID           `json:"qr_code_id"`
	Tier        enums.AnalyticsTier `json:"analytics_tier"`
	Days        int                 `json:"days"`
	TotalScans  int64               `json:"total_scans"`
	PeriodScans int64               `json:"period_scans"`
	Daily       []DailyCount        `json:"daily"`
	Devices     []LabelCount        `json:"devices,omitempty"`
	Countries   []LabelCount        `json:"countries,omitempty"`
}

// Service defines the scan surface.
type Service interface {
	Record(ctx context.Context, code *models.QRCode, meta Meta) (*models.QRScan, error)
	Stats(ctx context.Context, userID, qrID uuid.UUID, days int) (*Stats, error)
}

// ServiceParams groups dependencies for the scan service.
type ServiceParams struct {
	Repo              Repository
	Codes             qrcodes.Repository
	TransactionRunner txRunner
	Subscriptions     usage.SubscriptionReader
	Events            events.Publisher
	Logger            *logger.Logger
	Clock             func() time.Time
}

type service struct {
	repo     Repository
	codes    qrcodes.Repository
	txRunner txRunner
	subs     usage.SubscriptionReader
	events   events.Publisher
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the scan service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("scan repo required")
	case params.Codes == nil:
		return nil, fmt.Errorf("qr code repo required")
	case params.TransactionRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Subscriptions == nil:
		return nil, fmt.Errorf("subscription reader required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	publisher := params.Events
	if publisher == nil {
		publisher = events.Discard{}
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:     params.Repo,
		codes:    params.Codes,
		txRunner: params.TransactionRunner,
		subs:     params.Subscriptions,
		events:   publisher,
		logg:     params.Logger,
		now:      clock,
	}, nil
}

// Record stores the scan and bumps scan_count atomically, then publishes
// qr_scanned. Publishing never fails the redirect.
func (s *service) Record(ctx context.Context, code *models.QRCode, meta Meta) (*models.QRScan, error) {
	if code == nil || code.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr code required")
	}

	scan := &models.QRScan{
		QRCodeID:  code.ID,
		ScannedAt: s.now().UTC(),
		IPHash:    HashIP(meta.IP),
		UserAgent: truncate(meta.UserAgent, 512),
		Referer:   truncate(meta.Referer, 1024),
		Country:   normalizeCountry(meta.Country),
		Device:    enums.DeviceClassFromUserAgent(meta.UserAgent),
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, scan); err != nil {
			return err
		}
		return s.codes.WithTx(tx).IncrementScanCount(ctx, code.ID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record scan")
	}

	payload := events.QRScannedEvent{
		ScanID:      scan.ID,
		QRCodeID:    code.ID,
		OwnerID:     code.UserID,
		ScannedAt:   scan.ScannedAt,
		IPHash:      scan.IPHash,
		Country:     scan.Country,
		DeviceClass: scan.Device,
		Referrer:    scan.Referer,
	}
	if code.ShortCode != nil {
		payload.ShortCode = *code.ShortCode
	}
	if err := s.events.Publish(ctx, enums.AnalyticsEventQRScanned, code.ID, payload); err != nil {
		logCtx := s.logg.WithQRCodeID(ctx, code.ID.String())
		s.logg.Error(logCtx, "scans.publish_failed", err)
	}
	return scan, nil
}

// Stats returns the scan history for one of the user's codes over the last
// days days, today included.
func (s *service) Stats(ctx context.Context, userID, qrID uuid.UUID, days int) (*Stats, error) {
	if days == 0 {
		days = DefaultStatsDays
	}
	if days < 1 || days > MaxStatsDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("days must be between 1 and %d", MaxStatsDays))
	}

	info, err := s.subs.GetInfo(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier := info.Limits.Analytics
	if tier == enums.AnalyticsTierNone || tier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpgrade, fmt.Sprintf("scan analytics are not available on the %s plan", info.Tier)).
			WithDetails(map[string]any{
				"reason":           "analytics not included in plan",
				"upgrade_required": true,
			})
	}

	code, err := s.codes.FindByID(ctx, userID, qrID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load qr code")
	}
	if code == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	stamps, err := s.repo.ScannedAt(ctx, qrID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scans")
	}

	out := &Stats{
		QRCodeID:    qrID,
		Tier:        tier,
		Days:        days,
		TotalScans:  code.ScanCount,
		PeriodScans: int64(len(stamps)),
		Daily:       dailySeries(stamps, since, days),
	}

	if tier == enums.AnalyticsTierAdvanced {
		if out.Devices, err = s.repo.CountBy(ctx, qrID, since, "device"); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "device breakdown")
		}
		if out.Countries, err = s.repo.CountBy(ctx, qrID, since, "country"); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "country breakdown")
		}
	}
	return out, nil
}

// dailySeries buckets stamps by UTC day and fills empty days with zero.
func dailySeries(stamps []time.Time, since time.Time, days int) []DailyCount {
	counts := make(map[string]int64, days)
	for _, ts := range stamps {
		counts[ts.UTC().Format(dayLayout)]++
	}
	series := make([]DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format(dayLayout)
		series = append(series, DailyCount{Date: day, Count: counts[day]})
	}
	return series
}

// HashIP returns the hex sha256 of ip, or "" when ip is blank.
func HashIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

func normalizeCountry(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	// XX and T1 are what the edge sends for unknown and Tor traffic
	if len(c) != 2 || c == "XX" || c == "T1" {
		return ""
	}
	return c
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
