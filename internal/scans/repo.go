package scans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
)

// Repository persists individual scans.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, scan *models.QRScan) error
	ScannedAt(ctx context.Context, qrID uuid.UUID, since time.Time) ([]time.Time, error)
	CountBy(ctx context.Context, qrID uuid.UUID, since time.Time, column string) ([]LabelCount, error)
	Count(ctx context.Context, qrID uuid.UUID, since time.Time) (int64, error)
}

// LabelCount is one row of a grouped breakdown.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// breakdown columns are fixed; callers never pass user input here.
var breakdownColumns = map[string]bool{"device": true, "country": true}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a scan repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, scan *models.QRScan) error {
	return r.db.WithContext(ctx).Create(scan).Error
}

func (r *repository) ScannedAt(ctx context.Context, qrID uuid.UUID, since time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.QRScan{}).
		Where("qr_code_id = ? AND scanned_at >= ?", qrID, since).
		Order("scanned_at ASC").
		Pluck("scanned_at", &out).Error
	return out, err
}

func (r *repository) CountBy(ctx context.Context, qrID uuid.UUID, since time.Time, column string) ([]LabelCount, error) {
	if !breakdownColumns[column] {
		return nil, gorm.ErrInvalidField
	}
	var out []LabelCount
	err := r.db.WithContext(ctx).
		Model(&models.QRScan{}).
		Select(column+" AS label, COUNT(*) AS count").
		Where("qr_code_id = ? AND scanned_at >= ?", qrID, since).
		Group(column).
		Order("count DESC, label ASC").
		Scan(&out).Error
	return out, err
}

func (r *repository) Count(ctx context.Context, qrID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.QRScan{}).
		Where("qr_code_id = ? AND scanned_at >= ?", qrID, since).
		Count(&n).Error
	return n, err
}
