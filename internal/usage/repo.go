package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// Repository persists daily usage counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Increment(ctx context.Context, userID uuid.UUID, action enums.UsageAction, day time.Time, n int64) error
	Total(ctx context.Context, userID uuid.UUID, action enums.UsageAction, from, to time.Time) (int64, error)
	Totals(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[enums.UsageAction]int64, error)
	CountActiveDynamic(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteBefore(ctx context.Context, day time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a usage repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Increment adds n to the (user, action, day) counter in a single upsert, so
// concurrent increments never lose updates.
func (r *repository) Increment(ctx context.Context, userID uuid.UUID, action enums.UsageAction, day time.Time, n int64) error {
	record := &models.UsageRecord{
		UserID:     userID,
		Action:     action,
		UsageDate:  day,
		UsageCount: n,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "action"}, {Name: "usage_date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"usage_count": gorm.Expr("usage_records.usage_count + excluded.usage_count"),
				"updated_at":  gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(record).Error
}

// Total sums the counter for action over days in [from, to).
func (r *repository) Total(ctx context.Context, userID uuid.UUID, action enums.UsageAction, from, to time.Time) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Select("COALESCE(SUM(usage_count), 0)").
		Where("user_id = ? AND action = ? AND usage_date >= ? AND usage_date < ?", userID, action, from, to).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

type actionTotal struct {
	Action enums.UsageAction
	Total  int64
}

func (r *repository) Totals(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[enums.UsageAction]int64, error) {
	var rows []actionTotal
	if err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Select("action, COALESCE(SUM(usage_count), 0) AS total").
		Where("user_id = ? AND usage_date >= ? AND usage_date < ?", userID, from, to).
		Group("action").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.UsageAction]int64, len(rows))
	for _, row := range rows {
		out[row.Action] = row.Total
	}
	return out, nil
}

// CountActiveDynamic counts the user's live dynamic codes.
func (r *repository) CountActiveDynamic(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.QRCode{}).
		Where("user_id = ? AND is_dynamic = ? AND is_active = ?", userID, true, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteBefore drops counters for days strictly before day.
func (r *repository) DeleteBefore(ctx context.Context, day time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("usage_date < ?", Day(day)).
		Delete(&models.UsageRecord{})
	return res.RowsAffected, res.Error
}
