package qrcodes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/pagination"
)

// Repository handles QR code persistence. Reads other than FindByShortCode are
// scoped to the owning user.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, code *models.QRCode) error
	Save(ctx context.Context, code *models.QRCode) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*models.QRCode, error)
	FindByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error)
	List(ctx context.Context, query ListQuery) ([]models.QRCode, *pagination.Cursor, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	IncrementScanCount(ctx context.Context, id uuid.UUID) error
}

// ListQuery configures QR code list queries.
type ListQuery struct {
	UserID  uuid.UUID
	Limit   int
	Cursor  *pagination.Cursor
	Dynamic *bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a QR code repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, code *models.QRCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) Save(ctx context.Context, code *models.QRCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

func (r *repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.QRCode, error) {
	var code models.QRCode
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *repository) FindByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error) {
	var code models.QRCode
	err := r.db.WithContext(ctx).
		Where("short_code = ?", shortCode).
		Take(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// List returns one page ordered newest first and the cursor of the last row
// when more rows follow.
func (r *repository) List(ctx context.Context, params ListQuery) ([]models.QRCode, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.QRCode{}).Where("user_id = ?", params.UserID)
	if params.Dynamic != nil {
		query = query.Where("is_dynamic = ?", *params.Dynamic)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var codes []models.QRCode
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&codes).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(codes, limit, func(c models.QRCode) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	return page, next, nil
}

func (r *repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.QRCode{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) IncrementScanCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.QRCode{}).
		Where("id = ?", id).
		UpdateColumn("scan_count", gorm.Expr("scan_count + ?", 1)).Error
}
