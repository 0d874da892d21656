package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// QRCode is a saved QR code. Dynamic codes encode a short redirect URL.
type QRCode struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Name           string              `gorm:"column:name;not null"`
	ContentType    enums.QRContentType `gorm:"column:content_type;type:text;not null"`
	Content        json.RawMessage     `gorm:"column:content;type:jsonb;not null"`
	Encoded        string              `gorm:"column:encoded;type:text;not null"`
	Style          json.RawMessage     `gorm:"column:style;type:jsonb;not null"`
	IsDynamic      bool                `gorm:"column:is_dynamic;not null;default:false"`
	ShortCode      *string             `gorm:"column:short_code;uniqueIndex"`
	DestinationURL *string             `gorm:"column:destination_url"`
	IsActive       bool                `gorm:"column:is_active;not null;default:true"`
	ScanCount      int64               `gorm:"column:scan_count;not null;default:0"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *QRCode) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
