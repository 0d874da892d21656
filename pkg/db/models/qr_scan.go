package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// QRScan is one resolved scan of a dynamic code.
type QRScan struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	QRCodeID  uuid.UUID         `gorm:"column:qr_code_id;type:uuid;not null;index"`
	ScannedAt time.Time         `gorm:"column:scanned_at;not null;index"`
	IPHash    string            `gorm:"column:ip_hash;not null;default:''"`
	UserAgent string            `gorm:"column:user_agent;not null;default:''"`
	Referer   string            `gorm:"column:referer;not null;default:''"`
	Country   string            `gorm:"column:country;not null;default:''"`
	Device    enums.DeviceClass `gorm:"column:device;type:text;not null;default:'unknown'"`
}

func (s *QRScan) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.ScannedAt.IsZero() {
		s.ScannedAt = time.Now().UTC()
	}
	return nil
}
