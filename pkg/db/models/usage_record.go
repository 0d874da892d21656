package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// UsageRecordDayIndex backs the daily counter upsert.
const UsageRecordDayIndex = "ux_usage_records_user_action_day"

// UsageRecord is the per user, action and UTC day counter.
type UsageRecord struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_usage_records_user_action_day,priority:1"`
	Action     enums.UsageAction `gorm:"column:action;type:text;not null;uniqueIndex:ux_usage_records_user_action_day,priority:2"`
	UsageDate  time.Time         `gorm:"column:usage_date;type:date;not null;uniqueIndex:ux_usage_records_user_action_day,priority:3"`
	UsageCount int64             `gorm:"column:usage_count;not null;default:0"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *UsageRecord) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
