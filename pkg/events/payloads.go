package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// QRScannedEvent is emitted after a dynamic code redirect is recorded.
type QRScannedEvent struct {
	ScanID      uuid.UUID         `json:"scanId"`
	QRCodeID    uuid.UUID         `json:"qrCodeId"`
	OwnerID     uuid.UUID         `json:"ownerId"`
	ShortCode   string            `json:"shortCode"`
	ScannedAt   time.Time         `json:"scannedAt"`
	IPHash      string            `json:"ipHash,omitempty"`
	Country     string            `json:"country,omitempty"`
	DeviceClass enums.DeviceClass `json:"deviceClass"`
	Referrer    string            `json:"referrer,omitempty"`
}

// QRCodeLifecycleEvent covers qr_created and qr_deactivated.
type QRCodeLifecycleEvent struct {
	QRCodeID    uuid.UUID           `json:"qrCodeId"`
	OwnerID     uuid.UUID           `json:"ownerId"`
	ContentType enums.QRContentType `json:"contentType"`
	Style       enums.ModuleStyle   `json:"style"`
	IsDynamic   bool                `json:"isDynamic"`
	OccurredAt  time.Time           `json:"occurredAt"`
}
