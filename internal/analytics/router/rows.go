package router

import (
	"strings"
	"time"

	"github.com/qrgenpro/qrgen-backend/internal/analytics/types"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	"github.com/qrgenpro/qrgen-backend/pkg/events"
)

func scanRow(env events.Envelope, ev *events.QRScannedEvent) types.ScanEventRow {
	device := ev.DeviceClass
	if device == "" {
		device = enums.DeviceClassUnknown
	}
	return types.ScanEventRow{
		EventID:     env.EventID.String(),
		OccurredAt:  firstSet(ev.ScannedAt, env.OccurredAt),
		ScanID:      ev.ScanID.String(),
		QRCodeID:    ev.QRCodeID.String(),
		OwnerID:     ev.OwnerID.String(),
		ShortCode:   ev.ShortCode,
		DeviceClass: string(device),
		Country:     nullable(ev.Country),
		IPHash:      nullable(ev.IPHash),
		Referrer:    nullable(ev.Referrer),
		Payload:     types.JSON(env.Data),
	}
}

// codeEventRow serves qr_created and qr_deactivated; the envelope carries the type.
func codeEventRow(env events.Envelope, ev *events.QRCodeLifecycleEvent) types.CodeEventRow {
	return types.CodeEventRow{
		EventID:     env.EventID.String(),
		EventType:   string(env.EventType),
		OccurredAt:  firstSet(ev.OccurredAt, env.OccurredAt),
		QRCodeID:    ev.QRCodeID.String(),
		OwnerID:     ev.OwnerID.String(),
		ContentType: string(ev.ContentType),
		Style:       nullable(string(ev.Style)),
		IsDynamic:   ev.IsDynamic,
		Payload:     types.JSON(env.Data),
	}
}

func firstSet(primary, fallback time.Time) time.Time {
	if primary.IsZero() {
		return fallback.UTC()
	}
	return primary.UTC()
}

func nullable(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
