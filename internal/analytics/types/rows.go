package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// ScanEventRow mirrors the qr_scan_events BigQuery schema.
type ScanEventRow struct {
	EventID     string             `bigquery:"event_id"`
	OccurredAt  time.Time          `bigquery:"occurred_at"`
	ScanID      string             `bigquery:"scan_id"`
	QRCodeID    string             `bigquery:"qr_code_id"`
	OwnerID     string             `bigquery:"owner_id"`
	ShortCode   string             `bigquery:"short_code"`
	DeviceClass string             `bigquery:"device_class"`
	Country     *string            `bigquery:"country"`
	IPHash      *string            `bigquery:"ip_hash"`
	Referrer    *string            `bigquery:"referrer"`
	Payload     cbigquery.NullJSON `bigquery:"payload"`
}

// CodeEventRow mirrors the qr_code_events BigQuery schema.
type CodeEventRow struct {
	EventID     string             `bigquery:"event_id"`
	EventType   string             `bigquery:"event_type"`
	OccurredAt  time.Time          `bigquery:"occurred_at"`
	QRCodeID    string             `bigquery:"qr_code_id"`
	OwnerID     string             `bigquery:"owner_id"`
	ContentType string             `bigquery:"content_type"`
	Style       *string            `bigquery:"style"`
	IsDynamic   bool               `bigquery:"is_dynamic"`
	Payload     cbigquery.NullJSON `bigquery:"payload"`
}
