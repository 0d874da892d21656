package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

const envelopeVersion = 1

// Envelope is the JSON body of every message on the events topic.
type Envelope struct {
	Version     int                      `json:"version"`
	EventID     uuid.UUID                `json:"eventId"`
	EventType   enums.AnalyticsEventType `json:"eventType"`
	AggregateID uuid.UUID                `json:"aggregateId"`
	OccurredAt  time.Time                `json:"occurredAt"`
	Data        json.RawMessage          `json:"data"`
}

// NewEnvelope marshals payload and stamps a fresh event id.
func NewEnvelope(eventType enums.AnalyticsEventType, aggregateID uuid.UUID, payload any, occurredAt time.Time) (Envelope, error) {
	if !eventType.IsValid() {
		return Envelope{}, fmt.Errorf("invalid event type %q", eventType)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		Version:     envelopeVersion,
		EventID:     uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		OccurredAt:  occurredAt.UTC(),
		Data:        data,
	}, nil
}
