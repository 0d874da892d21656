package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/internal/analytics/router"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	"github.com/qrgenpro/qrgen-backend/pkg/events"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

// consumer scopes the processed-event markers written by this worker.
const consumer = "analytics"

// Handler processes one decoded envelope.
type Handler interface {
	Handle(ctx context.Context, envelope events.Envelope) error
}

// Dedup remembers which events a consumer already handled.
type Dedup interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type outcome int

const (
	ack outcome = iota
	retry
)

// Service pulls analytics events off the Pub/Sub subscription and forwards them to the handler.
type Service struct {
	sub     *gcppubsub.Subscriber
	handler Handler
	dedup   Dedup
	logg    *logger.Logger
}

func NewService(sub *gcppubsub.Subscriber, handler Handler, dedup Dedup, logg *logger.Logger) (*Service, error) {
	switch {
	case sub == nil:
		return nil, errors.New("analytics subscription is required")
	case handler == nil:
		return nil, errors.New("analytics handler is required")
	case dedup == nil:
		return nil, errors.New("event dedup store is required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{sub: sub, handler: handler, dedup: dedup, logg: logg}, nil
}

// Run blocks until ctx is canceled or the subscription fails.
func (s *Service) Run(ctx context.Context) error {
	return s.sub.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if s.consume(ctx, msg) == retry {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// consume acks malformed and unknown events so they never loop; only
// dedup and handler failures are redelivered.
func (s *Service) consume(ctx context.Context, msg *gcppubsub.Message) outcome {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)

	env, err := decodeEnvelope(msg.Data, msg.Attributes)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.envelope_invalid")
		return ack
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":     env.EventID.String(),
		"event_type":   env.EventType,
		"aggregate_id": env.AggregateID.String(),
		"occurred_at":  env.OccurredAt.Format(time.RFC3339Nano),
	})

	seen, err := s.dedup.CheckAndMarkProcessed(ctx, consumer, env.EventID)
	if err != nil {
		s.logg.Error(ctx, "analytics.dedup_failed", err)
		return retry
	}
	if seen {
		s.logg.Info(ctx, "analytics.duplicate_skipped")
		return ack
	}

	err = s.handler.Handle(ctx, env)
	switch {
	case err == nil:
		s.logg.Debug(ctx, "analytics.handled")
		return ack
	case errors.Is(err, router.ErrUnsupportedEventType):
		s.logg.Warn(ctx, "analytics.unsupported_dropped")
		return ack
	default:
		s.logg.Error(ctx, "analytics.handler_failed", err)
		if derr := s.dedup.Delete(ctx, consumer, env.EventID); derr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", derr.Error()), "analytics.dedup_release_failed")
		}
		return retry
	}
}

// decodeEnvelope reads the JSON body; message attributes fill whatever the body omits.
func decodeEnvelope(data []byte, attrs map[string]string) (events.Envelope, error) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	attr := func(name string) string { return strings.TrimSpace(attrs[name]) }

	if env.EventType == "" {
		t, err := enums.ParseAnalyticsEventType(attr("event_type"))
		if err != nil {
			return events.Envelope{}, fmt.Errorf("event_type: %w", err)
		}
		env.EventType = t
	} else if !env.EventType.IsValid() {
		return events.Envelope{}, fmt.Errorf("event_type: invalid %q", env.EventType)
	}

	if env.EventID == uuid.Nil {
		raw := attr("event_id")
		if raw == "" {
			return events.Envelope{}, errors.New("event_id missing")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return events.Envelope{}, fmt.Errorf("event_id: %w", err)
		}
		env.EventID = id
	}

	if env.AggregateID == uuid.Nil {
		id, err := uuid.Parse(attr("aggregate_id"))
		if err != nil {
			return events.Envelope{}, errors.New("aggregate_id missing")
		}
		env.AggregateID = id
	}

	if env.OccurredAt.IsZero() {
		if ts, err := time.Parse(time.RFC3339Nano, attr("created_at")); err == nil {
			env.OccurredAt = ts
		}
	}
	env.OccurredAt = env.OccurredAt.UTC()
	return env, nil
}
