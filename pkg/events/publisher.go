package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const defaultPublishTimeout = 15 * time.Second

// Publisher emits domain events for the analytics pipeline.
type Publisher interface {
	Publish(ctx context.Context, eventType enums.AnalyticsEventType, aggregateID uuid.UUID, payload any) error
}

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubPublisher writes envelopes to a single Pub/Sub topic and waits for the server ack.
type PubSubPublisher struct {
	topic   topicPublisher
	logg    *logger.Logger
	now     func() time.Time
	timeout time.Duration
}

// NewPubSubPublisher wraps the events topic publisher.
func NewPubSubPublisher(pub *gcppubsub.Publisher, logg *logger.Logger) (*PubSubPublisher, error) {
	if pub == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newPubSubPublisher(&gcpPublisher{Publisher: pub}, logg), nil
}

func newPubSubPublisher(topic topicPublisher, logg *logger.Logger) *PubSubPublisher {
	return &PubSubPublisher{
		topic:   topic,
		logg:    logg,
		now:     time.Now,
		timeout: defaultPublishTimeout,
	}
}

// Publish wraps payload in an Envelope and publishes it with routing attributes.
func (p *PubSubPublisher) Publish(ctx context.Context, eventType enums.AnalyticsEventType, aggregateID uuid.UUID, payload any) error {
	env, err := NewEnvelope(eventType, aggregateID, payload, p.now())
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":     env.EventID.String(),
			"event_type":   string(env.EventType),
			"aggregate_id": env.AggregateID.String(),
			"created_at":   env.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.topic.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil for %s", eventType)
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	if p.logg != nil {
		p.logg.Debug(p.logg.WithFields(ctx, map[string]any{
			"event_id":     env.EventID.String(),
			"event_type":   env.EventType,
			"aggregate_id": env.AggregateID.String(),
		}), "event published")
	}
	return nil
}

// Discard drops every event. Used when publishing is disabled.
type Discard struct{}

func (Discard) Publish(context.Context, enums.AnalyticsEventType, uuid.UUID, any) error {
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
