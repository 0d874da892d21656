package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

type stubResult struct{ err error }

func (r stubResult) Get(context.Context) (string, error) { return "msg-1", r.err }

type stubTopic struct {
	msgs []*gcppubsub.Message
	err  error
}

func (s *stubTopic) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	s.msgs = append(s.msgs, msg)
	return stubResult{err: s.err}
}

func TestPublishWritesEnvelopeAndAttributes(t *testing.T) {
	topic := &stubTopic{}
	pub := newPubSubPublisher(topic, nil)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	qrID := uuid.New()
	payload := QRScannedEvent{QRCodeID: qrID, ShortCode: "aB3dE5gH", DeviceClass: enums.DeviceClassMobile}
	require.NoError(t, pub.Publish(context.Background(), enums.AnalyticsEventQRScanned, qrID, payload))
	require.Len(t, topic.msgs, 1)

	msg := topic.msgs[0]
	assert.Equal(t, "qr_scanned", msg.Attributes["event_type"])
	assert.Equal(t, qrID.String(), msg.Attributes["aggregate_id"])

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, msg.Attributes["event_id"], env.EventID.String())
	assert.Equal(t, fixed, env.OccurredAt)
	assert.Equal(t, envelopeVersion, env.Version)

	var decoded QRScannedEvent
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	assert.Equal(t, "aB3dE5gH", decoded.ShortCode)
}

func TestPublishRejectsUnknownEventType(t *testing.T) {
	topic := &stubTopic{}
	pub := newPubSubPublisher(topic, nil)
	err := pub.Publish(context.Background(), enums.AnalyticsEventType("qr_exploded"), uuid.New(), struct{}{})
	require.Error(t, err)
	assert.Empty(t, topic.msgs)
}

func TestPublishSurfacesAckError(t *testing.T) {
	topic := &stubTopic{err: errors.New("unavailable")}
	pub := newPubSubPublisher(topic, nil)
	err := pub.Publish(context.Background(), enums.AnalyticsEventQRCreated, uuid.New(), QRCodeLifecycleEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}
