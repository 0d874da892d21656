package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qrgenpro/qrgen-backend/internal/analytics/types"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	"github.com/qrgenpro/qrgen-backend/pkg/events"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer persists the rows built from analytics events.
type Writer interface {
	InsertScan(ctx context.Context, row types.ScanEventRow) error
	InsertCodeEvent(ctx context.Context, row types.CodeEventRow) error
}

type route func(ctx context.Context, env events.Envelope) error

// Router turns envelopes into BigQuery rows, one route per event type.
type Router struct {
	routes map[enums.AnalyticsEventType]route
	logg   *logger.Logger
}

func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	r := &Router{logg: logg}
	scanned := typed(func(ctx context.Context, env events.Envelope, ev *events.QRScannedEvent) error {
		return writer.InsertScan(ctx, scanRow(env, ev))
	})
	lifecycle := typed(func(ctx context.Context, env events.Envelope, ev *events.QRCodeLifecycleEvent) error {
		return writer.InsertCodeEvent(ctx, codeEventRow(env, ev))
	})
	r.routes = map[enums.AnalyticsEventType]route{
		enums.AnalyticsEventQRScanned:     scanned,
		enums.AnalyticsEventQRCreated:     lifecycle,
		enums.AnalyticsEventQRDeactivated: lifecycle,
	}
	return r, nil
}

// typed decodes the envelope data into T before calling fn.
func typed[T any](fn func(context.Context, events.Envelope, *T) error) route {
	return func(ctx context.Context, env events.Envelope) error {
		if len(env.Data) == 0 {
			return fmt.Errorf("empty payload for %s", env.EventType)
		}
		var payload T
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.EventType, err)
		}
		return fn(ctx, env, &payload)
	}
}

func (r *Router) Handle(ctx context.Context, env events.Envelope) error {
	handle, ok := r.routes[env.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, env.EventType)
	}
	if err := handle(ctx, env); err != nil {
		return err
	}
	r.logg.Debug(r.logg.WithField(ctx, "event_type", env.EventType), "analytics.row_written")
	return nil
}
