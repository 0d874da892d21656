package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/api/responses"
	"github.com/qrgenpro/qrgen-backend/internal/usage"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const apiClientHeader = "X-API-Key-Client"

type apiCallGate interface {
	CanPerform(ctx context.Context, userID uuid.UUID, action enums.UsageAction) (usage.Decision, error)
}

type apiCallTracker interface {
	Track(ctx context.Context, userID uuid.UUID, action enums.UsageAction) error
}

// APIUsage gates and counts programmatic calls. Only requests marked with
// X-API-Key-Client: true are metered; browser traffic passes through.
// Must run after Auth.
func APIUsage(gate apiCallGate, tracker apiCallTracker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isAPIClient(r) || gate == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			userID, ok := UserUUIDFromContext(ctx)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			decision, err := gate.CanPerform(ctx, userID, enums.UsageActionAPICall)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if err := decision.Err(); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// failed calls are not billed
			if tracker == nil || rec.status >= http.StatusBadRequest {
				return
			}
			if err := tracker.Track(ctx, userID, enums.UsageActionAPICall); err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "usage.api_call_track_failed")
			}
		})
	}
}

func isAPIClient(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get(apiClientHeader)), "true")
}
