package controllers

import (
	"net/http"
	"strings"

	"github.com/qrgenpro/qrgen-backend/api/middleware"
	"github.com/qrgenpro/qrgen-backend/api/responses"
	"github.com/qrgenpro/qrgen-backend/internal/usage"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

// UsageSummary reports this month's counters against the plan.
func UsageSummary(gate usage.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		summary, err := gate.Summary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// UsageCheck answers whether the action is allowed right now. A denial is a
// 200 with allowed=false; the decision itself is the payload.
func UsageCheck(gate usage.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		action, err := enums.ParseUsageAction(strings.TrimSpace(r.URL.Query().Get("action")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action").
				WithDetails(map[string]any{"field": "action"}))
			return
		}
		decision, err := gate.CanPerform(r.Context(), userID, action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, decision)
	}
}
