package controllers

import (
	"net/http"

	"github.com/qrgenpro/qrgen-backend/api/responses"
	"github.com/qrgenpro/qrgen-backend/internal/plans"
)

// PlansCatalog lists every tier with its price and limits.
func PlansCatalog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, plans.Catalog())
	}
}
