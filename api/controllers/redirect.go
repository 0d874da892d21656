package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qrgenpro/qrgen-backend/api/middleware"
	"github.com/qrgenpro/qrgen-backend/api/responses"
	"github.com/qrgenpro/qrgen-backend/internal/qrcodes"
	"github.com/qrgenpro/qrgen-backend/internal/scans"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const countryHeader = "CF-IPCountry"

// Redirect resolves a dynamic short code, records the scan and sends the
// scanner on. A scan that fails to record still redirects.
func Redirect(codes qrcodes.Service, scanSvc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := codes.Resolve(r.Context(), chi.URLParam(r, "shortCode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meta := scans.Meta{
			IP:        middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
			Referer:   r.Referer(),
			Country:   r.Header.Get(countryHeader),
		}
		if _, err := scanSvc.Record(r.Context(), code, meta); err != nil && logg != nil {
			ctx := logg.WithQRCodeID(r.Context(), code.ID.String())
			logg.Error(ctx, "scan.record_failed", err)
		}

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, *code.DestinationURL, http.StatusFound)
	}
}
