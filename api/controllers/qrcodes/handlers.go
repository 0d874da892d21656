// Package qrcodes exposes one-off rendering, saved code management and scan
// statistics over HTTP.
package qrcodes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/api/middleware"
	"github.com/qrgenpro/qrgen-backend/api/responses"
	"github.com/qrgenpro/qrgen-backend/api/validators"
	qrcodesvc "github.com/qrgenpro/qrgen-backend/internal/qrcodes"
	"github.com/qrgenpro/qrgen-backend/internal/qrrender"
	"github.com/qrgenpro/qrgen-backend/internal/scans"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
	"github.com/qrgenpro/qrgen-backend/pkg/pagination"
)

const (
	nameMaxLen      = 120
	watermarkHeader = "X-QRGen-Watermarked"
)

// Generate renders without saving and streams the image back.
func Generate(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		var body qrcodesvc.GenerateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Generate(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeImage(w, result, "qr-code")
	}
}

// Create saves a static or dynamic code.
func Create(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		var body qrcodesvc.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Name = validators.SanitizeString(body.Name, nameMaxLen)

		code, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, qrcodesvc.ToDTO(code, svc.BaseURL()))
	}
}

// List pages through the caller's codes, newest first.
func List(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Detail(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndCode(w, r, logg)
		if !ok {
			return
		}
		code, err := svc.Get(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, qrcodesvc.ToDTO(code, svc.BaseURL()))
	}
}

// Image re-renders a saved code; format and size come from the query string.
func Image(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndCode(w, r, logg)
		if !ok {
			return
		}
		size, err := validators.ParseQueryInt(r, "size", 0, 0, 4096)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Image(r.Context(), userID, id, qrcodesvc.ImageOptions{
			Format: strings.TrimSpace(r.URL.Query().Get("format")),
			SizePx: size,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeImage(w, result, id.String())
	}
}

// Update patches name, destination or active flag.
func Update(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndCode(w, r, logg)
		if !ok {
			return
		}
		var body qrcodesvc.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Name != nil {
			name := validators.SanitizeString(*body.Name, nameMaxLen)
			body.Name = &name
		}
		code, err := svc.Update(r.Context(), userID, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, qrcodesvc.ToDTO(code, svc.BaseURL()))
	}
}

// Deactivate stops a dynamic code from redirecting.
func Deactivate(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndCode(w, r, logg)
		if !ok {
			return
		}
		code, err := svc.Deactivate(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, qrcodesvc.ToDTO(code, svc.BaseURL()))
	}
}

func Delete(svc qrcodesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndCode(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Stats returns the scan series for ?days= (default 30).
func Stats(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndCode(w, r, logg)
		if !ok {
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 0, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), userID, id, days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return uuid.Nil, false
	}
	return userID, true
}

func requireUserAndCode(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUser(w, r, logg)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func writeImage(w http.ResponseWriter, result *qrrender.Result, name string) {
	if result.Watermarked {
		w.Header().Set(watermarkHeader, "true")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s%s"`, name, extensionFor(result.MimeType)))
	responses.WriteImage(w, result.MimeType, result.Bytes)
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/svg+xml":
		return ".svg"
	case "application/pdf":
		return ".pdf"
	default:
		return ".png"
	}
}
