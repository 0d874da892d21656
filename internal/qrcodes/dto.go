package qrcodes

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/internal/qrrender"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// GenerateInput describes a one-off render. Logo is base64 in JSON.
type GenerateInput struct {
	ContentType enums.QRContentType `json:"content_type" validate:"required"`
	Content     json.RawMessage     `json:"content" validate:"required"`
	Style       qrrender.StyleSpec  `json:"style"`
	Logo        []byte              `json:"logo,omitempty"`
	Format      string              `json:"format,omitempty"`
}

// CreateInput describes a saved code. Dynamic codes must carry URL content,
// which becomes the redirect destination.
type CreateInput struct {
	Name        string              `json:"name" validate:"required,max=120"`
	ContentType enums.QRContentType `json:"content_type" validate:"required"`
	Content     json.RawMessage     `json:"content" validate:"required"`
	Style       qrrender.StyleSpec  `json:"style"`
	Dynamic     bool                `json:"dynamic"`
}

// UpdateInput patches a saved code. Nil fields are left unchanged.
type UpdateInput struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	DestinationURL *string `json:"destination_url,omitempty" validate:"omitempty,url"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// ImageOptions selects the output of a stored code re-render.
type ImageOptions struct {
	Format string
	SizePx int
}

// QRCodeDTO is the API shape of a saved code.
type QRCodeDTO struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	ContentType    enums.QRContentType `json:"content_type"`
	Content        json.RawMessage     `json:"content"`
	Encoded        string              `json:"encoded"`
	Style          json.RawMessage     `json:"style"`
	IsDynamic      bool                `json:"is_dynamic"`
	ShortCode      *string             `json:"short_code,omitempty"`
	RedirectURL    *string             `json:"redirect_url,omitempty"`
	DestinationURL *string             `json:"destination_url,omitempty"`
	IsActive       bool                `json:"is_active"`
	ScanCount      int64               `json:"scan_count"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ListResult is one page of codes.
type ListResult struct {
	Items      []QRCodeDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// ToDTO maps a model; baseURL builds the redirect URL of dynamic codes.
func ToDTO(code *models.QRCode, baseURL string) QRCodeDTO {
	dto := QRCodeDTO{
		ID:             code.ID,
		Name:           code.Name,
		ContentType:    code.ContentType,
		Content:        code.Content,
		Encoded:        code.Encoded,
		Style:          code.Style,
		IsDynamic:      code.IsDynamic,
		ShortCode:      code.ShortCode,
		DestinationURL: code.DestinationURL,
		IsActive:       code.IsActive,
		ScanCount:      code.ScanCount,
		CreatedAt:      code.CreatedAt,
		UpdatedAt:      code.UpdatedAt,
	}
	if code.IsDynamic && code.ShortCode != nil {
		redirect := RedirectURL(baseURL, *code.ShortCode)
		dto.RedirectURL = &redirect
	}
	return dto
}
