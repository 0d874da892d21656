// Package qrcodes renders one-off QR images and manages saved static and
// dynamic codes.
package qrcodes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrgenpro/qrgen-backend/internal/qrcontent"
	"github.com/qrgenpro/qrgen-backend/internal/qrrender"
	"github.com/qrgenpro/qrgen-backend/internal/usage"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
	"github.com/qrgenpro/qrgen-backend/pkg/db"
	"github.com/qrgenpro/qrgen-backend/pkg/db/models"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/events"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
	"github.com/qrgenpro/qrgen-backend/pkg/pagination"
)

type renderer interface {
	Generate(ctx context.Context, req qrrender.Request) (*qrrender.Result, error)
}

// Service defines the QR code surface.
type Service interface {
	Generate(ctx context.Context, userID uuid.UUID, input GenerateInput) (*qrrender.Result, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.QRCode, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.QRCode, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*models.QRCode, error)
	Deactivate(ctx context.Context, userID, id uuid.UUID) (*models.QRCode, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Image(ctx context.Context, userID, id uuid.UUID, opts ImageOptions) (*qrrender.Result, error)
	Resolve(ctx context.Context, shortCode string) (*models.QRCode, error)
	BaseURL() string
}

// ServiceParams groups dependencies for the QR code service.
type ServiceParams struct {
	Repo          Repository
	Renderer      renderer
	Gate          usage.Gate
	Tracker       usage.Tracker
	Subscriptions usage.SubscriptionReader
	Render        config.RenderConfig
	PublicBaseURL string
	Logger        *logger.Logger
	ShortCodes    func() (string, error)
	Events        events.Publisher
}

type service struct {
	repo       Repository
	renderer   renderer
	gate       usage.Gate
	tracker    usage.Tracker
	subs       usage.SubscriptionReader
	render     config.RenderConfig
	baseURL    string
	logg       *logger.Logger
	shortCodes func() (string, error)
	events     events.Publisher
}

// NewService builds the QR code service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("qr code repo required")
	case params.Renderer == nil:
		return nil, fmt.Errorf("renderer required")
	case params.Gate == nil:
		return nil, fmt.Errorf("usage gate required")
	case params.Tracker == nil:
		return nil, fmt.Errorf("usage tracker required")
	case params.Subscriptions == nil:
		return nil, fmt.Errorf("subscription reader required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Render.DefaultSizePx <= 0 || params.Render.MaxSizePx < params.Render.DefaultSizePx:
		return nil, fmt.Errorf("invalid render sizes")
	}
	base := strings.TrimRight(strings.TrimSpace(params.PublicBaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("public base url must be absolute: %q", params.PublicBaseURL)
	}
	shortCodes := params.ShortCodes
	if shortCodes == nil {
		shortCodes = NewShortCode
	}
	publisher := params.Events
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &service{
		repo:       params.Repo,
		renderer:   params.Renderer,
		gate:       params.Gate,
		tracker:    params.Tracker,
		subs:       params.Subscriptions,
		render:     params.Render,
		baseURL:    base,
		logg:       params.Logger,
		shortCodes: shortCodes,
		events:     publisher,
	}, nil
}

// RedirectURL is the URL a dynamic code encodes.
func RedirectURL(baseURL, shortCode string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + shortCode
}

func (s *service) BaseURL() string {
	return s.baseURL
}

// Generate renders without saving. It counts as a generated code.
func (s *service) Generate(ctx context.Context, userID uuid.UUID, input GenerateInput) (*qrrender.Result, error) {
	payload, err := decodePayload(input.ContentType, input.Content)
	if err != nil {
		return nil, err
	}
	style, err := s.resolveStyle(input.Style)
	if err != nil {
		return nil, err
	}
	if len(input.Logo) > s.render.MaxLogoBytes() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logo is too large").
			WithDetails(map[string]any{"max_bytes": s.render.MaxLogoBytes()})
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return nil, err
	}

	actions := []enums.UsageAction{enums.UsageActionQRGenerated}
	if len(input.Logo) > 0 {
		actions = append(actions, enums.UsageActionLogoUpload)
	}
	if err := s.require(ctx, userID, actions...); err != nil {
		return nil, err
	}
	watermark, err := s.exportRules(ctx, userID, format)
	if err != nil {
		return nil, err
	}

	result, err := s.renderer.Generate(ctx, qrrender.Request{
		Payload:   payload,
		Style:     style,
		Logo:      input.Logo,
		Format:    format,
		Watermark: watermark,
	})
	if err != nil {
		return nil, qrrender.AsAPIError(err)
	}
	s.track(ctx, userID, actions...)
	return result, nil
}

// Create validates, renders once to prove the content is encodable, and saves
// the code. Dynamic codes get a fresh short code; collisions are retried.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.QRCode, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	payload, err := decodePayload(input.ContentType, input.Content)
	if err != nil {
		return nil, err
	}
	style, err := s.resolveStyle(input.Style)
	if err != nil {
		return nil, err
	}

	var destination *string
	actions := []enums.UsageAction{enums.UsageActionQRGenerated}
	if input.Dynamic {
		target, ok := payload.(qrcontent.URL)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "dynamic codes require URL content")
		}
		if err := validateDestination(target.URL); err != nil {
			return nil, err
		}
		destination = &target.URL
		actions = append(actions, enums.UsageActionDynamicQR)
	}
	if err := s.require(ctx, userID, actions...); err != nil {
		return nil, err
	}

	content, err := qrcontent.Encode(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode content")
	}
	styleJSON, err := json.Marshal(qrrender.SpecFor(style))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode style")
	}

	code := &models.QRCode{
		UserID:         userID,
		Name:           name,
		ContentType:    payload.Type(),
		Content:        content,
		Style:          styleJSON,
		IsDynamic:      input.Dynamic,
		DestinationURL: destination,
		IsActive:       true,
	}

	for attempt := 1; ; attempt++ {
		encodedPayload := payload
		if input.Dynamic {
			short, err := s.shortCodes()
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate short code")
			}
			code.ID = uuid.Nil
			code.ShortCode = &short
			encodedPayload = qrcontent.URL{URL: RedirectURL(s.baseURL, short)}
		}
		// the render is discarded; it proves the symbol fits before saving
		result, err := s.renderer.Generate(ctx, qrrender.Request{Payload: encodedPayload, Style: style})
		if err != nil {
			return nil, qrrender.AsAPIError(err)
		}
		code.Encoded = result.Encoded

		err = s.repo.Create(ctx, code)
		if err == nil {
			break
		}
		if input.Dynamic && db.IsUniqueViolation(err, "") && attempt < shortCodeAttempts {
			continue
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "short code collision")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create qr code")
	}

	s.track(ctx, userID, actions...)
	s.publishLifecycle(ctx, enums.AnalyticsEventQRCreated, code, style.ModuleStyle)
	return code, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	codes, next, err := s.repo.List(ctx, ListQuery{UserID: userID, Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list qr codes")
	}
	out := &ListResult{Items: make([]QRCodeDTO, 0, len(codes))}
	for i := range codes {
		out.Items = append(out.Items, ToDTO(&codes[i], s.baseURL))
	}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.QRCode, error) {
	code, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load qr code")
	}
	if code == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}
	return code, nil
}

// Update renames a code, toggles it, or retargets a dynamic code. Reactivating
// a dynamic code is checked against the dynamic quota.
func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*models.QRCode, error) {
	code, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		code.Name = name
	}
	if input.DestinationURL != nil {
		if !code.IsDynamic {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only dynamic codes can change destination")
		}
		if err := validateDestination(*input.DestinationURL); err != nil {
			return nil, err
		}
		destination := strings.TrimSpace(*input.DestinationURL)
		content, err := qrcontent.Encode(qrcontent.URL{URL: destination})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode content")
		}
		code.DestinationURL = &destination
		code.Content = content
	}
	deactivated := false
	if input.IsActive != nil && *input.IsActive != code.IsActive {
		deactivated = !*input.IsActive
		if *input.IsActive && code.IsDynamic {
			if err := s.require(ctx, userID, enums.UsageActionDynamicQR); err != nil {
				return nil, err
			}
		}
		code.IsActive = *input.IsActive
	}
	if err := s.repo.Save(ctx, code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update qr code")
	}
	if deactivated {
		s.publishLifecycle(ctx, enums.AnalyticsEventQRDeactivated, code, storedStyle(code))
	}
	return code, nil
}

func (s *service) Deactivate(ctx context.Context, userID, id uuid.UUID) (*models.QRCode, error) {
	inactive := false
	return s.Update(ctx, userID, id, UpdateInput{IsActive: &inactive})
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete qr code")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}
	return nil
}

// Image re-renders a saved code. It does not count against the generation quota.
func (s *service) Image(ctx context.Context, userID, id uuid.UUID, opts ImageOptions) (*qrrender.Result, error) {
	code, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var spec qrrender.StyleSpec
	if len(code.Style) > 0 {
		if err := json.Unmarshal(code.Style, &spec); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored style")
		}
	}
	if opts.SizePx > 0 {
		spec.SizePx = opts.SizePx
	}
	style, err := s.resolveStyle(spec)
	if err != nil {
		return nil, err
	}

	var payload qrcontent.Payload
	if code.IsDynamic && code.ShortCode != nil {
		payload = qrcontent.URL{URL: RedirectURL(s.baseURL, *code.ShortCode)}
	} else {
		payload, err = qrcontent.Decode(code.ContentType, code.Content)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored content")
		}
	}

	watermark, err := s.exportRules(ctx, userID, format)
	if err != nil {
		return nil, err
	}
	result, err := s.renderer.Generate(ctx, qrrender.Request{
		Payload:   payload,
		Style:     style,
		Format:    format,
		Watermark: watermark,
	})
	if err != nil {
		return nil, qrrender.AsAPIError(err)
	}
	return result, nil
}

// Resolve finds the active dynamic code behind a short code.
func (s *service) Resolve(ctx context.Context, shortCode string) (*models.QRCode, error) {
	if !IsShortCode(shortCode) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}
	code, err := s.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve short code")
	}
	if code == nil || !code.IsActive || !code.IsDynamic || code.DestinationURL == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}
	return code, nil
}

// require checks every action against the gate and returns the first denial.
func (s *service) require(ctx context.Context, userID uuid.UUID, actions ...enums.UsageAction) error {
	for _, action := range actions {
		decision, err := s.gate.CanPerform(ctx, userID, action)
		if err != nil {
			return err
		}
		if err := decision.Err(); err != nil {
			return err
		}
	}
	return nil
}

// track records completed actions. A failed increment is logged rather than
// failing a request whose work is already done.
func (s *service) track(ctx context.Context, userID uuid.UUID, actions ...enums.UsageAction) {
	for _, action := range actions {
		if err := s.tracker.Track(ctx, userID, action); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "action": string(action)})
			s.logg.Error(logCtx, "usage.track_failed", err)
		}
	}
}

// publishLifecycle emits an analytics event. Delivery is best effort.
func (s *service) publishLifecycle(ctx context.Context, eventType enums.AnalyticsEventType, code *models.QRCode, style enums.ModuleStyle) {
	payload := events.QRCodeLifecycleEvent{
		QRCodeID:    code.ID,
		OwnerID:     code.UserID,
		ContentType: code.ContentType,
		Style:       style,
		IsDynamic:   code.IsDynamic,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, eventType, code.ID, payload); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"qr_code_id": code.ID.String(), "event_type": string(eventType)})
		s.logg.Error(logCtx, "events.publish_failed", err)
	}
}

func storedStyle(code *models.QRCode) enums.ModuleStyle {
	var spec qrrender.StyleSpec
	if err := json.Unmarshal(code.Style, &spec); err != nil {
		return ""
	}
	return enums.ModuleStyle(spec.ModuleStyle)
}

// exportRules checks the format against the plan and reports whether the
// watermark applies.
func (s *service) exportRules(ctx context.Context, userID uuid.UUID, format enums.ExportFormat) (bool, error) {
	info, err := s.subs.GetInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	if !info.Limits.AllowsFormat(format) {
		return false, pkgerrors.New(pkgerrors.CodeUpgrade, fmt.Sprintf("%s export is not available on the %s plan", format, info.Tier)).
			WithDetails(map[string]any{
				"reason":           "format not included in plan",
				"upgrade_required": true,
				"allowed_formats":  info.Limits.ExportFormats,
			})
	}
	return info.Limits.WatermarkRequired, nil
}

func (s *service) resolveStyle(spec qrrender.StyleSpec) (qrrender.Style, error) {
	if spec.SizePx > s.render.MaxSizePx {
		return qrrender.Style{}, pkgerrors.New(pkgerrors.CodeValidation, "size exceeds the maximum").
			WithDetails(map[string]any{"max_size_px": s.render.MaxSizePx})
	}
	style, err := spec.Resolve(s.render.DefaultSizePx)
	if err != nil {
		return qrrender.Style{}, qrrender.AsAPIError(err)
	}
	return style, nil
}

func decodePayload(contentType enums.QRContentType, raw json.RawMessage) (qrcontent.Payload, error) {
	parsed, err := enums.ParseQRContentType(string(contentType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported content type")
	}
	payload, err := qrcontent.Decode(parsed, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content").
			WithDetails(map[string]any{"error": err.Error()})
	}
	return payload, nil
}

func parseFormat(raw string) (enums.ExportFormat, error) {
	if strings.TrimSpace(raw) == "" {
		return enums.ExportFormatPNG, nil
	}
	format, err := enums.ParseExportFormat(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported export format")
	}
	return format, nil
}

func validateDestination(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "destination must be an absolute http(s) url")
	}
	return nil
}
