package qrrender

import (
	"context"
	"errors"
	"time"

	"github.com/qrgenpro/qrgen-backend/internal/qrcontent"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
	"github.com/qrgenpro/qrgen-backend/pkg/metrics"
)

// Request is one end-to-end rendering job.
type Request struct {
	Payload   qrcontent.Payload
	Style     Style
	Logo      []byte
	Format    enums.ExportFormat
	Watermark bool
}

// Result is the encoded image plus the string that was encoded.
type Result struct {
	Bytes       []byte
	MimeType    string
	Encoded     string
	Watermarked bool
}

// Generator chains formatting, rendering, logo compositing and conversion.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	logg    *logger.Logger
	metrics *metrics.RenderMetrics
	now     func() time.Time
}

// NewGenerator builds a Generator. Both arguments may be nil.
func NewGenerator(logg *logger.Logger, m *metrics.RenderMetrics) *Generator {
	return &Generator{logg: logg, metrics: m, now: time.Now}
}

// Generate renders req. Invalid style or format yields ErrConfig; content the
// encoder rejects yields ErrDecode.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := g.now()
	format := req.Format
	if format == "" {
		format = enums.ExportFormatPNG
	}

	encoded := qrcontent.Format(req.Payload)
	hasLogo := len(req.Logo) > 0

	img, err := Render(encoded, req.Style, hasLogo)
	if err != nil {
		g.fail(err)
		return nil, err
	}
	if hasLogo {
		img = Composite(ctx, g.logg, img, req.Logo, req.Style.LogoMask, req.Style.Background)
	}

	data, mime, err := Convert(img, format, req.Watermark)
	if err != nil {
		g.fail(err)
		return nil, err
	}

	g.metrics.ObserveRender(string(req.Style.ModuleStyle), string(format), g.now().Sub(start))
	return &Result{Bytes: data, MimeType: mime, Encoded: encoded, Watermarked: req.Watermark}, nil
}

func (g *Generator) fail(err error) {
	reason := "encode"
	switch {
	case errors.Is(err, ErrConfig):
		reason = "config"
	case errors.Is(err, ErrDecode):
		reason = "decode"
	}
	g.metrics.IncFailure(reason)
}
