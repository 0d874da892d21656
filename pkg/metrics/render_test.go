package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRenderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRenderMetrics(reg)

	m.ObserveRender("neon", "png", 40*time.Millisecond)
	m.IncFailure("decode")
	m.IncFailure("")

	hist := sample(t, reg, "qrgen_qr_render_duration_seconds", "style", "neon").GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.Greater(t, hist.GetSampleSum(), 0.0)
	assert.Equal(t, 1.0, sample(t, reg, "qrgen_qr_render_failures_total", "reason", "decode").GetCounter().GetValue())
	assert.Equal(t, 1.0, sample(t, reg, "qrgen_qr_render_failures_total", "reason", "unknown").GetCounter().GetValue())
}

func TestUsageMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUsageMetrics(reg)

	m.IncDenied("logo_upload", "FREE")
	m.IncTracked("qr_generated")
	m.IncTracked("qr_generated")

	assert.Equal(t, 1.0, sample(t, reg, "qrgen_usage_denials_total", "action", "logo_upload", "tier", "FREE").GetCounter().GetValue())
	assert.Equal(t, 2.0, sample(t, reg, "qrgen_usage_tracked_total", "action", "qr_generated").GetCounter().GetValue())
}

func TestRenderAndUsageMetricsWithoutRegistry(t *testing.T) {
	var r *RenderMetrics
	var u *UsageMetrics
	assert.NotPanics(t, func() {
		r.ObserveRender("square", "png", time.Millisecond)
		r.IncFailure("x")
		u.IncDenied("a", "b")
		u.IncTracked("a")
		NewRenderMetrics(nil).IncFailure("x")
		NewUsageMetrics(nil).IncTracked("a")
	})
}
