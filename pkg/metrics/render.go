package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RenderMetrics records QR rendering latency and failures.
type RenderMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewRenderMetrics registers the render metrics on the provided registerer.
func NewRenderMetrics(reg prometheus.Registerer) *RenderMetrics {
	if reg == nil {
		return &RenderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "qr",
		Name:      "render_duration_seconds",
		Help:      "Time spent rendering and encoding a QR image.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"style", "format"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "qr",
		Name:      "render_failures_total",
		Help:      "QR renders that returned an error.",
	}, []string{"reason"})
	reg.MustRegister(duration, failures)
	return &RenderMetrics{duration: duration, failures: failures}
}

// ObserveRender records one successful render.
func (r *RenderMetrics) ObserveRender(style, format string, duration time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.WithLabelValues(normalizeLabel(style), normalizeLabel(format)).Observe(duration.Seconds())
}

// IncFailure counts a failed render by reason.
func (r *RenderMetrics) IncFailure(reason string) {
	if r == nil || r.failures == nil {
		return
	}
	r.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// UsageMetrics counts usage gate decisions.
type UsageMetrics struct {
	denials *prometheus.CounterVec
	tracked *prometheus.CounterVec
}

// NewUsageMetrics registers the usage gate metrics on the provided registerer.
func NewUsageMetrics(reg prometheus.Registerer) *UsageMetrics {
	if reg == nil {
		return &UsageMetrics{}
	}
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "usage",
		Name:      "denials_total",
		Help:      "Usage gate denials by action and tier.",
	}, []string{"action", "tier"})
	tracked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "usage",
		Name:      "tracked_total",
		Help:      "Usage counter increments by action.",
	}, []string{"action"})
	reg.MustRegister(denials, tracked)
	return &UsageMetrics{denials: denials, tracked: tracked}
}

// IncDenied counts a denied action.
func (u *UsageMetrics) IncDenied(action, tier string) {
	if u == nil || u.denials == nil {
		return
	}
	u.denials.WithLabelValues(normalizeLabel(action), normalizeLabel(tier)).Inc()
}

// IncTracked counts a recorded action.
func (u *UsageMetrics) IncTracked(action string) {
	if u == nil || u.tracked == nil {
		return
	}
	u.tracked.WithLabelValues(normalizeLabel(action)).Inc()
}
