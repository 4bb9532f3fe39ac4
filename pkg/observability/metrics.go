package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "arbor"

// Metrics holds the session collectors.
type Metrics struct {
	Actions     *prometheus.CounterVec
	Zooms       *prometheus.CounterVec
	Scale       prometheus.Histogram
	Exports     *prometheus.CounterVec
	ExportBytes *prometheus.HistogramVec
	Validations *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "palette_actions_total",
			Help:      "Palette gestures dispatched, by action and outcome.",
		}, []string{"action", "gesture", "outcome"}),
		Zooms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "zoom_changes_total",
			Help:      "Zoom changes, by whether the floor clamped the result.",
		}, []string{"clamped"}),
		Scale: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "zoom_scale",
			Help:      "Canvas scale after each zoom change.",
			Buckets:   []float64{0.2, 0.5, 0.8, 1, 1.5, 2, 4},
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "exports_total",
			Help:      "Export attempts, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ExportBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "export_bytes",
			Help:      "Size of successful exports.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"kind"}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validations_total",
			Help:      "Save-time structural checks, by result.",
		}, []string{"result"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Actions, m.Zooms, m.Scale, m.Exports, m.ExportBytes, m.Validations)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Hooks returns lifecycle hooks that record metrics and log each event.
// logger may be nil.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(e.ActionID, string(e.Gesture), outcome(e.Err)).Inc()
			if logger != nil {
				logger.DebugContext(ctx, "palette_action", "session_id", e.SessionID, "action", e.ActionID, "gesture", e.Gesture, "err", e.Err)
			}
		},
		OnZoom: func(ctx context.Context, e *domain.ZoomEvent) {
			clamped := "false"
			if e.Clamped {
				clamped = "true"
			}
			m.Zooms.WithLabelValues(clamped).Inc()
			m.Scale.Observe(e.Scale)
			if logger != nil {
				logger.DebugContext(ctx, "zoom", "session_id", e.SessionID, "previous", e.Previous, "scale", e.Scale)
			}
		},
		OnExport: func(ctx context.Context, e *domain.ExportEvent) {
			m.Exports.WithLabelValues(string(e.Kind), outcome(e.Err)).Inc()
			if e.Err == nil {
				m.ExportBytes.WithLabelValues(string(e.Kind)).Observe(float64(e.Bytes))
			}
			if logger != nil {
				logger.InfoContext(ctx, "export", "session_id", e.SessionID, "kind", e.Kind, "filename", e.Filename, "bytes", e.Bytes, "err", e.Err)
			}
		},
		OnValidate: func(ctx context.Context, e *domain.ValidateEvent) {
			result := "valid"
			switch {
			case e.Err != nil:
				result = "parse_failure"
			case !e.Report.IsValid():
				result = "invalid"
			}
			m.Validations.WithLabelValues(result).Inc()
			if logger != nil {
				logger.InfoContext(ctx, "validate", "session_id", e.SessionID, "result", result)
			}
		},
	}
}

// Combine fans each event out to every non-nil hook in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnAction != nil {
					h.OnAction(ctx, e)
				}
			}
		},
		OnZoom: func(ctx context.Context, e *domain.ZoomEvent) {
			for _, h := range hooks {
				if h.OnZoom != nil {
					h.OnZoom(ctx, e)
				}
			}
		},
		OnExport: func(ctx context.Context, e *domain.ExportEvent) {
			for _, h := range hooks {
				if h.OnExport != nil {
					h.OnExport(ctx, e)
				}
			}
		},
		OnValidate: func(ctx context.Context, e *domain.ValidateEvent) {
			for _, h := range hooks {
				if h.OnValidate != nil {
					h.OnValidate(ctx, e)
				}
			}
		},
	}
}
