package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for invoicekit.
type Metrics struct {
	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	documentsCreated *prometheus.CounterVec
	linesAdded       *prometheus.CounterVec
	lineAmount       *prometheus.HistogramVec
	operationErrors  *prometheus.CounterVec
	renders          *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec
}

// NewMetrics registers invoicekit metrics on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicekit_api_requests_total",
		Help: "Counts API requests by method, route and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicekit_api_duration_seconds",
		Help:    "API request latency per method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	documentsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicekit_documents_created_total",
		Help: "Documents created by kind.",
	}, []string{"kind"})

	linesAdded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicekit_lines_added_total",
		Help: "Line items appended by kind, tax mode and classification.",
	}, []string{"kind", "mode", "class"})

	lineAmount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicekit_line_amount_minor_units",
		Help:    "Absolute tax-inclusive line amount distribution in minor units.",
		Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
	}, []string{"kind"})

	operationErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicekit_document_operation_errors_total",
		Help: "Document service failures by operation and error class.",
	}, []string{"kind", "operation", "class"})

	renders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicekit_renders_total",
		Help: "Document renders by output format and status.",
	}, []string{"kind", "format", "status"})

	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicekit_render_duration_seconds",
		Help:    "Document render latency by output format.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"format"})

	reg.MustRegister(
		apiRequests,
		apiDuration,
		documentsCreated,
		linesAdded,
		lineAmount,
		operationErrors,
		renders,
		renderDuration,
	)

	return &Metrics{
		apiRequests:      apiRequests,
		apiDuration:      apiDuration,
		documentsCreated: documentsCreated,
		linesAdded:       linesAdded,
		lineAmount:       lineAmount,
		operationErrors:  operationErrors,
		renders:          renders,
		renderDuration:   renderDuration,
	}
}

// ObserveAPIRequest records an API request and latency.
func (m *Metrics) ObserveAPIRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	methodLabel := sanitizeLabel(method)
	routeLabel := sanitizeLabel(route)
	m.apiRequests.WithLabelValues(methodLabel, routeLabel, status).Inc()
	m.apiDuration.WithLabelValues(methodLabel, routeLabel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveDocumentCreated(kind string) {
	if m == nil {
		return
	}
	m.documentsCreated.WithLabelValues(sanitizeLabel(kind)).Inc()
}

// ObserveLineAdded counts one appended line and its absolute amount.
func (m *Metrics) ObserveLineAdded(kind, mode, class string, amount int64) {
	if m == nil {
		return
	}
	kindLabel := sanitizeLabel(kind)
	m.linesAdded.WithLabelValues(kindLabel, sanitizeLabel(mode), sanitizeLabel(class)).Inc()
	if amount < 0 {
		amount = -amount
	}
	m.lineAmount.WithLabelValues(kindLabel).Observe(float64(amount))
}

func (m *Metrics) ObserveOperationError(kind, operation, class string) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(sanitizeLabel(kind), sanitizeLabel(operation), sanitizeLabel(class)).Inc()
}

// ObserveRender records a render attempt; status is "success" or "error".
func (m *Metrics) ObserveRender(kind, format, status string, duration time.Duration) {
	if m == nil {
		return
	}
	formatLabel := sanitizeLabel(format)
	m.renders.WithLabelValues(sanitizeLabel(kind), formatLabel, status).Inc()
	m.renderDuration.WithLabelValues(formatLabel).Observe(duration.Seconds())
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
