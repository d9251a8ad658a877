package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	routes      *prometheus.CounterVec
	toolRuns    *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec
	llmCalls    *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	marketRows  *prometheus.CounterVec
	marketErrs  *prometheus.CounterVec
	conversions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		routes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadvisor_routes_total",
				Help: "Queries routed per path and classification type",
			},
			[]string{"path", "query_type"},
		),
		toolRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadvisor_tool_runs_total",
				Help: "Tool executions by outcome",
			},
			[]string{"tool", "success"},
		),
		toolLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finadvisor_tool_duration_seconds",
				Help:    "Tool execution time",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		llmCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadvisor_llm_calls_total",
				Help: "Language model calls by purpose and outcome",
			},
			[]string{"purpose", "success"},
		),
		llmLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finadvisor_llm_duration_seconds",
				Help:    "Language model call time",
				Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"purpose"},
		),
		marketRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadvisor_market_rows_total",
				Help: "Market rows fetched per category",
			},
			[]string{"category"},
		),
		marketErrs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadvisor_market_fetch_errors_total",
				Help: "Failed market category fetches",
			},
			[]string{"category"},
		),
		conversions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadvisor_currency_conversions_total",
				Help: "Currency conversions by resolution path",
			},
			[]string{"path"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadvisor_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finadvisor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRoute(path, queryType string) {
	r.routes.WithLabelValues(path, queryType).Inc()
}

func (r *Recorder) RecordToolResult(tool string, success bool, seconds float64) {
	r.toolRuns.WithLabelValues(tool, strconv.FormatBool(success)).Inc()
	r.toolLatency.WithLabelValues(tool).Observe(seconds)
}

func (r *Recorder) RecordLLMCall(purpose string, success bool, seconds float64) {
	r.llmCalls.WithLabelValues(purpose, strconv.FormatBool(success)).Inc()
	r.llmLatency.WithLabelValues(purpose).Observe(seconds)
}

func (r *Recorder) RecordMarketFetch(category string, rows int, err error) {
	if err != nil {
		r.marketErrs.WithLabelValues(category).Inc()
		return
	}
	r.marketRows.WithLabelValues(category).Add(float64(rows))
}

func (r *Recorder) RecordConversion(path string) {
	r.conversions.WithLabelValues(path).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
