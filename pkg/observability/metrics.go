package observability

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of RPC requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yape_rpc_requests_total",
			Help: "Total number of RPC requests",
		},
		[]string{"procedure", "code"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yape_rpc_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"procedure"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "yape_rpc_active_requests",
			Help: "Number of active RPC requests",
		},
		[]string{"procedure"},
	)
)

// Statement pipeline counters.
var (
	RowsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statement_rows_loaded_total",
			Help: "Transactions kept after normalization",
		},
	)

	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_rows_dropped_total",
			Help: "Rows discarded during normalization",
		},
		[]string{"reason"},
	)

	AmountsMissing = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statement_amounts_missing_total",
			Help: "Amounts that could not be parsed and were kept as missing",
		},
	)

	LoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_load_failures_total",
			Help: "Statement loads aborted by a fatal error",
		},
		[]string{"reason"},
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_alerts_total",
			Help: "Alerts produced by the alert engine",
		},
		[]string{"kind"},
	)
)

// Drop and failure reasons.
const (
	ReasonBlankRow       = "blank_row"
	ReasonInvalidDate    = "invalid_date"
	ReasonUnreadable     = "unreadable"
	ReasonHeaderNotFound = "header_not_found"
	ReasonSchema         = "schema"
)

// NewMetricsInterceptor creates an interceptor that collects Prometheus metrics
func NewMetricsInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			ActiveRequests.WithLabelValues(procedure).Inc()
			defer ActiveRequests.WithLabelValues(procedure).Dec()

			start := time.Now()
			defer func() {
				RequestDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			}()

			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			RequestsTotal.WithLabelValues(procedure, code).Inc()

			return resp, err
		}
	}
}
