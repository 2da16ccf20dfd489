package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeExpired  = "expired"
	OutcomeRejected = "rejected"
)

// Metrics tracks flow operations and provider round trips.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FlowOperations          *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
}

// New registers the dcrclient metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FlowOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dcrclient_flow_operations_total",
			Help: "Total number of flow operations by flow, operation and outcome",
		}, []string{"flow", "operation", "outcome"}),
		ProviderRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dcrclient_provider_request_duration_seconds",
			Help:    "Duration of requests to the identity provider",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),
	}
}

// IncFlowOperation records one finished flow operation.
func (m *Metrics) IncFlowOperation(flow, operation, outcome string) {
	if m == nil {
		return
	}
	m.FlowOperations.WithLabelValues(flow, operation, outcome).Inc()
}

// ObserveProviderRequest records the duration of a provider request.
// Call with time.Now() taken before the request.
func (m *Metrics) ObserveProviderRequest(operation string, start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.ProviderRequestDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

// Outcome maps an error to OutcomeSuccess or OutcomeFailure.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
