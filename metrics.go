package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/schema"
)

const (
	labelTool     = "tool"
	labelProvider = "provider"
	labelOutcome  = "outcome"
)

// Outcome label values.
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid_arguments"
	OutcomeToolError  = "tool_error"
	OutcomeCallFailed = "call_failed"
)

// Metrics holds the Prometheus collectors for tool invocations.
type Metrics struct {
	// InvocationsTotal counts invocations by tool, provider and outcome.
	InvocationsTotal *prometheus.CounterVec
	// InvocationDuration tracks how long invocations take, validation included.
	InvocationDuration *prometheus.HistogramVec
}

// NewMetrics creates the invocation collectors and registers them with reg.
// A nil reg registers with the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		InvocationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "utcp_adapter_tool_invocations_total",
			Help: "Total number of UTCP tool invocations by outcome",
		}, []string{labelTool, labelProvider, labelOutcome}),
		InvocationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "utcp_adapter_tool_invocation_duration_seconds",
			Help:    "Duration of UTCP tool invocations",
			Buckets: prometheus.DefBuckets,
		}, []string{labelTool, labelProvider}),
	}
}

func (m *Metrics) record(tool, provider string, d time.Duration, err error) {
	m.InvocationDuration.WithLabelValues(tool, provider).Observe(d.Seconds())
	m.InvocationsTotal.WithLabelValues(tool, provider, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	var invalid *schema.ValidationError
	var toolErr *InvocationError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &invalid):
		return OutcomeInvalid
	case errors.As(err, &toolErr):
		return OutcomeToolError
	default:
		return OutcomeCallFailed
	}
}

// instrumented decorates a Tool with invocation metrics.
type instrumented struct {
	Tool
	metrics *Metrics
}

// Instrument returns tool with its invocations recorded in m. A nil m returns tool unchanged.
func Instrument(tool Tool, m *Metrics) Tool {
	if m == nil {
		return tool
	}
	return &instrumented{Tool: tool, metrics: m}
}

func (t *instrumented) Invoke(ctx context.Context, args map[string]any) (string, error) {
	start := time.Now()
	out, err := t.Tool.Invoke(ctx, args)
	t.metrics.record(t.Name(), t.Metadata().Provider, time.Since(start), err)
	return out, err
}
