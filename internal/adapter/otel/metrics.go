package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "chatgpt"

// Metrics holds all chat service metric instruments.
type Metrics struct {
	GenerationsStarted   metric.Int64Counter
	GenerationsCompleted metric.Int64Counter
	GenerationsFailed    metric.Int64Counter
	GenerationsCancelled metric.Int64Counter
	TokensUsed           metric.Int64Counter
	GenerationDuration   metric.Float64Histogram
	GenerationCost       metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.GenerationsStarted, err = meter.Int64Counter("chatgpt.generations.started",
		metric.WithDescription("Number of generations started"))
	if err != nil {
		return nil, err
	}

	m.GenerationsCompleted, err = meter.Int64Counter("chatgpt.generations.completed",
		metric.WithDescription("Number of generations completed"))
	if err != nil {
		return nil, err
	}

	m.GenerationsFailed, err = meter.Int64Counter("chatgpt.generations.failed",
		metric.WithDescription("Number of generations failed"))
	if err != nil {
		return nil, err
	}

	m.GenerationsCancelled, err = meter.Int64Counter("chatgpt.generations.cancelled",
		metric.WithDescription("Number of generations stopped by the user"))
	if err != nil {
		return nil, err
	}

	m.TokensUsed, err = meter.Int64Counter("chatgpt.tokens.used",
		metric.WithDescription("Total tokens consumed across generations"))
	if err != nil {
		return nil, err
	}

	m.GenerationDuration, err = meter.Float64Histogram("chatgpt.generation.duration_seconds",
		metric.WithDescription("Generation duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.GenerationCost, err = meter.Float64Histogram("chatgpt.generation.cost_usd",
		metric.WithDescription("Estimated generation cost in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
