package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "chatgpt"

// StartGenerationSpan starts a span covering one provider generation.
func StartGenerationSpan(ctx context.Context, conversationID, modelID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "generation",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("model.id", modelID),
		),
	)
}

// StartDispatchSpan starts a span for the provider HTTP round trip.
func StartDispatchSpan(ctx context.Context, provider, modelID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("model.id", modelID),
		),
	)
}
