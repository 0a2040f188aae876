package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartRunSpan starts the root span of a benchmark run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, mode, corpus string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "codecbench "+mode,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("codecbench.mode", mode),
		attribute.String("codecbench.corpus", corpus),
	)
	return ctx, span
}

// StartPassSpan starts a span covering one implementation's pass over the corpus.
func StartPassSpan(ctx context.Context, tracer trace.Tracer, implementation string, files int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "pass "+implementation,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("codecbench.implementation", implementation),
		attribute.Int("codecbench.files", files),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
