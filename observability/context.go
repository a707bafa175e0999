package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Step status values recorded on spans and metrics.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StepEnd finishes a step started by TrackStep. err may be nil.
type StepEnd func(err error)

// TrackStep starts a child span for a pipeline step and returns the function
// that ends it and records the step duration. m may be nil.
func TrackStep(ctx context.Context, m *Metrics, step string) (context.Context, StepEnd) {
	start := time.Now()
	ctx, span := StartSpan(ctx, SpanVoiceStep)
	span.SetAttributes(attribute.String(AttrStep, step))

	return ctx, func(err error) {
		d := time.Since(start)
		status := StatusOK
		if err != nil {
			status = StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.String(AttrStatus, status),
			attribute.Int64(AttrDurationMs, d.Milliseconds()),
		)
		span.End()
		m.RecordStep(ctx, step, status, d)
	}
}
