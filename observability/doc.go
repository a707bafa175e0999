// Package observability wires OpenTelemetry tracing and metrics.
//
// Export is optional. Spans and instruments are always created through the
// global providers, so code can call StartSpan and NewMetrics unconditionally;
// Component installs the OTLP providers only when enabled.
//
//	metrics, _ := observability.NewMetrics(observability.Meter("voicescribe"))
//	ctx, end := observability.TrackStep(ctx, metrics, "fetch")
//	err := fetch(ctx)
//	end(err)
package observability
