package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/voicescribe/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it globally.
// The returned provider should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider. Instruments created
// before a provider is installed are forwarded to it once it is.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the voice pipeline instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	messages     metric.Int64Counter
	active       metric.Int64UpDownCounter
	stepDuration metric.Float64Histogram
	stepErrors   metric.Int64Counter
	dropped      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	messages, err := meter.Int64Counter("voice.messages",
		metric.WithDescription("Voice messages handled, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating voice.messages counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("voice.active",
		metric.WithDescription("Pipeline invocations currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating voice.active gauge: %w", err)
	}

	stepDuration, err := meter.Float64Histogram("voice.step.duration",
		metric.WithDescription("Duration of pipeline steps in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating voice.step.duration histogram: %w", err)
	}

	stepErrors, err := meter.Int64Counter("voice.step.errors",
		metric.WithDescription("Failed pipeline steps, by step and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating voice.step.errors counter: %w", err)
	}

	dropped, err := meter.Int64Counter("voice.dropped",
		metric.WithDescription("Messages dropped because no pipeline slot was free"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating voice.dropped counter: %w", err)
	}

	return &Metrics{
		messages:     messages,
		active:       active,
		stepDuration: stepDuration,
		stepErrors:   stepErrors,
		dropped:      dropped,
	}, nil
}

// InvocationStarted increments the active invocation count.
func (m *Metrics) InvocationStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.active.Add(ctx, 1)
}

// InvocationFinished decrements the active count and counts the outcome.
func (m *Metrics) InvocationFinished(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.active.Add(ctx, -1)
	m.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordStep records the duration of one pipeline step.
func (m *Metrics) RecordStep(ctx context.Context, step, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	))
}

// RecordStepError counts a failed step.
func (m *Metrics) RecordStepError(ctx context.Context, step, code string) {
	if m == nil {
		return
	}
	m.stepErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("code", code),
	))
}

// RecordDropped counts a message that never got a pipeline slot.
func (m *Metrics) RecordDropped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
