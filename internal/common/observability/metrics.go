package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OTel meter and tracer of one binary.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider shutdowner
	meter          otelmetric.Meter
	tracer         trace.Tracer
	requestCounter otelmetric.Int64Counter
	stepDuration   otelmetric.Float64Histogram
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// New registers a prometheus-backed meter provider. Failures leave the
// instruments nil, which turns recording into a no-op.
func New(serviceName string) (*Observability, error) {
	o := &Observability{tracer: otel.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		return o, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	o.meterProvider = provider
	o.meter = provider.Meter(serviceName)

	o.requestCounter, _ = o.meter.Int64Counter(
		"apply.requests",
		otelmetric.WithDescription("Number of handled apply requests"),
	)
	o.stepDuration, _ = o.meter.Float64Histogram(
		"apply.step.duration",
		otelmetric.WithDescription("Duration of submission steps"),
		otelmetric.WithUnit("ms"),
	)

	return o, nil
}

// NewNoop returns an instance whose recorders do nothing.
func NewNoop() *Observability {
	return &Observability{tracer: otel.Tracer("noop")}
}

func (o *Observability) RecordRequest(ctx context.Context, route, status string) {
	if o.requestCounter != nil {
		o.requestCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("route", route),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordStep(ctx context.Context, step string, duration time.Duration, ok bool) {
	if o.stepDuration != nil {
		o.stepDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("step", step),
			attribute.Bool("ok", ok),
		))
	}
}

// StartSpan starts a span on the binary's tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
