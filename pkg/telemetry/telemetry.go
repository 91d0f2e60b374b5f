// Package telemetry sets up the OpenTelemetry SDK and helpers around it.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config defines the information needed to init tracing.
type Config struct {
	ServiceName string
	//Host is the otel collector address, empty means a noop provider.
	Host string
	//ExcludedRoutes are routes that should never be sampled, like health checks.
	ExcludedRoutes map[string]struct{}
	//Probability is the sampling rate between 0.0 and 1.0 for everything else.
	Probability float64
}

// SetupOTelSDK configures the global tracer provider and returns a teardown
// func that flushes pending spans.
func SetupOTelSDK(cfg Config) (func(ctx context.Context), error) {
	teardown := func(ctx context.Context) {}

	var provider trace.TracerProvider

	switch cfg.Host {
	case "":
		//no collector configured, spans are discarded. Used by tests.
		provider = noop.NewTracerProvider()

	default:
		exporter, err := otlptrace.New(
			context.Background(),
			otlptracegrpc.NewClient(
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithEndpoint(cfg.Host),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("creating new exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.ParentBased(newEndpointExcluder(cfg.ExcludedRoutes, cfg.Probability))),
			sdktrace.WithBatcher(
				exporter,
				sdktrace.WithMaxExportBatchSize(sdktrace.DefaultMaxExportBatchSize),
				sdktrace.WithBatchTimeout(sdktrace.DefaultScheduleDelay*time.Millisecond),
			),
			sdktrace.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String(cfg.ServiceName),
			)),
		)

		teardown = func(ctx context.Context) {
			tp.Shutdown(ctx)
		}

		provider = tp
	}

	otel.SetTracerProvider(provider)

	//TraceContext carries trace information between services, Baggage carries
	//custom key-value metadata alongside it.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return teardown, nil
}

// ==============================================================================
func AddSpan(ctx context.Context, spanName string, keyvalues ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer, ok := ctx.Value(tracerKey).(trace.Tracer)
	if !ok || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := tracer.Start(ctx, spanName)
	span.SetAttributes(keyvalues...)

	return ctx, span
}

//==============================================================================
//Custom Sampler

type endpointExcluder struct {
	endpoints   map[string]struct{}
	probability float64
}

func newEndpointExcluder(endpoints map[string]struct{}, probability float64) endpointExcluder {
	return endpointExcluder{
		endpoints:   endpoints,
		probability: probability,
	}
}

func endpoint(parameters sdktrace.SamplingParameters) string {
	var path, query string

	for _, attr := range parameters.Attributes {
		switch attr.Key {
		case "url.path":
			path = attr.Value.AsString()
		case "url.query":
			query = attr.Value.AsString()
		}
	}

	switch {
	case path == "":
		return ""

	case query == "":
		return path

	default:
		return fmt.Sprintf("%s?%s", path, query)
	}
}

// ShouldSample implements the sampler interface. It prevents the specified
// endpoints from being added to the trace.
func (ee endpointExcluder) ShouldSample(parameters sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if ep := endpoint(parameters); ep != "" {
		if _, exists := ee.endpoints[ep]; exists {
			return sdktrace.SamplingResult{Decision: sdktrace.Drop}
		}
	}

	return sdktrace.TraceIDRatioBased(ee.probability).ShouldSample(parameters)
}

// Description implements the sampler interface.
func (endpointExcluder) Description() string {
	return "customSampler"
}
