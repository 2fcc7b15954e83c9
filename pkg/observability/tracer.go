// Package observability provides OpenTelemetry tracing and Prometheus metrics for kvbench.
package observability

import (
	"context"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/justjake/kvbench/pkg/bench"
	"github.com/justjake/kvbench/pkg/config"
)

// TracerProvider exports suite and case spans. A nil *TracerProvider is
// valid and hands out no-op tracers.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// NewTracerProvider creates a TracerProvider from cfg and installs it as the
// global provider. It returns nil when tracing is not enabled.
func NewTracerProvider(ctx context.Context, cfg *config.OpenTelemetryConfig, version string) (*TracerProvider, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := newResource(ctx, cfg, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		// Spans end between cases, never inside a timed invocation.
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.GetSamplingRate())),
	)
	otel.SetTracerProvider(provider)

	return &TracerProvider{provider: provider}, nil
}

// newExporter returns an OTLP exporter for the configured protocol. An empty
// endpoint leaves the exporter to OTEL_EXPORTER_OTLP_ENDPOINT.
func newExporter(ctx context.Context, cfg *config.OpenTelemetryConfig) (sdktrace.SpanExporter, error) {
	switch cfg.GetOTLPProtocol() {
	case "grpc":
		var opts []otlptracegrpc.Option
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		var opts []otlptracehttp.Option
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", cfg.GetOTLPProtocol())
	}
}

// newResource describes the benchmark process: service, Go runtime and host.
func newResource(ctx context.Context, cfg *config.OpenTelemetryConfig, version string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.GetServiceName()),
		semconv.ServiceVersion(version),
		semconv.ProcessRuntimeName("go"),
		semconv.ProcessRuntimeVersion(runtime.Version()),
		semconv.HostArchKey.String(runtime.GOARCH),
		semconv.OSTypeKey.String(runtime.GOOS),
	}
	for k, v := range cfg.ExtraAttributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.New(ctx,
		resource.WithHost(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
	)
}

// newSampler maps a sampling rate in [0, 1] to a sampler.
func newSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Tracer returns a tracer with the given name.
func (tp *TracerProvider) Tracer(name string) trace.Tracer {
	if tp == nil || tp.provider == nil {
		return otel.Tracer(name) // Returns a no-op tracer
	}
	return tp.provider.Tracer(name)
}

// Shutdown flushes pending spans and shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// Enabled returns true if tracing is enabled.
func (tp *TracerProvider) Enabled() bool {
	return tp != nil && tp.provider != nil
}

// Span attribute keys used by the suite.
const (
	AttrCase       = "kvbench.case"
	AttrGroup      = "kvbench.group"
	AttrContainer  = "kvbench.container"
	AttrSize       = "kvbench.size"
	AttrIterations = "kvbench.iterations"
	AttrMinNs      = "kvbench.min_ns"
	AttrAvgNs      = "kvbench.avg_ns"
	AttrMaxNs      = "kvbench.max_ns"
	AttrErrorType  = "kvbench.error_type"
)

// ResultAttributes returns span attributes for a completed run.
func ResultAttributes(r bench.Result) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrMinNs, r.Min.Nanoseconds()),
		attribute.Int64(AttrAvgNs, r.Avg.Nanoseconds()),
		attribute.Int64(AttrMaxNs, r.Max.Nanoseconds()),
	}
}

// EndSpan records the outcome of a run on span and ends it.
func EndSpan(span trace.Span, res bench.Result, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorType, ErrorType(err)))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(ResultAttributes(res)...)
	}
	span.End()
}
