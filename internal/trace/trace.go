// Package trace owns the OpenTelemetry bootstrap. Spans go to stdout (or a
// file via TRACE_OUTPUT_FILE) so unattended runs can be replayed offline.
package trace

import (
	"context"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ai-scalper"

var (
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	closer   io.Closer
	enabled  bool
)

// Init wires the global tracer provider. Tracing is on unless
// LOG_TRACING_ENABLED=false; TRACE_SAMPLE_RATIO below 1.0 downsamples.
func Init() error {
	if v := os.Getenv("LOG_TRACING_ENABLED"); v == "false" {
		enabled = false
		return nil
	}
	enabled = true

	out := os.Stdout
	if path := os.Getenv("TRACE_OUTPUT_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		out = f
		closer = f
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return err
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFromEnv()),
	)
	otel.SetTracerProvider(provider)
	tracer = otel.Tracer(serviceName)
	return nil
}

func samplerFromEnv() sdktrace.Sampler {
	ratio, err := strconv.ParseFloat(os.Getenv("TRACE_SAMPLE_RATIO"), 64)
	if err != nil || ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(ratio)
}

// Shutdown flushes pending spans. Safe to call when tracing is disabled.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	if closer != nil {
		_ = closer.Close()
	}
	return err
}

// StartSpan opens a span, or hands back the ambient span when tracing is
// off so call sites never need to branch.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

func Enabled() bool { return enabled }
