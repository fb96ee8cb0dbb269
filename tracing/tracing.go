// Package tracing wires up an OpenTelemetry tracer provider for
// qibus's proxy and server packages, grounded on
// Sentinel-Gate-Sentinelgate's otel setup (adapted from HTTP/gRPC
// middleware to a socket-level call/accept boundary).
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Configure installs an SDK tracer provider named serviceName as the
// global otel tracer provider, and returns a shutdown func. Callers
// that do not need real export (most tests, most embedders) can skip
// this entirely; the proxy/server packages fall back to otel's
// no-op tracer when no provider has been configured.
func Configure(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
