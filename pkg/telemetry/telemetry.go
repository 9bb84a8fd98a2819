// Package telemetry, OTLP/HTTP trace exporter'ı global TracerProvider olarak kurar.
package telemetry

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc, bekleyen span'leri gönderir ve exporter'ı kapatır.
type ShutdownFunc func(ctx context.Context) error

// Setup, endpoint verilmişse batch exporter'lı bir TracerProvider kurar.
// Endpoint boşsa otel'in no-op provider'ı yerinde kalır.
func Setup(ctx context.Context, endpoint, serviceName string) (ShutdownFunc, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	log.Printf("[telemetry] exporting traces to %s", endpoint)

	return tp.Shutdown, nil
}
