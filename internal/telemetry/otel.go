// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"onomast/internal/logger"
)

type Config struct {
	ServiceName string
	Environment string
	// Exporter is "" or "none" for no export, "stdout" for pretty-printed
	// spans on stdout.
	Exporter string
	Writer   io.Writer
}

// Init sets the global tracer provider and returns its shutdown func. With
// no exporter the provider still records spans, so span contexts propagate,
// but nothing leaves the process.
func Init(ctx context.Context, log *logger.Logger, cfg Config) (func(context.Context) error, error) {
	log = logger.OrNop(log)
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "onomast"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", name),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "", "none":
	case "stdout":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
	default:
		return nil, fmt.Errorf("telemetry: unknown exporter %q", cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("otel tracing initialized", "service", name, "exporter", cfg.Exporter)
	return tp.Shutdown, nil
}
