package support

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

const honeycombEndpoint = "api.honeycomb.io:443"

func ConsoleExporter() (trace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func OTLPExporter(ctx context.Context, endpoint string) (trace.SpanExporter, error) {
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
}

func HoneycombExporter(ctx context.Context, team string, dataset string) (trace.SpanExporter, error) {
	if team == "" {
		return nil, errors.New("HONEYCOMB_TEAM is required for the honeycomb exporter")
	}

	client := otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(honeycombEndpoint),
		otlptracegrpc.WithHeaders(map[string]string{
			"x-honeycomb-team":    team,
			"x-honeycomb-dataset": dataset,
		}),
		otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")),
	)
	return otlptrace.New(ctx, client)
}

// StartTracing installs a global tracer provider for the configured exporter.
// The returned function flushes and shuts it down.
func StartTracing(ctx context.Context, cfg TelemetryConfig) (func(), error) {
	var exporter trace.SpanExporter
	var err error

	switch cfg.Exporter {
	case "none", "":
		return func() {}, nil
	case "console":
		exporter, err = ConsoleExporter()
	case "otlp":
		exporter, err = OTLPExporter(ctx, cfg.Endpoint)
	case "honeycomb":
		exporter, err = HoneycombExporter(ctx, cfg.HoneycombTeam, cfg.HoneycombDataset)
	default:
		return nil, errors.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trace exporter")
	}

	provider := trace.NewTracerProvider(trace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func() {
		_ = provider.Shutdown(context.Background())
	}, nil
}
