// Package tracing exports one span per benchmark run and one per
// implementation pass over OTLP.
package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/torosent/codecbench/internal/config"
)

const (
	instrumentationName = "github.com/torosent/codecbench"
	defaultServiceName  = "codecbench"
)

// Run identifies the benchmark run every exported span belongs to.
type Run struct {
	ID     string
	Mode   string
	Corpus string
	Seed   int64
}

func (r Run) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("codecbench.run_id", r.ID),
		attribute.String("codecbench.mode", r.Mode),
		attribute.String("codecbench.corpus", r.Corpus),
		attribute.Int64("codecbench.seed", r.Seed),
	}
}

// Provider owns the SDK tracer provider of a run. The zero value and nil are
// disabled providers handing out no-op tracers.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Init starts exporting spans when an endpoint is configured, directly or via
// OTEL_EXPORTER_OTLP_ENDPOINT. Otherwise it returns a disabled provider.
func Init(ctx context.Context, cfg config.TracingConfig, run Run) (*Provider, error) {
	endpoint := exportEndpoint(cfg)
	if endpoint == "" {
		return &Provider{}, nil
	}

	sampler, err := newSampler(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	res, err := newResource(ctx, serviceName(cfg), run)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}
	exporter, err := newExporter(ctx, cfg, endpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter: %w", err)
	}

	return newProvider(sdktrace.WithBatcher(exporter), res, sampler), nil
}

func newProvider(processor sdktrace.TracerProviderOption, res *resource.Resource, sampler sdktrace.Sampler) *Provider {
	return &Provider{tp: sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)}
}

// Tracer returns the run's tracer, or a no-op tracer when disabled.
func (p *Provider) Tracer() trace.Tracer {
	if !p.Enabled() {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return p.tp.Tracer(instrumentationName)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

func exportEndpoint(cfg config.TracingConfig) string {
	if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
		return ep
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

func serviceName(cfg config.TracingConfig) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	if env := os.Getenv("OTEL_SERVICE_NAME"); env != "" {
		return env
	}
	return defaultServiceName
}

// newSampler maps sample_rate onto whole runs: 1 keeps every run, 0 none.
func newSampler(rate float64) (sdktrace.Sampler, error) {
	switch {
	case rate < 0 || rate > 1:
		return nil, fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", rate)
	case rate == 0:
		return sdktrace.NeverSample(), nil
	case rate == 1:
		return sdktrace.AlwaysSample(), nil
	default:
		return sdktrace.TraceIDRatioBased(rate), nil
	}
}

// newResource describes the measuring process: the run identity plus the Go
// runtime and host it ran on.
func newResource(ctx context.Context, service string, run Run) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{semconv.ServiceName(service)}, run.attributes()...)
	return resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithProcessRuntimeName(),
		resource.WithProcessRuntimeVersion(),
		resource.WithOS(),
		resource.WithHost(),
	)
}

func newExporter(ctx context.Context, cfg config.TracingConfig, endpoint string) (sdktrace.SpanExporter, error) {
	switch protocol := strings.ToLower(cfg.Protocol); protocol {
	case "", "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q: use \"grpc\" or \"http\"", protocol)
	}
}
