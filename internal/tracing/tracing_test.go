package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/torosent/codecbench/internal/config"
)

var testRun = Run{ID: "01JBENCHRUN0000000000000000", Mode: "decode", Corpus: "qoi-bench", Seed: 42}

func recordingProvider(t *testing.T, run Run) (*Provider, *tracetest.InMemoryExporter) {
	t.Helper()
	res, err := newResource(context.Background(), "codecbench-test", run)
	if err != nil {
		t.Fatalf("newResource() error = %v", err)
	}
	exporter := tracetest.NewInMemoryExporter()
	p := newProvider(sdktrace.WithSyncer(exporter), res, sdktrace.AlwaysSample())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p, exporter
}

func TestInitWithoutEndpointIsDisabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := Init(context.Background(), config.TracingConfig{SampleRate: 1}, testRun)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if p.Enabled() {
		t.Error("Enabled() = true without an endpoint")
	}
	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	if span.SpanContext().IsValid() {
		t.Error("expected a no-op span from a disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	var nilProvider *Provider
	if nilProvider.Enabled() || nilProvider.Shutdown(context.Background()) != nil {
		t.Error("nil provider should be disabled and shut down cleanly")
	}
}

func TestInitExporters(t *testing.T) {
	for _, protocol := range []string{"", "grpc", "HTTP"} {
		t.Run("protocol "+protocol, func(t *testing.T) {
			p, err := Init(context.Background(), config.TracingConfig{
				Endpoint:   "localhost:4317",
				Protocol:   protocol,
				SampleRate: 0.5,
				Insecure:   true,
			}, testRun)
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
			if !p.Enabled() {
				t.Error("Enabled() = false with an endpoint")
			}
		})
	}
}

func TestInitRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TracingConfig
	}{
		{"unknown protocol", config.TracingConfig{Endpoint: "localhost:4317", Protocol: "thrift", SampleRate: 1}},
		{"negative rate", config.TracingConfig{Endpoint: "localhost:4317", SampleRate: -0.5}},
		{"rate above one", config.TracingConfig{Endpoint: "localhost:4317", SampleRate: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Init(context.Background(), tt.cfg, testRun); err == nil {
				t.Fatal("Init() error = nil")
			}
		})
	}
}

func TestExportEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "env-collector:4317")
	if got := exportEndpoint(config.TracingConfig{Endpoint: " flag-collector:4317 "}); got != "flag-collector:4317" {
		t.Errorf("configured endpoint = %q", got)
	}
	if got := exportEndpoint(config.TracingConfig{}); got != "env-collector:4317" {
		t.Errorf("environment endpoint = %q", got)
	}
}

func TestServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	if got := serviceName(config.TracingConfig{}); got != "codecbench" {
		t.Errorf("default service name = %q", got)
	}
	t.Setenv("OTEL_SERVICE_NAME", "bench-host-7")
	if got := serviceName(config.TracingConfig{}); got != "bench-host-7" {
		t.Errorf("environment service name = %q", got)
	}
	if got := serviceName(config.TracingConfig{ServiceName: "ci"}); got != "ci" {
		t.Errorf("configured service name = %q", got)
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, sdktrace.NeverSample().Description()},
		{1, sdktrace.AlwaysSample().Description()},
		{0.25, sdktrace.TraceIDRatioBased(0.25).Description()},
	}
	for _, tt := range tests {
		s, err := newSampler(tt.rate)
		if err != nil {
			t.Fatalf("newSampler(%g) error = %v", tt.rate, err)
		}
		if s.Description() != tt.want {
			t.Errorf("newSampler(%g) = %s, want %s", tt.rate, s.Description(), tt.want)
		}
	}
}

func TestSpansCarryRunIdentity(t *testing.T) {
	p, exporter := recordingProvider(t, testRun)
	tracer := p.Tracer()

	ctx, run := StartRunSpan(context.Background(), tracer, testRun.Mode, testRun.Corpus)
	_, pass := StartPassSpan(ctx, tracer, "png-nrgba", 12)
	EndSpan(pass, nil, attribute.Int("codecbench.samples", 11))
	EndSpan(run, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	passSpan, runSpan := spans[0], spans[1]
	if passSpan.Name != "pass png-nrgba" || runSpan.Name != "codecbench decode" {
		t.Errorf("span names = %q, %q", passSpan.Name, runSpan.Name)
	}
	if passSpan.Parent.SpanID() != runSpan.SpanContext.SpanID() {
		t.Error("pass span is not a child of the run span")
	}

	want := map[attribute.Key]attribute.Value{
		"service.name":      attribute.StringValue("codecbench-test"),
		"codecbench.run_id": attribute.StringValue(testRun.ID),
		"codecbench.mode":   attribute.StringValue("decode"),
		"codecbench.corpus": attribute.StringValue("qoi-bench"),
		"codecbench.seed":   attribute.Int64Value(42),
	}
	res := passSpan.Resource.Set()
	for key, value := range want {
		got, ok := res.Value(key)
		if !ok || got != value {
			t.Errorf("resource %s = %v (present %v), want %v", key, got.Emit(), ok, value.Emit())
		}
	}
	if _, ok := res.Value("process.runtime.name"); !ok {
		t.Error("resource is missing the Go runtime name")
	}

	attrs := attribute.NewSet(passSpan.Attributes...)
	if v, _ := attrs.Value("codecbench.files"); v.AsInt64() != 12 {
		t.Errorf("codecbench.files = %v, want 12", v.Emit())
	}
	if v, _ := attrs.Value("codecbench.samples"); v.AsInt64() != 11 {
		t.Errorf("codecbench.samples = %v, want 11", v.Emit())
	}
}

func TestEndSpanStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"success", nil, codes.Ok},
		{"check failure", errors.New("png-fast: pixel (3,4) differs"), codes.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, exporter := recordingProvider(t, testRun)
			_, span := StartPassSpan(context.Background(), p.Tracer(), "png-fast", 1)
			EndSpan(span, tt.err)

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("got %d spans, want 1", len(spans))
			}
			if spans[0].Status.Code != tt.want {
				t.Errorf("status = %v, want %v", spans[0].Status.Code, tt.want)
			}
			if tt.err != nil && len(spans[0].Events) == 0 {
				t.Error("expected the error to be recorded as an event")
			}
		})
	}
}
