package runner

import (
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/codecbench/internal/metrics"
	"github.com/torosent/codecbench/internal/registry"
)

// Prepared is the collaborator's view of one corpus file, ready to be fed to
// every implementation.
type Prepared[In any] struct {
	Input    In
	Size     float64 // logical size in the numerator of the throughput unit
	RefBytes int     // reference byte count used for compression ratios
}

// PrepareFunc converts raw file bytes into implementation input. Returning
// false declines the file (unsupported, malformed, oversize); it is skipped
// without being counted.
type PrepareFunc[In any] func(path string, raw []byte) (Prepared[In], bool)

// CheckFunc validates an implementation's output against its prepared input.
// A non-nil error aborts the whole run.
type CheckFunc[In, Out any] func(out Out, in Prepared[In]) error

// Sampler decides which corpus files take part in the run.
type Sampler interface {
	Keep(path string) bool
}

// Progress is the per-implementation progress indicator.
type Progress interface {
	Reset(total int)
	Inc()
	Clear()
}

// Reporter receives the statistics of each implementation as soon as its pass ends.
type Reporter interface {
	Report(stats metrics.Stats)
}

// Options configure the Runner.
type Options[In, Out any] struct {
	Files           []string                             // corpus in its fixed order (required)
	Implementations []registry.Implementation[In, Out] // selected implementations, run in order
	Prepare         PrepareFunc[In]                      // input conversion hook (required)
	Check           CheckFunc[In, Out]                   // correctness hook, used only when Verify is set
	Verify          bool                                 // enable Check
	OutputLen       func(Out) (int, bool)                // natural byte length of an output, if any
	Unit            string                               // throughput unit label, e.g. "MB/s"
	Sampler         Sampler                              // optional fast-mode subset
	ReadFile        func(string) ([]byte, error)         // file reader, defaults to os.ReadFile
	Clock           func() time.Time                     // timing source, defaults to time.Now
	Progress        Progress                             // optional progress indicator
	Reporter        Reporter                             // optional per-implementation sink
	Tracer          trace.Tracer                         // optional tracer for pass spans
	Logger          *slog.Logger                         // optional diagnostics logger
}

func (o *Options[In, Out]) normalize() {
	if o.ReadFile == nil {
		o.ReadFile = os.ReadFile
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Progress == nil {
		o.Progress = nopProgress{}
	}
	if o.Reporter == nil {
		o.Reporter = nopReporter{}
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("codecbench")
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Unit == "" {
		o.Unit = "MB/s"
	}
}

type nopProgress struct{}

func (nopProgress) Reset(int) {}
func (nopProgress) Inc()      {}
func (nopProgress) Clear()    {}

type nopReporter struct{}

func (nopReporter) Report(metrics.Stats) {}
