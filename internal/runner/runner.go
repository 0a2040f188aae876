package runner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/codecbench/internal/metrics"
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/tracing"
)

// Pass is the outcome of running one implementation over the corpus.
type Pass struct {
	Stats   metrics.Stats
	Samples []metrics.Sample
}

// Result captures the execution summary of a run.
type Result struct {
	Passes      []Pass
	Interrupted bool
	Duration    time.Duration
}

// Stats returns the statistics of every executed pass in run order.
func (r Result) Stats() []metrics.Stats {
	out := make([]metrics.Stats, len(r.Passes))
	for i, p := range r.Passes {
		out[i] = p.Stats
	}
	return out
}

// Runner executes the selected implementations one after another over the corpus.
type Runner[In, Out any] struct {
	opt Options[In, Out]
}

func New[In, Out any](opt Options[In, Out]) *Runner[In, Out] {
	opt.normalize()
	return &Runner[In, Out]{opt: opt}
}

// Run measures every implementation in order. Cancelling ctx stops the run at
// the next file boundary; the in-flight implementation is still reported and
// Result.Interrupted is set. Read, transform and check failures abort the run.
func (r *Runner[In, Out]) Run(ctx context.Context) (Result, error) {
	if r.opt.Prepare == nil {
		return Result{}, fmt.Errorf("runner: prepare hook is required")
	}

	start := time.Now()
	var result Result
	for _, impl := range r.opt.Implementations {
		pass, interrupted, err := r.runPass(ctx, impl)
		if err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.Passes = append(result.Passes, pass)
		if interrupted {
			result.Interrupted = true
			break
		}
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner[In, Out]) runPass(ctx context.Context, impl registry.Implementation[In, Out]) (pass Pass, interrupted bool, err error) {
	o := &r.opt
	log := o.Logger.With("implementation", impl.Name)
	collector := metrics.NewCollector(impl.Name, o.Unit)

	// The span wraps the whole pass; it is never started or ended inside a timed window.
	_, span := tracing.StartPassSpan(ctx, o.Tracer, impl.Name, len(o.Files))
	defer func() {
		stats := collector.Stats()
		tracing.EndSpan(span, err,
			attribute.Int("codecbench.samples", stats.Samples),
			attribute.Float64("codecbench.geomean_throughput", stats.GeomeanThroughput),
			attribute.Bool("codecbench.interrupted", interrupted),
		)
	}()

	o.Progress.Reset(len(o.Files))
	for _, path := range o.Files {
		if o.Sampler != nil && !o.Sampler.Keep(path) {
			o.Progress.Inc()
			continue
		}

		if ctx.Err() != nil {
			log.Info("stop requested", "recorded", len(collector.Samples()))
			interrupted = true
			break
		}

		raw, readErr := o.ReadFile(path)
		if readErr != nil {
			o.Progress.Clear()
			return Pass{}, false, fmt.Errorf("read %s: %w", path, readErr)
		}

		prepared, ok := o.Prepare(path, raw)
		if !ok {
			log.Debug("file declined", "path", path)
			o.Progress.Inc()
			continue
		}

		begin := o.Clock()
		out, invokeErr := impl.Invoke(prepared.Input)
		elapsed := o.Clock().Sub(begin)

		if invokeErr != nil {
			o.Progress.Clear()
			return Pass{}, false, &TransformError{Implementation: impl.Name, Path: path, Err: invokeErr}
		}

		sample := metrics.Sample{
			Path:     path,
			Elapsed:  elapsed,
			Size:     prepared.Size,
			RefBytes: prepared.RefBytes,
		}
		if o.OutputLen != nil {
			sample.OutputBytes, sample.HasOutput = o.OutputLen(out)
		}
		if o.Verify && o.Check != nil {
			if checkErr := o.Check(out, prepared); checkErr != nil {
				o.Progress.Clear()
				return Pass{}, false, &CheckError{Implementation: impl.Name, Path: path, Err: checkErr}
			}
		}

		collector.Record(sample)
		o.Progress.Inc()
	}
	o.Progress.Clear()

	pass = Pass{Stats: collector.Stats(), Samples: collector.Samples()}
	o.Reporter.Report(pass.Stats)
	return pass, interrupted, nil
}
