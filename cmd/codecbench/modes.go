package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/codecbench/internal/baseline"
	"github.com/torosent/codecbench/internal/codecs"
	"github.com/torosent/codecbench/internal/config"
	"github.com/torosent/codecbench/internal/corpus"
	"github.com/torosent/codecbench/internal/counters"
	"github.com/torosent/codecbench/internal/dashboard"
	"github.com/torosent/codecbench/internal/interrupt"
	"github.com/torosent/codecbench/internal/output"
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/runner"
	"github.com/torosent/codecbench/internal/threshold"
	"github.com/torosent/codecbench/internal/tracing"
)

// environment carries what every mode shares once configuration is resolved.
type environment struct {
	cfg        *config.Config
	runID      string
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
	tracer     trace.Tracer
	corpus     *corpus.Corpus
	selection  registry.Selection
	thresholds []threshold.Threshold
	ctrl       *interrupt.Controller
}

// execute runs one mode's suite over the corpus and prints the summary.
func execute[In, Out any](env *environment, suite codecs.Suite[In, Out]) error {
	cfg := env.cfg
	impls, err := registry.Select(suite.Registry, env.selection)
	if err != nil {
		return err
	}
	if len(impls) == 0 {
		env.logger.Warn("no implementation matches the selection", "filter", cfg.Filter)
	}

	names := make([]string, len(impls))
	for i, impl := range impls {
		names[i] = impl.Name
	}

	opts := runner.Options[In, Out]{
		Files:           env.corpus.Files,
		Implementations: impls,
		Prepare:         suite.Prepare,
		Check:           suite.Check,
		Verify:          cfg.Verify,
		OutputLen:       suite.OutputLen,
		Unit:            suite.Unit,
		Tracer:          env.tracer,
		Logger:          env.logger,
	}
	if cfg.Fast {
		opts.Sampler = corpus.NewSampler(cfg.FastFraction)
	}
	if cfg.Format == config.FormatText {
		opts.Reporter = output.NewTextReporter(env.stdout, names)
	}
	if !cfg.NoProgress {
		opts.Progress = output.NewProgressBar(env.stderr, progressInterval)
	}

	ctx, span := tracing.StartRunSpan(env.ctrl.Context(), env.tracer, string(cfg.Mode), env.corpus.Name)
	started := time.Now()
	result, err := runner.New(opts).Run(ctx)
	tracing.EndSpan(span, err,
		attribute.Int("codecbench.implementations", len(result.Passes)),
		attribute.Bool("codecbench.interrupted", result.Interrupted),
	)
	if err != nil {
		return err
	}

	return env.finish(result, started)
}

// finish prints everything that follows the per-implementation lines and
// writes the exports. Threshold failures are returned after the report.
func (env *environment) finish(result runner.Result, started time.Time) error {
	cfg := env.cfg
	stats := result.Stats()
	thresholdResults := threshold.NewEvaluator(env.thresholds).Evaluate(stats)

	report := output.Report{
		RunID:           env.runID,
		Mode:            string(cfg.Mode),
		Corpus:          env.corpus.Name,
		Files:           env.corpus.Len(),
		Interrupted:     result.Interrupted,
		StartedAt:       started.UTC(),
		DurationMs:      float64(result.Duration) / float64(time.Millisecond),
		Implementations: stats,
	}
	report.WithThresholds(thresholdResults)

	// Structured documents own stdout; the human-readable extras go to stderr.
	extras := env.stdout
	switch cfg.Format {
	case config.FormatJSON:
		if err := output.PrintJSONReport(env.stdout, report); err != nil {
			return err
		}
		extras = env.stderr
	case config.FormatYAML:
		if err := output.PrintYAMLReport(env.stdout, report); err != nil {
			return err
		}
		extras = env.stderr
	default:
		output.PrintRanking(env.stdout, stats)
	}

	if cfg.Baseline != "" {
		b, err := baseline.Load(cfg.Baseline)
		if err != nil {
			return err
		}
		if b.Mode != "" && b.Mode != string(cfg.Mode) {
			fmt.Fprintf(env.stderr, "WARNING: baseline was recorded in %s mode.\n", b.Mode)
		}
		baseline.Print(extras, b.Compare(stats))
	}

	if cfg.Format == config.FormatText {
		output.PrintThresholdResults(env.stdout, thresholdResults)
	}

	if cfg.CSVOutput != "" {
		series := make([]output.Series, len(result.Passes))
		for i, p := range result.Passes {
			series[i] = output.Series{Name: p.Stats.Name, Samples: p.Samples}
		}
		if err := writeFile(cfg.CSVOutput, func(w io.Writer) error {
			return output.WriteCSV(w, env.corpus.Files, series)
		}); err != nil {
			return fmt.Errorf("csv output: %w", err)
		}
	}
	if cfg.HTMLOutput != "" {
		if err := writeFile(cfg.HTMLOutput, func(w io.Writer) error {
			return output.GenerateHTMLReport(w, report, thresholdResults)
		}); err != nil {
			return fmt.Errorf("html output: %w", err)
		}
	}

	if err := counters.Dump(extras); err != nil {
		env.logger.Warn("counter dump failed", "error", err)
	}

	if result.Interrupted {
		fmt.Fprintln(env.stderr, "Interrupted: results cover the files measured before the stop.")
	} else if cfg.Dashboard {
		info := dashboard.RunInfo{
			Mode:   string(cfg.Mode),
			Corpus: env.corpus.Name,
			Files:  env.corpus.Len(),
		}
		if err := dashboard.Show(env.ctrl.Context(), info, stats); err != nil {
			return err
		}
	}

	if threshold.Failed(thresholdResults) {
		failed := 0
		for _, r := range thresholdResults {
			if !r.Pass {
				failed++
			}
		}
		return fmt.Errorf("%d of %d thresholds failed", failed, len(thresholdResults))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
