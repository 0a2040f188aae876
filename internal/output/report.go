package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/torosent/codecbench/internal/metrics"
	"github.com/torosent/codecbench/internal/threshold"
)

const minNameWidth = 12

// TextReporter prints one summary line per implementation as soon as its pass ends.
type TextReporter struct {
	w     io.Writer
	width int
}

// NewTextReporter sizes the name column from the selected implementation names.
func NewTextReporter(w io.Writer, names []string) *TextReporter {
	width := minNameWidth
	for _, n := range names {
		if len(n)+2 > width {
			width = len(n) + 2
		}
	}
	return &TextReporter{w: w, width: width}
}

// Report prints one line per implementation: throughput, then the ratios
// when they exist. Implementations without samples print nothing.
func (r *TextReporter) Report(stats metrics.Stats) {
	if stats.Empty() {
		return
	}
	line := fmt.Sprintf("%-*s %7.2f %s (average) %7.2f %s (geomean)",
		r.width, stats.Name+":",
		stats.MeanThroughput, stats.Unit,
		stats.GeomeanThroughput, stats.Unit,
	)
	if stats.HasRatio {
		line += fmt.Sprintf("    %.2f%% (average)  %.2f%% (geomean)",
			stats.MeanRatio*100, stats.RatioOfMeans*100)
	}
	fmt.Fprintln(r.w, line)
}

// PrintRanking lists the implementations that produced samples, fastest
// geometric-mean throughput first. Nothing is printed for fewer than two.
func PrintRanking(w io.Writer, all []metrics.Stats) {
	ranked := Rank(all)
	if len(ranked) < 2 {
		return
	}
	width := minNameWidth
	for _, s := range ranked {
		if len(s.Name)+2 > width {
			width = len(s.Name) + 2
		}
	}
	best := ranked[0].GeomeanThroughput
	fmt.Fprintln(w, "\n--- Ranking (geomean) ---")
	for i, s := range ranked {
		relative := 0.0
		if best > 0 {
			relative = s.GeomeanThroughput / best
		}
		fmt.Fprintf(w, "%2d. %-*s %7.2f %s  %5.2fx\n", i+1, width, s.Name, s.GeomeanThroughput, s.Unit, relative)
	}
}

// Rank returns the non-empty stats sorted by geometric-mean throughput, descending.
// Ties keep run order.
func Rank(all []metrics.Stats) []metrics.Stats {
	ranked := make([]metrics.Stats, 0, len(all))
	for _, s := range all {
		if !s.Empty() {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].GeomeanThroughput > ranked[j].GeomeanThroughput
	})
	return ranked
}

// PrintThresholdResults prints each threshold outcome and a pass/fail summary.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	fmt.Fprintln(w, "\n--- Thresholds ---")
	for _, r := range results {
		if r.Pass {
			passed++
		}
		fmt.Fprintln(w, r.Message)
	}
	fmt.Fprintf(w, "%d/%d thresholds passed\n", passed, len(results))
}

// Report is the structured document written by the json and yaml formats.
type Report struct {
	RunID           string          `json:"run_id" yaml:"run_id"`
	Mode            string          `json:"mode" yaml:"mode"`
	Corpus          string          `json:"corpus" yaml:"corpus"`
	Files           int             `json:"files" yaml:"files"`
	Interrupted     bool            `json:"interrupted" yaml:"interrupted"`
	StartedAt       time.Time       `json:"started_at" yaml:"started_at"`
	DurationMs      float64         `json:"duration_ms" yaml:"duration_ms"`
	Implementations []metrics.Stats `json:"implementations" yaml:"implementations"`
	Thresholds      []ThresholdJSON `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// ThresholdJSON is the serialized form of a threshold outcome.
type ThresholdJSON struct {
	Threshold      string  `json:"threshold" yaml:"threshold"`
	Implementation string  `json:"implementation" yaml:"implementation"`
	Actual         float64 `json:"actual" yaml:"actual"`
	Pass           bool    `json:"pass" yaml:"pass"`
}

// NewRunID returns a lexically sortable identifier for a run.
func NewRunID() string {
	return ulid.Make().String()
}

// WithThresholds attaches threshold outcomes to the report.
func (r *Report) WithThresholds(results []threshold.Result) {
	r.Thresholds = make([]ThresholdJSON, len(results))
	for i, res := range results {
		r.Thresholds[i] = ThresholdJSON{
			Threshold:      res.Threshold.Raw,
			Implementation: res.Implementation,
			Actual:         res.Actual,
			Pass:           res.Pass,
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, report Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
