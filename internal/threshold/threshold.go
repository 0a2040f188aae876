package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/codecbench/internal/metrics"
)

// Threshold represents an assertion on every measured implementation.
type Threshold struct {
	Metric    string  // "throughput", "ratio" or "elapsed"
	Aggregate string  // e.g., "geomean", "mean", "total", "p99"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold for one implementation.
type Result struct {
	Threshold      Threshold
	Implementation string
	Actual         float64
	Pass           bool
	Message        string
}

// Evaluator evaluates thresholds against per-implementation statistics.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against every implementation that produced
// samples. An implementation without the threshold's metric (ratio thresholds
// on a decoder, say) is not evaluated for it.
func (e *Evaluator) Evaluate(all []metrics.Stats) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	var results []Result
	for _, t := range e.thresholds {
		for _, stats := range all {
			if stats.Empty() {
				continue
			}
			if t.Metric == "ratio" && !stats.HasRatio {
				continue
			}
			results = append(results, e.evaluateOne(t, stats))
		}
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return true
		}
	}
	return false
}

func (e *Evaluator) evaluateOne(t Threshold, stats metrics.Stats) Result {
	actual, err := extractMetricValue(t, stats)
	if err != nil {
		return Result{
			Threshold:      t,
			Implementation: stats.Name,
			Actual:         0,
			Pass:           false,
			Message:        fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s [%s]: %.2f %s %.2f", status, t.Raw, stats.Name, actual, t.Operator, t.Value)
	return Result{
		Threshold:      t,
		Implementation: stats.Name,
		Actual:         actual,
		Pass:           pass,
		Message:        message,
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "throughput:geomean > 100"   (geometric mean throughput, unit of the mode)
// - "throughput:mean >= 10"      (arithmetic mean throughput)
// - "ratio:mean < 40"            (mean of per-file compression ratios, percent)
// - "ratio:total < 40"           (total output over total input, percent)
// - "elapsed:p99 < 20"           (per-file elapsed time percentile in ms)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'throughput:geomean > 100')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	aggregates, ok := validAggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: throughput, ratio, elapsed)", metric)
	}
	if !contains(aggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates, ", "))
	}
	if !contains([]string{"<", "<=", ">", ">=", "=="}, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

var validAggregates = map[string][]string{
	"throughput": {"mean", "geomean"},
	"ratio":      {"mean", "total"},
	"elapsed":    {"p50", "p90", "p99", "min", "max"},
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, stats metrics.Stats) (float64, error) {
	switch t.Metric {
	case "throughput":
		if t.Aggregate == "geomean" {
			return stats.GeomeanThroughput, nil
		}
		return stats.MeanThroughput, nil
	case "ratio":
		if t.Aggregate == "total" {
			return stats.RatioOfMeans * 100, nil
		}
		return stats.MeanRatio * 100, nil
	case "elapsed":
		return extractElapsedMetric(t.Aggregate, stats)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractElapsedMetric(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "p50":
		return stats.P50ElapsedMs, nil
	case "p90":
		return stats.P90ElapsedMs, nil
	case "p99":
		return stats.P99ElapsedMs, nil
	case "min":
		return stats.MinElapsedMs, nil
	case "max":
		return stats.MaxElapsedMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for elapsed", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
