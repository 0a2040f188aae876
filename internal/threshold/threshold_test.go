package threshold

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/codecbench/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "geomean throughput",
			input: "throughput:geomean > 100",
			want: Threshold{
				Metric:    "throughput",
				Aggregate: "geomean",
				Operator:  ">",
				Value:     100,
				Raw:       "throughput:geomean > 100",
			},
		},
		{
			name:  "mean ratio",
			input: "ratio:mean < 40",
			want: Threshold{
				Metric:    "ratio",
				Aggregate: "mean",
				Operator:  "<",
				Value:     40,
				Raw:       "ratio:mean < 40",
			},
		},
		{
			name:  "elapsed percentile without spaces",
			input: "elapsed:p99<=2.5",
			want: Threshold{
				Metric:    "elapsed",
				Aggregate: "p99",
				Operator:  "<=",
				Value:     2.5,
				Raw:       "elapsed:p99<=2.5",
			},
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "unknown metric",
			input:     "latency:p99 < 5",
			wantError: true,
		},
		{
			name:      "aggregate of another metric",
			input:     "throughput:total > 5",
			wantError: true,
		},
		{
			name:      "unsupported operator",
			input:     "ratio:mean != 5",
			wantError: true,
		},
		{
			name:      "missing value",
			input:     "ratio:mean <",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("Parse(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMultipleCollectsErrors(t *testing.T) {
	_, err := ParseMultiple([]string{"throughput:mean > 1", "bogus", "ratio:avg < 3"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "threshold[1]") || !strings.Contains(err.Error(), "threshold[2]") {
		t.Errorf("expected both failing indices in %q", err.Error())
	}

	parsed, err := ParseMultiple(nil)
	if err != nil || parsed != nil {
		t.Errorf("ParseMultiple(nil) = %v, %v", parsed, err)
	}
}

func statsFor(name string, elapsed []time.Duration, ratio bool) metrics.Stats {
	c := metrics.NewCollector(name, "MB/s")
	for _, d := range elapsed {
		s := metrics.Sample{Size: 1, Elapsed: d}
		if ratio {
			s.RefBytes, s.OutputBytes, s.HasOutput = 100, 30, true
		}
		c.Record(s)
	}
	return c.Stats()
}

func TestEvaluatePerImplementation(t *testing.T) {
	fast := statsFor("fast", []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, true)  // 100 MB/s
	slow := statsFor("slow", []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, true) // 10 MB/s

	ths, err := ParseMultiple([]string{"throughput:geomean > 50", "ratio:total < 40"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results := NewEvaluator(ths).Evaluate([]metrics.Stats{fast, slow})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	byKey := map[string]Result{}
	for _, r := range results {
		byKey[r.Threshold.Metric+"/"+r.Implementation] = r
	}
	if !byKey["throughput/fast"].Pass {
		t.Errorf("expected fast to pass throughput threshold: %s", byKey["throughput/fast"].Message)
	}
	if byKey["throughput/slow"].Pass {
		t.Errorf("expected slow to fail throughput threshold")
	}
	if r := byKey["ratio/slow"]; !r.Pass || r.Actual < 29.99 || r.Actual > 30.01 {
		t.Errorf("expected 30%% ratio to pass, got %+v", r)
	}
	if !Failed(results) {
		t.Errorf("Failed() = false, want true")
	}
}

func TestEvaluateSkipsMissingMetrics(t *testing.T) {
	decoder := statsFor("decoder", []time.Duration{time.Millisecond}, false)
	empty := metrics.NewCollector("empty", "MP/s").Stats()

	ths, _ := ParseMultiple([]string{"ratio:mean < 40", "elapsed:max < 5"})
	results := NewEvaluator(ths).Evaluate([]metrics.Stats{decoder, empty})
	if len(results) != 1 {
		t.Fatalf("expected only the elapsed result for decoder, got %+v", results)
	}
	if results[0].Implementation != "decoder" || !results[0].Pass {
		t.Errorf("unexpected result %+v", results[0])
	}
	if Failed(results) {
		t.Errorf("Failed() = true, want false")
	}
}

func TestEvaluateNoThresholds(t *testing.T) {
	if got := NewEvaluator(nil).Evaluate([]metrics.Stats{statsFor("a", []time.Duration{time.Second}, false)}); got != nil {
		t.Errorf("expected nil results, got %v", got)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		actual   float64
		op       string
		expected float64
		want     bool
	}{
		{1, "<", 2, true},
		{2, "<", 2, false},
		{2, "<=", 2, true},
		{3, ">", 2, true},
		{2, ">=", 2, true},
		{2, "==", 2, true},
		{2, "!=", 2, false},
	}
	for _, tt := range tests {
		if got := compareValues(tt.actual, tt.op, tt.expected); got != tt.want {
			t.Errorf("compareValues(%v %s %v) = %v, want %v", tt.actual, tt.op, tt.expected, got, tt.want)
		}
	}
}
