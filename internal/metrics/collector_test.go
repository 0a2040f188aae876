package metrics_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/torosent/codecbench/internal/metrics"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= epsilon*math.Max(math.Abs(a), math.Abs(b))
}

func TestGeometricMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"two values", []float64{2, 8}, 4},
		{"all ones", []float64{1, 1, 1}, 1},
		{"single", []float64{7.5}, 7.5},
		{"empty", nil, 0},
		{"skips non-positive", []float64{0, -3, 4, 16}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metrics.GeometricMean(tt.values)
			if !approxEqual(got, tt.want) {
				t.Errorf("GeometricMean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestMean(t *testing.T) {
	if got := metrics.Mean([]float64{1, 2, 3, 6}); got != 3 {
		t.Errorf("Mean() = %v, want 3", got)
	}
	if got := metrics.Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
}

func TestCollectorThroughputStats(t *testing.T) {
	c := metrics.NewCollector("a", "MB/s")

	// 1e6 units each, elapsed 1s, 2s, 4s.
	for _, secs := range []int{1, 2, 4} {
		c.Record(metrics.Sample{Size: 1_000_000, Elapsed: time.Duration(secs) * time.Second})
	}

	stats := c.Stats()
	if stats.Samples != 3 {
		t.Fatalf("expected 3 samples, got %d", stats.Samples)
	}
	if !approxEqual(stats.GeomeanThroughput, 5e5) {
		t.Errorf("expected geomean 5e5, got %v", stats.GeomeanThroughput)
	}
	wantMean := (1e6 + 5e5 + 2.5e5) / 3
	if !approxEqual(stats.MeanThroughput, wantMean) {
		t.Errorf("expected mean %v, got %v", wantMean, stats.MeanThroughput)
	}
	if stats.HasRatio {
		t.Errorf("expected no ratio without output lengths")
	}
	if stats.MinElapsed != time.Second || stats.MaxElapsed != 4*time.Second {
		t.Errorf("unexpected min/max elapsed %s/%s", stats.MinElapsed, stats.MaxElapsed)
	}
	if stats.TotalElapsed != 7*time.Second {
		t.Errorf("expected total elapsed 7s, got %s", stats.TotalElapsed)
	}
}

func TestCollectorUniformRatio(t *testing.T) {
	c := metrics.NewCollector("half", "MB/s")
	for _, ref := range []int{100, 1000, 10_000_000} {
		c.Record(metrics.Sample{
			Size:        float64(ref) * 1e-6,
			Elapsed:     time.Millisecond,
			RefBytes:    ref,
			OutputBytes: ref / 2,
			HasOutput:   true,
		})
	}

	stats := c.Stats()
	if !stats.HasRatio {
		t.Fatalf("expected ratio statistics")
	}
	if !approxEqual(stats.MeanRatio, 0.5) {
		t.Errorf("expected mean-of-ratios 0.5, got %v", stats.MeanRatio)
	}
	if !approxEqual(stats.RatioOfMeans, 0.5) {
		t.Errorf("expected ratio-of-means 0.5, got %v", stats.RatioOfMeans)
	}
}

func TestCollectorRatiosDiffer(t *testing.T) {
	c := metrics.NewCollector("skewed", "MB/s")
	// Small file compresses poorly, big file compresses well.
	c.Record(metrics.Sample{Size: 1, Elapsed: time.Millisecond, RefBytes: 100, OutputBytes: 90, HasOutput: true})
	c.Record(metrics.Sample{Size: 1, Elapsed: time.Millisecond, RefBytes: 10_000, OutputBytes: 1_000, HasOutput: true})

	stats := c.Stats()
	if !approxEqual(stats.MeanRatio, 0.5) {
		t.Errorf("expected mean-of-ratios 0.5, got %v", stats.MeanRatio)
	}
	if !approxEqual(stats.RatioOfMeans, 1090.0/10100.0) {
		t.Errorf("expected ratio-of-means %v, got %v", 1090.0/10100.0, stats.RatioOfMeans)
	}
	if stats.TotalInputBytes != 10_100 || stats.TotalOutputBytes != 1_090 {
		t.Errorf("unexpected totals %d/%d", stats.TotalInputBytes, stats.TotalOutputBytes)
	}
}

func TestCollectorPartialOutputDropsRatio(t *testing.T) {
	c := metrics.NewCollector("mixed", "MB/s")
	c.Record(metrics.Sample{Size: 1, Elapsed: time.Millisecond, RefBytes: 10, OutputBytes: 5, HasOutput: true})
	c.Record(metrics.Sample{Size: 1, Elapsed: time.Millisecond})

	if c.Stats().HasRatio {
		t.Errorf("expected ratio to be omitted when a sample has no output length")
	}
}

func TestCollectorEmpty(t *testing.T) {
	stats := metrics.NewCollector("idle", "MP/s").Stats()
	if !stats.Empty() {
		t.Fatalf("expected empty stats")
	}
	if stats.Name != "idle" || stats.Unit != "MP/s" {
		t.Errorf("unexpected identity %q %q", stats.Name, stats.Unit)
	}
	for _, v := range []float64{stats.MeanThroughput, stats.GeomeanThroughput, stats.MeanRatio, stats.RatioOfMeans} {
		if math.IsNaN(v) || v != 0 {
			t.Errorf("expected zero figures for empty collector, got %v", v)
		}
	}
}

func TestCollectorZeroElapsedStaysFinite(t *testing.T) {
	c := metrics.NewCollector("instant", "MB/s")
	c.Record(metrics.Sample{Size: 1, Elapsed: 0})

	stats := c.Stats()
	if math.IsInf(stats.GeomeanThroughput, 0) || stats.GeomeanThroughput <= 0 {
		t.Errorf("expected finite positive throughput, got %v", stats.GeomeanThroughput)
	}
}

func TestCollectorPercentiles(t *testing.T) {
	c := metrics.NewCollector("p", "MB/s")
	for i := 1; i <= 100; i++ {
		c.Record(metrics.Sample{Size: 1, Elapsed: time.Duration(i) * time.Millisecond})
	}

	stats := c.Stats()
	if stats.P50Elapsed < 49*time.Millisecond || stats.P50Elapsed > 51*time.Millisecond {
		t.Errorf("expected P50 ~50ms, got %s", stats.P50Elapsed)
	}
	if stats.P99Elapsed < 98*time.Millisecond || stats.P99Elapsed > 100*time.Millisecond {
		t.Errorf("expected P99 ~99ms, got %s", stats.P99Elapsed)
	}
	if len(c.Samples()) != 100 {
		t.Errorf("expected 100 retained samples, got %d", len(c.Samples()))
	}
}

func TestStatsJSONSchema(t *testing.T) {
	c := metrics.NewCollector("json", "MB/s")
	c.Record(metrics.Sample{Size: 2, Elapsed: 15 * time.Millisecond, RefBytes: 4, OutputBytes: 1, HasOutput: true})

	data, err := json.Marshal(c.Stats())
	if err != nil {
		t.Fatalf("failed to marshal stats: %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	required := []string{"name", "unit", "samples", "mean_throughput", "geomean_throughput", "has_ratio", "mean_ratio", "ratio_of_means", "p50_elapsed_ms", "p99_elapsed_ms"}
	for _, field := range required {
		if _, ok := parsed[field]; !ok {
			t.Errorf("missing field %q in JSON output", field)
		}
	}
}
