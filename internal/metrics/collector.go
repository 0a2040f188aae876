package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// minElapsed keeps throughput finite for trials faster than the clock resolution.
const minElapsed = time.Nanosecond

// Sample is the raw measurement of one trial.
type Sample struct {
	Path        string
	Elapsed     time.Duration
	Size        float64
	RefBytes    int
	OutputBytes int
	HasOutput   bool
}

// Throughput returns Size per second of this sample.
func (s Sample) Throughput() float64 {
	elapsed := s.Elapsed
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	return s.Size / elapsed.Seconds()
}

// Collector accumulates the samples of a single implementation.
type Collector struct {
	name    string
	unit    string
	hist    *hdrhistogram.Histogram
	samples []Sample

	throughputs []float64
	ratios      []float64
	totalOutput int64
	totalRef    int64
	withOutput  int

	minElapsed   time.Duration
	maxElapsed   time.Duration
	totalElapsed time.Duration
}

// Stats represents the aggregated figures of one implementation.
type Stats struct {
	Name              string  `json:"name" yaml:"name"`
	Unit              string  `json:"unit" yaml:"unit"`
	Samples           int     `json:"samples" yaml:"samples"`
	MeanThroughput    float64 `json:"mean_throughput" yaml:"mean_throughput"`
	GeomeanThroughput float64 `json:"geomean_throughput" yaml:"geomean_throughput"`

	HasRatio         bool    `json:"has_ratio" yaml:"has_ratio"`
	MeanRatio        float64 `json:"mean_ratio,omitempty" yaml:"mean_ratio,omitempty"`
	RatioOfMeans     float64 `json:"ratio_of_means,omitempty" yaml:"ratio_of_means,omitempty"`
	TotalInputBytes  int64   `json:"total_input_bytes,omitempty" yaml:"total_input_bytes,omitempty"`
	TotalOutputBytes int64   `json:"total_output_bytes,omitempty" yaml:"total_output_bytes,omitempty"`

	MinElapsed   time.Duration `json:"-" yaml:"-"`
	MaxElapsed   time.Duration `json:"-" yaml:"-"`
	TotalElapsed time.Duration `json:"-" yaml:"-"`
	P50Elapsed   time.Duration `json:"-" yaml:"-"`
	P90Elapsed   time.Duration `json:"-" yaml:"-"`
	P99Elapsed   time.Duration `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	MinElapsedMs   float64 `json:"min_elapsed_ms" yaml:"min_elapsed_ms"`
	MaxElapsedMs   float64 `json:"max_elapsed_ms" yaml:"max_elapsed_ms"`
	TotalElapsedMs float64 `json:"total_elapsed_ms" yaml:"total_elapsed_ms"`
	P50ElapsedMs   float64 `json:"p50_elapsed_ms" yaml:"p50_elapsed_ms"`
	P90ElapsedMs   float64 `json:"p90_elapsed_ms" yaml:"p90_elapsed_ms"`
	P99ElapsedMs   float64 `json:"p99_elapsed_ms" yaml:"p99_elapsed_ms"`
}

// Empty reports whether no trial was recorded.
func (s Stats) Empty() bool {
	return s.Samples == 0
}

// NewCollector creates a collector for the named implementation.
func NewCollector(name, unit string) *Collector {
	// Track trial durations from 1µs up to 1h with 3 significant figures.
	h := hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3)
	return &Collector{
		name: name,
		unit: unit,
		hist: h,
	}
}

// Name returns the implementation name the collector was created for.
func (c *Collector) Name() string {
	return c.name
}

// Record adds a single trial sample.
func (c *Collector) Record(s Sample) {
	if s.Elapsed < minElapsed {
		s.Elapsed = minElapsed
	}
	c.samples = append(c.samples, s)
	c.throughputs = append(c.throughputs, s.Throughput())

	us := s.Elapsed.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)

	c.totalElapsed += s.Elapsed
	if c.minElapsed == 0 || s.Elapsed < c.minElapsed {
		c.minElapsed = s.Elapsed
	}
	if s.Elapsed > c.maxElapsed {
		c.maxElapsed = s.Elapsed
	}

	if s.HasOutput {
		c.withOutput++
		c.totalOutput += int64(s.OutputBytes)
		c.totalRef += int64(s.RefBytes)
		if s.RefBytes > 0 {
			c.ratios = append(c.ratios, float64(s.OutputBytes)/float64(s.RefBytes))
		}
	}
}

// Samples returns the recorded samples in recording order.
func (c *Collector) Samples() []Sample {
	return append([]Sample(nil), c.samples...)
}

// Stats computes the aggregated figures.
func (c *Collector) Stats() Stats {
	stats := Stats{
		Name:    c.name,
		Unit:    c.unit,
		Samples: len(c.samples),
	}
	if stats.Samples == 0 {
		return stats
	}

	stats.MeanThroughput = Mean(c.throughputs)
	stats.GeomeanThroughput = GeometricMean(c.throughputs)

	// Ratios are only meaningful when every trial produced a measurable output.
	if c.withOutput == len(c.samples) {
		stats.HasRatio = true
		stats.MeanRatio = Mean(c.ratios)
		stats.TotalInputBytes = c.totalRef
		stats.TotalOutputBytes = c.totalOutput
		if c.totalRef > 0 {
			stats.RatioOfMeans = float64(c.totalOutput) / float64(c.totalRef)
		}
	}

	stats.MinElapsed = c.minElapsed
	stats.MaxElapsed = c.maxElapsed
	stats.TotalElapsed = c.totalElapsed
	if c.hist.TotalCount() > 0 {
		stats.P50Elapsed = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Elapsed = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Elapsed = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinElapsedMs = toMillis(stats.MinElapsed)
	stats.MaxElapsedMs = toMillis(stats.MaxElapsed)
	stats.TotalElapsedMs = toMillis(stats.TotalElapsed)
	stats.P50ElapsedMs = toMillis(stats.P50Elapsed)
	stats.P90ElapsedMs = toMillis(stats.P90Elapsed)
	stats.P99ElapsedMs = toMillis(stats.P99Elapsed)

	return stats
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
