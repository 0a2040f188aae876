// Package baseline compares a run against a JSON report saved by an earlier run.
package baseline

import (
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/torosent/codecbench/internal/metrics"
)

// Entry is the remembered throughput of one implementation.
type Entry struct {
	Geomean float64
	Mean    float64
	Unit    string
}

// Baseline is a previous run keyed by implementation name.
type Baseline struct {
	Mode    string
	Corpus  string
	Entries map[string]Entry
}

// Load reads a report written with --format json.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	return Parse(data)
}

// Parse extracts the per-implementation throughput from a JSON report.
func Parse(data []byte) (*Baseline, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("baseline is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	impls := doc.Get("implementations")
	if !impls.IsArray() {
		return nil, fmt.Errorf("baseline has no implementations array")
	}

	b := &Baseline{
		Mode:    doc.Get("mode").String(),
		Corpus:  doc.Get("corpus").String(),
		Entries: make(map[string]Entry),
	}
	impls.ForEach(func(_, impl gjson.Result) bool {
		name := impl.Get("name").String()
		if name == "" || impl.Get("samples").Int() == 0 {
			return true
		}
		b.Entries[name] = Entry{
			Geomean: impl.Get("geomean_throughput").Float(),
			Mean:    impl.Get("mean_throughput").Float(),
			Unit:    impl.Get("unit").String(),
		}
		return true
	})
	return b, nil
}

// Delta is the change of one implementation relative to the baseline.
type Delta struct {
	Name     string
	Baseline float64
	Current  float64
	Change   float64 // percent, positive is faster
	Found    bool
}

// Compare matches current stats against the baseline by name, in run order.
func (b *Baseline) Compare(current []metrics.Stats) []Delta {
	deltas := make([]Delta, 0, len(current))
	for _, s := range current {
		if s.Empty() {
			continue
		}
		d := Delta{Name: s.Name, Current: s.GeomeanThroughput}
		if e, ok := b.Entries[s.Name]; ok && e.Geomean > 0 {
			d.Found = true
			d.Baseline = e.Geomean
			d.Change = (s.GeomeanThroughput - e.Geomean) / e.Geomean * 100
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// Print writes the geomean deltas.
func Print(w io.Writer, deltas []Delta) {
	if len(deltas) == 0 {
		return
	}
	width := 0
	for _, d := range deltas {
		if len(d.Name) > width {
			width = len(d.Name)
		}
	}
	fmt.Fprintln(w, "\n--- Baseline (geomean) ---")
	for _, d := range deltas {
		if !d.Found {
			fmt.Fprintf(w, "%-*s %10.2f  (new)\n", width, d.Name, d.Current)
			continue
		}
		fmt.Fprintf(w, "%-*s %10.2f -> %10.2f  %+7.2f%%\n", width, d.Name, d.Baseline, d.Current, d.Change)
	}
}
