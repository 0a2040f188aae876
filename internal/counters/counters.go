// Package counters keeps named diagnostic counters that codec code paths bump
// during trials and that are dumped once at the end of a run.
package counters

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Set is an independent group of named counters backed by a private registry.
type Set struct {
	registry *prometheus.Registry
	hits     *prometheus.CounterVec
}

// New creates an empty counter set.
func New() *Set {
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codecbench",
		Name:      "diagnostic_hits_total",
		Help:      "Number of times a named codec code path was taken.",
	}, []string{"name"})
	reg := prometheus.NewRegistry()
	reg.MustRegister(hits)
	return &Set{registry: reg, hits: hits}
}

// Default is the process-wide set used by Inc, Add and Dump.
var Default = New()

// Inc increments the named counter of the default set.
func Inc(name string) { Default.Add(name, 1) }

// Add adds n to the named counter of the default set.
func Add(name string, n float64) { Default.Add(name, n) }

// Dump writes the default set.
func Dump(w io.Writer) error { return Default.Dump(w) }

// Add adds n to the named counter. Negative values are ignored.
func (s *Set) Add(name string, n float64) {
	if n < 0 {
		return
	}
	s.hits.WithLabelValues(name).Add(n)
}

// Inc increments the named counter.
func (s *Set) Inc(name string) { s.Add(name, 1) }

// Reset drops every counter.
func (s *Set) Reset() { s.hits.Reset() }

// Entry is one counter value.
type Entry struct {
	Name  string
	Value float64
}

// Snapshot returns the current counters sorted by name.
func (s *Set) Snapshot() ([]Entry, error) {
	families, err := s.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather counters: %w", err)
	}
	var entries []Entry
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "name" {
					name = lp.GetValue()
				}
			}
			entries = append(entries, Entry{Name: name, Value: m.GetCounter().GetValue()})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Dump prints every counter sorted by name. Nothing is printed when no
// counter was touched.
func (s *Set) Dump(w io.Writer) error {
	entries, err := s.Snapshot()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	width := 0
	for _, e := range entries {
		if len(e.Name) > width {
			width = len(e.Name)
		}
	}
	fmt.Fprintln(w, "\n--- Counters ---")
	for _, e := range entries {
		fmt.Fprintf(w, "%-*s %d\n", width+1, e.Name+":", int64(e.Value))
	}
	return nil
}
