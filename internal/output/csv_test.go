package output

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/torosent/codecbench/internal/metrics"
)

func TestWriteCSV(t *testing.T) {
	files := []string{"b.bin", "a.bin", "skipped.bin"}
	series := []Series{
		{Name: "flate", Samples: []metrics.Sample{
			{Path: "b.bin", Size: 2.5, Elapsed: 1500 * time.Microsecond},
			{Path: "a.bin", Size: 1, Elapsed: 2 * time.Millisecond},
		}},
		{Name: "zstd", Samples: []metrics.Sample{
			{Path: "b.bin", Size: 2.5, Elapsed: time.Millisecond},
		}},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, files, series); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{
		{"file", "size", "flate", "zstd"},
		{"b.bin", "2.5", "1.5000", "1.0000"},
		{"a.bin", "1", "2.0000", ""},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %v", len(records), len(want), records)
	}
	for i := range want {
		for j := range want[i] {
			if records[i][j] != want[i][j] {
				t.Errorf("record[%d][%d] = %q, want %q", i, j, records[i][j], want[i][j])
			}
		}
	}
}
