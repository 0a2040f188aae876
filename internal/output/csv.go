package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/torosent/codecbench/internal/metrics"
)

// Series is the ordered sample list of one implementation.
type Series struct {
	Name    string
	Samples []metrics.Sample
}

// WriteCSV writes one row per corpus file: file, logical size, then the
// elapsed milliseconds of every implementation. A file an implementation did
// not measure gets an empty cell.
func WriteCSV(w io.Writer, files []string, series []Series) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(series)+2)
	header = append(header, "file", "size")
	for _, s := range series {
		header = append(header, s.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	byPath := make([]map[string]metrics.Sample, len(series))
	for i, s := range series {
		byPath[i] = make(map[string]metrics.Sample, len(s.Samples))
		for _, sample := range s.Samples {
			byPath[i][sample.Path] = sample
		}
	}

	for _, file := range files {
		row := make([]string, 2, len(series)+2)
		row[0] = file
		measured := false
		for i := range series {
			sample, ok := byPath[i][file]
			if !ok {
				row = append(row, "")
				continue
			}
			if !measured {
				row[1] = strconv.FormatFloat(sample.Size, 'f', -1, 64)
				measured = true
			}
			row = append(row, strconv.FormatFloat(toMillis(sample.Elapsed.Seconds()), 'f', 4, 64))
		}
		if !measured {
			continue
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func toMillis(seconds float64) float64 {
	return seconds * 1e3
}
