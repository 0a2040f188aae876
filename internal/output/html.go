package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/codecbench/internal/metrics"
	"github.com/torosent/codecbench/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Report           Report
	Ranked           []RankedRow
	ThresholdSummary *ThresholdSummary
}

// RankedRow is one implementation row of the ranking table.
type RankedRow struct {
	Rank     int
	Stats    metrics.Stats
	Relative float64 // geomean throughput relative to the fastest, 0..1
}

// ThresholdSummary aggregates threshold outcomes for the report header.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []threshold.Result
}

// GenerateHTMLReport generates a standalone HTML report of a run.
func GenerateHTMLReport(w io.Writer, report Report, thresholdResults []threshold.Result) error {
	var thresholdSummary *ThresholdSummary
	if len(thresholdResults) > 0 {
		thresholdSummary = &ThresholdSummary{
			Total:   len(thresholdResults),
			Results: thresholdResults,
		}
		for _, tr := range thresholdResults {
			if tr.Pass {
				thresholdSummary.Passed++
			} else {
				thresholdSummary.Failed++
			}
		}
	}

	ranked := Rank(report.Implementations)
	rows := make([]RankedRow, len(ranked))
	for i, s := range ranked {
		rows[i] = RankedRow{Rank: i + 1, Stats: s}
		if best := ranked[0].GeomeanThroughput; best > 0 {
			rows[i].Relative = s.GeomeanThroughput / best
		}
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Report:           report,
		Ranked:           rows,
		ThresholdSummary: thresholdSummary,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(f float64) string {
			return fmt.Sprintf("%.2f", f*100)
		},
		"barWidth": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>codecbench {{.Report.Mode}} report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .bar {
            height: 10px;
            border-radius: 5px;
            background: linear-gradient(90deg, #667eea 0%, #764ba2 100%);
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>codecbench: {{.Report.Mode}} on {{.Report.Corpus}}</h1>
            <div class="meta">Run {{.Report.RunID}} | {{.Report.Files}} files | Generated: {{.GeneratedAt}}{{if .Report.Interrupted}} | <strong>interrupted</strong>{{end}}</div>
        </header>
        <div class="content">
            <div class="section">
                <h2>Ranking</h2>
                {{if .Ranked}}
                <table>
                    <thead>
                        <tr>
                            <th>#</th>
                            <th>Implementation</th>
                            <th>Geomean</th>
                            <th>Average</th>
                            <th>Ratio (average)</th>
                            <th>Ratio (total)</th>
                            <th>P50 / P99 (ms)</th>
                            <th>Files</th>
                            <th></th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Ranked}}
                        <tr>
                            <td>{{.Rank}}</td>
                            <td><strong>{{.Stats.Name}}</strong></td>
                            <td>{{formatFloat .Stats.GeomeanThroughput}} {{.Stats.Unit}}</td>
                            <td>{{formatFloat .Stats.MeanThroughput}} {{.Stats.Unit}}</td>
                            <td>{{if .Stats.HasRatio}}{{formatPercent .Stats.MeanRatio}}%{{else}}-{{end}}</td>
                            <td>{{if .Stats.HasRatio}}{{formatPercent .Stats.RatioOfMeans}}%{{else}}-{{end}}</td>
                            <td>{{formatFloat .Stats.P50ElapsedMs}} / {{formatFloat .Stats.P99ElapsedMs}}</td>
                            <td>{{.Stats.Samples}}</td>
                            <td style="width: 20%"><div class="bar" style="width: {{barWidth .Relative}}"></div></td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <div class="no-data">No implementation produced samples.</div>
                {{end}}
            </div>

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Implementation</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{.Implementation}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">PASS</span>
                                {{else}}
                                <span class="badge badge-error">FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
