package dashboard

import (
	"context"
	"fmt"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/codecbench/internal/metrics"
	"github.com/torosent/codecbench/internal/output"
)

// RunInfo describes the finished run for the header panel.
type RunInfo struct {
	Mode        string
	Corpus      string
	Files       int
	Interrupted bool
}

// Dashboard renders the ranking of a finished run in the terminal.
type Dashboard struct {
	info  RunInfo
	stats []metrics.Stats

	grid        *ui.Grid
	chart       *widgets.BarChart
	summaryPara *widgets.Paragraph
	ratioList   *widgets.List
	elapsedList *widgets.List
}

// New initializes termui and lays out the widgets for stats.
func New(info RunInfo, stats []metrics.Stats) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}
	d := &Dashboard{info: info, stats: output.Rank(stats)}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

// Show renders the dashboard and blocks until the user presses q or ctx ends.
func Show(ctx context.Context, info RunInfo, stats []metrics.Stats) error {
	d, err := New(info, stats)
	if err != nil {
		return err
	}
	defer ui.Close()
	d.run(ctx)
	return nil
}

func (d *Dashboard) initWidgets() {
	labels, values := chartData(d.stats)

	d.chart = widgets.NewBarChart()
	d.chart.Title = "Geomean throughput"
	if len(d.stats) > 0 {
		d.chart.Title += " (" + d.stats[0].Unit + ")"
	}
	d.chart.Labels = labels
	d.chart.Data = values
	d.chart.BarColors = []ui.Color{ui.ColorGreen, ui.ColorCyan, ui.ColorBlue, ui.ColorMagenta}
	d.chart.LabelStyles = []ui.Style{ui.NewStyle(ui.ColorWhite)}
	d.chart.NumStyles = []ui.Style{ui.NewStyle(ui.ColorBlack)}
	d.chart.NumFormatter = func(v float64) string { return fmt.Sprintf("%.0f", v) }
	d.chart.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = summaryText(d.info, d.stats)
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.ratioList = widgets.NewList()
	d.ratioList.Title = "Compression ratio"
	d.ratioList.Rows = ratioRows(d.stats)
	d.ratioList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.ratioList.BorderStyle.Fg = ui.ColorCyan

	d.elapsedList = widgets.NewList()
	d.elapsedList.Title = "Elapsed P50 / P99 (ms)"
	d.elapsedList.Rows = elapsedRows(d.stats)
	d.elapsedList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.elapsedList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()
	d.chart.BarWidth = barWidth(termWidth, len(d.stats))

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.15,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.55,
			ui.NewCol(1.0, d.chart),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.5, d.ratioList),
			ui.NewCol(0.5, d.elapsedList),
		),
	)
}

func (d *Dashboard) run(ctx context.Context) {
	uiEvents := ui.PollEvents()
	ui.Render(d.grid)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>", "<Escape>":
				return
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.chart.BarWidth = barWidth(payload.Width, len(d.stats))
				ui.Clear()
				ui.Render(d.grid)
			}
		}
	}
}

// chartData returns bar labels and geomean values in the given order.
func chartData(stats []metrics.Stats) ([]string, []float64) {
	labels := make([]string, 0, len(stats))
	values := make([]float64, 0, len(stats))
	for _, s := range stats {
		if s.Empty() {
			continue
		}
		labels = append(labels, s.Name)
		values = append(values, s.GeomeanThroughput)
	}
	return labels, values
}

func summaryText(info RunInfo, stats []metrics.Stats) string {
	status := "complete"
	if info.Interrupted {
		status = "interrupted"
	}
	best := "-"
	if len(stats) > 0 {
		best = fmt.Sprintf("%s (%.2f %s)", stats[0].Name, stats[0].GeomeanThroughput, stats[0].Unit)
	}
	return fmt.Sprintf(
		"Mode: %s | Corpus: %s | Files: %d | Status: %s\nFastest: %s | Press q to quit",
		info.Mode, info.Corpus, info.Files, status, best,
	)
}

func ratioRows(stats []metrics.Stats) []string {
	var rows []string
	for _, s := range stats {
		if !s.HasRatio {
			continue
		}
		rows = append(rows, fmt.Sprintf("%s: %.2f%% (average) %.2f%% (total)", s.Name, s.MeanRatio*100, s.RatioOfMeans*100))
	}
	if len(rows) == 0 {
		return []string{"[No ratio data](fg:green)"}
	}
	return rows
}

func elapsedRows(stats []metrics.Stats) []string {
	rows := make([]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, fmt.Sprintf("%s: %.3f / %.3f", s.Name, s.P50ElapsedMs, s.P99ElapsedMs))
	}
	if len(rows) == 0 {
		return []string{"Awaiting data"}
	}
	return rows
}

// barWidth fits n bars with one column of gap into the chart's inner width.
func barWidth(termWidth, n int) int {
	if n <= 0 {
		return 3
	}
	w := (termWidth-2)/n - 1
	switch {
	case w < 3:
		return 3
	case w > 20:
		return 20
	}
	return w
}
