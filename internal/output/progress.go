package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/time/rate"
)

const progressBarWidth = 40

// ProgressBar is a single-line progress indicator for one implementation pass.
// Redraws are rate limited and happen outside the timed window of a trial.
type ProgressBar struct {
	w       io.Writer
	bar     progress.Model
	limiter *rate.Limiter
	every   time.Duration
	total   int
	done    int
	drawn   int // visible width of the last drawn line
}

// NewProgressBar creates a progress bar redrawing at most once per interval.
func NewProgressBar(w io.Writer, interval time.Duration) *ProgressBar {
	if w == nil {
		w = io.Discard
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &ProgressBar{
		w:       w,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressBarWidth)),
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		every:   interval,
	}
}

// Reset starts a new pass over total files.
func (p *ProgressBar) Reset(total int) {
	p.total = total
	p.done = 0
	p.limiter = rate.NewLimiter(rate.Every(p.every), 1)
	p.draw()
}

// Inc advances the bar by one file.
func (p *ProgressBar) Inc() {
	p.done++
	if p.done >= p.total || p.limiter.Allow() {
		p.draw()
	}
}

// Clear erases the bar so the summary line starts on a clean row.
func (p *ProgressBar) Clear() {
	if p.drawn == 0 {
		return
	}
	fmt.Fprint(p.w, "\r"+strings.Repeat(" ", p.drawn)+"\r")
	p.drawn = 0
}

func (p *ProgressBar) draw() {
	percent := 0.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total)
	}
	counter := fmt.Sprintf(" %d/%d", p.done, p.total)
	fmt.Fprint(p.w, "\r"+p.bar.ViewAs(percent)+counter)
	p.drawn = progressBarWidth + len(counter)
}
