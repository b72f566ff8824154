package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"mercator-hq/importcheck/pkg/batch"
	"mercator-hq/importcheck/pkg/imports"
)

// ProgressReporter reports progress of a batch run.
type ProgressReporter interface {
	Start(total int)
	Update(done int, result *imports.Result)
	Finish()
}

// SimpleProgress draws a single-line progress bar with a running count of
// failed files.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int
	done    int
	failed  int
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr so the bar never mixes with
// formatted output on stdout.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w}
}

// Start initializes the reporter with the number of files.
func (p *SimpleProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.failed = 0
	p.started = time.Now()

	p.render()
}

// Update records one finished file.
func (p *SimpleProgress) Update(done int, result *imports.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	if result != nil && !result.Valid {
		p.failed++
	}
	p.render()
}

// Finish completes the bar and moves to the next line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// Func adapts the reporter to a batch runner.
func (p *SimpleProgress) Func() batch.ProgressFunc {
	return func(done, _ int, result *imports.Result) {
		p.Update(done, result)
	}
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.done) / float64(p.total) * 100
	barWidth := 30
	filled := int(float64(barWidth) * percent / 100)

	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)

	rate := 0.0
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}

	fmt.Fprintf(p.writer, "\rValidating: [%s] %5.1f%% (%d/%d) %d failed %.1f files/s",
		bar, percent, p.done, p.total, p.failed, rate)
}
