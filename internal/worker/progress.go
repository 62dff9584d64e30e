package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ProgressState is everything the lease protocol knows after one round
// that the progress display needs to render a line (§4.8).
type ProgressState struct {
	QueuedAfter      int64
	RunningElapsed   []time.Duration
	Workers          int
	MaxJobsRemaining int // meaningless unless HasMaxJobs
	HasMaxJobs       bool
	AverageDuration  time.Duration
}

// Progress renders a single self-overwriting terminal status line. It is
// a no-op when stdout is not a terminal, matching the teacher's
// TTY-gated console styling.
type Progress struct {
	mu         sync.Mutex
	out        io.Writer
	isTTY      bool
	startTime  time.Time
	deadline   time.Time
	hasDead    bool
	waiting    bool
	lastRender time.Time
	lastLine   int
}

// NewProgress builds a progress display. deadline is the zero Time when
// no max_duration was configured.
func NewProgress(deadline time.Time, hasDeadline bool) *Progress {
	return &Progress{
		out:       os.Stdout,
		isTTY:     isatty.IsTerminal(os.Stdout.Fd()),
		startTime: time.Now(),
		deadline:  deadline,
		hasDead:   hasDeadline,
	}
}

// Update recomputes the ETA from state and renders the "running" style,
// subject to the 1s minimum update interval.
func (p *Progress) Update(state ProgressState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiting = false
	p.renderRunning(state)
}

// SetWaiting switches the display into the "waiting for new jobs..."
// style; the next Update call switches it back.
func (p *Progress) SetWaiting() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiting = true
	p.renderWaiting()
}

func (p *Progress) renderRunning(state ProgressState) {
	if !p.shouldRender() {
		return
	}

	eta := estimateETA(state, p.hasDead, p.deadline)
	line := fmt.Sprintf(
		"queued=%d running=%d workers=%d avg=%s eta=%s",
		state.QueuedAfter,
		len(state.RunningElapsed),
		state.Workers,
		formatDuration(state.AverageDuration),
		formatDuration(eta),
	)
	p.write(line)
}

func (p *Progress) renderWaiting() {
	if !p.shouldRender() {
		return
	}
	elapsed := time.Since(p.startTime)
	line := fmt.Sprintf("elapsed=%s waiting for new jobs...", formatDuration(elapsed))
	p.write(line)
}

func (p *Progress) shouldRender() bool {
	if time.Since(p.lastRender) < time.Second && !p.lastRender.IsZero() {
		return false
	}
	p.lastRender = time.Now()
	return true
}

func (p *Progress) write(line string) {
	if !p.isTTY {
		return
	}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 && len(line) > width {
		line = line[:width]
	}
	pad := p.lastLine - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(p.out, "\r%s%s", color.CyanString(line), strings.Repeat(" ", pad))
	p.lastLine = len(line)
}

// Finish clears the progress line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isTTY {
		return
	}
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", p.lastLine))
}

// estimateETA implements §4.8's formula: the sum, over every in-flight
// job, of how much of its average duration is probably left, plus the
// average duration times however many more queued jobs will actually be
// taken (bounded by max_jobs if set), divided across the worker count —
// clamped above by the wall-clock time left before a deadline.
func estimateETA(state ProgressState, hasDeadline bool, deadline time.Time) time.Duration {
	if state.Workers <= 0 {
		return 0
	}

	var inFlightRemaining time.Duration
	for _, elapsed := range state.RunningElapsed {
		left := state.AverageDuration - elapsed
		if left > 0 {
			inFlightRemaining += left
		}
	}

	willTake := state.QueuedAfter
	if state.HasMaxJobs && int64(state.MaxJobsRemaining) < willTake {
		willTake = int64(state.MaxJobsRemaining)
	}
	if willTake < 0 {
		willTake = 0
	}

	total := inFlightRemaining + state.AverageDuration*time.Duration(willTake)
	eta := total / time.Duration(state.Workers)

	if hasDeadline {
		if remaining := time.Until(deadline); remaining < eta {
			if remaining < 0 {
				remaining = 0
			}
			eta = remaining
		}
	}

	return eta
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}
