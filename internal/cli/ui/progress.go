package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates an indeterminate operation on a single line.
type Spinner struct {
	w        io.Writer
	interval time.Duration
	noColor  bool

	mu      sync.Mutex
	message string
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// SpinnerOptions configures a Spinner.
type SpinnerOptions struct {
	Message  string
	NoColor  bool
	Interval time.Duration // default 100ms
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, opts SpinnerOptions) *Spinner {
	interval := opts.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Spinner{
		w:        w,
		interval: interval,
		noColor:  opts.NoColor,
		message:  opts.Message,
	}
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.spin(s.stop)
}

// Stop halts the animation and clears the line. It waits for the animation
// goroutine to exit, so nothing is written to w after Stop returns.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprint(s.w, "\r\033[K")
}

// Success stops the spinner and prints a green check line.
func (s *Spinner) Success(message string) {
	s.Stop()
	green := color.New(color.FgGreen, color.Bold)
	if s.noColor {
		green.DisableColor()
	}
	green.Fprintf(s.w, "✓ %s\n", message)
}

// Error stops the spinner and prints a red failure line.
func (s *Spinner) Error(message string) {
	s.Stop()
	red := color.New(color.FgRed, color.Bold)
	if s.noColor {
		red.DisableColor()
	}
	red.Fprintf(s.w, "❌ %s\n", message)
}

// UpdateMessage swaps the text shown next to the spinner.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

func (s *Spinner) spin(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cyan := color.New(color.FgCyan)
	if s.noColor {
		cyan.DisableColor()
	}

	for frame := 0; ; frame++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			cyan.Fprintf(s.w, "\r%s %s", spinnerFrames[frame%len(spinnerFrames)], msg)
		}
	}
}

// ProgressBar renders a determinate bar for operations with a known size.
type ProgressBar struct {
	w       io.Writer
	total   int
	current int
	width   int
	message string
	noColor bool
}

// ProgressBarOptions configures a ProgressBar.
type ProgressBarOptions struct {
	Total   int
	Width   int // default 40
	Message string
	NoColor bool
}

// NewProgressBar creates a progress bar writing to w.
func NewProgressBar(w io.Writer, opts ProgressBarOptions) *ProgressBar {
	width := opts.Width
	if width <= 0 {
		width = 40
	}
	return &ProgressBar{
		w:       w,
		total:   opts.Total,
		width:   width,
		message: opts.Message,
		noColor: opts.NoColor,
	}
}

// Add advances the bar by n and redraws it.
func (p *ProgressBar) Add(n int) {
	p.Set(p.current + n)
}

// Set moves the bar to n, clamped to [0, total], and redraws it.
func (p *ProgressBar) Set(n int) {
	p.current = max(0, min(n, p.total))
	p.render()
}

// Finish fills the bar and terminates the line.
func (p *ProgressBar) Finish() {
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

// FinishWithMessage fills the bar and prints a green check line.
func (p *ProgressBar) FinishWithMessage(message string) {
	p.Finish()
	green := color.New(color.FgGreen, color.Bold)
	if p.noColor {
		green.DisableColor()
	}
	green.Fprintf(p.w, "✓ %s\n", message)
}

func (p *ProgressBar) render() {
	if p.total <= 0 {
		return
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if p.noColor {
		cyan.DisableColor()
		gray.DisableColor()
	}

	ratio := float64(p.current) / float64(p.total)
	filled := int(float64(p.width) * ratio)

	var line strings.Builder
	line.WriteString("[")
	cyan.Fprint(&line, strings.Repeat("█", filled))
	gray.Fprint(&line, strings.Repeat("░", p.width-filled))
	line.WriteString("]")

	suffix := ""
	if p.message != "" {
		suffix = " " + p.message
	}
	fmt.Fprintf(p.w, "\r%s %3d%%%s", line.String(), int(ratio*100), suffix)
}

// WithSpinner runs fn under a spinner and reports the outcome on its line.
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	spinner := NewSpinner(w, SpinnerOptions{Message: message, NoColor: noColor})
	spinner.Start()
	defer spinner.Stop()

	if err := fn(); err != nil {
		spinner.Error(fmt.Sprintf("%s failed", message))
		return err
	}
	spinner.Success(message)
	return nil
}

// WithProgress runs fn with a progress bar sized to total. fn drives the bar;
// on success the bar is completed with message.
func WithProgress(w io.Writer, message string, total int, noColor bool, fn func(*ProgressBar) error) error {
	bar := NewProgressBar(w, ProgressBarOptions{Total: total, Message: message, NoColor: noColor})
	if err := fn(bar); err != nil {
		fmt.Fprintln(w)
		return err
	}
	bar.FinishWithMessage(message)
	return nil
}
