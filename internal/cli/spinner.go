package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/mmgreduce/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on w until it is stopped or its context is
// cancelled. The message can change while it runs.
type Spinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	message string
	width   int // widest line drawn so far, for clearing
}

// newSpinner creates a spinner writing to w that stops when ctx is done.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the text shown next to the animation.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Message returns the current text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Pad so a shorter message overwrites a longer one.
	pad := ""
	if n := len(s.message) + 2; n < s.width {
		pad = strings.Repeat(" ", s.width-n)
	}
	s.width = max(s.width, len(s.message)+2)
	fmt.Fprintf(s.w, "\r%s %s%s", styleIconSpinner.Render(frame), StyleDim.Render(s.message), pad)
}

// Stop ends the animation and clears the line. It is safe to call more than
// once.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
	s.width = 0
}

// StopWithError stops the spinner and prints message as a failure on p.
func (s *Spinner) StopWithError(p *printer, message string) {
	s.Stop()
	p.failure("%s", message)
}

// Cancelled reports whether the spinner's context was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Phase Reporting
// =============================================================================

// phaseReporter shows the running reduction phase on a spinner and forwards
// every event to the hooks that were registered before it.
type phaseReporter struct {
	spinner *Spinner
	prefix  string
	next    observability.ReductionHooks
}

func (r *phaseReporter) OnPhaseStart(ctx context.Context, phase string, nodes, edges int) {
	r.spinner.SetMessage(fmt.Sprintf("%s %s (%d nodes, %d edges)", r.prefix, phase, nodes, edges))
	r.next.OnPhaseStart(ctx, phase, nodes, edges)
}

func (r *phaseReporter) OnPhaseComplete(ctx context.Context, phase string, nodes, edges int, d time.Duration, err error) {
	r.next.OnPhaseComplete(ctx, phase, nodes, edges, d, err)
}

// reportPhases registers reduction hooks that update s with the phase in
// progress. The returned function restores the previous hooks.
func reportPhases(s *Spinner) (restore func()) {
	prev := observability.Reduction()
	observability.SetReductionHooks(&phaseReporter{spinner: s, prefix: s.Message(), next: prev})
	return func() { observability.SetReductionHooks(prev) }
}
