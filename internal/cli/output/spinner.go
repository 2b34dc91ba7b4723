package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows progress for long operations on interactive terminals.
// On non-terminal output it stays silent until the final status line.
type Spinner struct {
	w        io.Writer
	msg      string
	animated bool
	styles   *Styles

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner bound to the renderer's output.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	return &Spinner{
		w:        r.out,
		msg:      msg,
		animated: r.isTTY && r.EffectiveMode() == ModeText,
		styles:   r.styles,
	}
}

// Start begins the animation. No-op when the output is not a terminal.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.animated || s.stop != nil {
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-s.stop:
				// Clear the spinner line before the final status prints
				_, _ = fmt.Fprint(s.w, "\r\033[K")
				return
			case <-ticker.C:
				_, _ = fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.msg)
				i++
			}
		}
	}()
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success(msg string) {
	s.finish(s.styles.StatusSuccess.String(), msg)
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(msg string) {
	s.finish(s.styles.StatusFailed.String(), msg)
}

func (s *Spinner) finish(icon, msg string) {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
		s.done = nil
	}
	s.mu.Unlock()

	_, _ = fmt.Fprintf(s.w, "%s %s\n", icon, msg)
}
