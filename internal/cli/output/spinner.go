package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner displays a progress animation. It can be started again after it
// has been stopped.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	frames  []string
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a new spinner.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// SetMessage changes the text shown next to the animation.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Running reports whether the animation is active.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Start starts the spinner animation. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	done, stopped := make(chan struct{}), make(chan struct{})
	s.done, s.stopped = done, stopped

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
			s.mu.Unlock()
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// halt stops the animation goroutine and waits for it to exit.
func (s *Spinner) halt() {
	s.mu.Lock()
	done, stopped := s.done, s.stopped
	s.done, s.stopped = nil, nil
	s.mu.Unlock()
	if done == nil {
		return
	}
	close(done)
	<-stopped
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.halt()
	s.mu.Lock()
	fmt.Fprint(s.w, "\r\033[K")
	s.mu.Unlock()
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	s.halt()
	s.mu.Lock()
	fmt.Fprintf(s.w, "\r\033[K✓ %s\n", message)
	s.mu.Unlock()
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	s.halt()
	s.mu.Lock()
	fmt.Fprintf(s.w, "\r\033[K✗ %s\n", message)
	s.mu.Unlock()
}
