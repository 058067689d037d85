package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	spinnerFrames   = `|/-\`
	spinnerInterval = 100 * time.Millisecond
)

// Spinner animates a message on a terminal. Off a terminal the message is
// printed once.
type Spinner struct {
	out   io.Writer
	isTTY bool

	mu      sync.Mutex
	message string
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner creates a spinner on out.
func NewSpinner(out io.Writer) *Spinner {
	return newSpinner(out, IsTerminal(out))
}

func newSpinner(out io.Writer, isTTY bool) *Spinner {
	return &Spinner{out: out, isTTY: isTTY}
}

// Start shows message. Starting a running spinner only replaces the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if !s.isTTY {
		fmt.Fprintln(s.out, message)
		return
	}
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.spin(s.stop)
}

// Stop ends the animation and prints final unless it is empty. It is safe
// to call more than once.
func (s *Spinner) Stop(final string) {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.wg.Wait()
		clearLine(s.out, lineWidth)
	}
	if final != "" {
		fmt.Fprintln(s.out, final)
	}
}

func (s *Spinner) spin(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			line := fmt.Sprintf("%c %s", spinnerFrames[frame%len(spinnerFrames)], msg)
			_, _ = io.WriteString(s.out, "\r"+padRight(line, lineWidth))
		}
	}
}
