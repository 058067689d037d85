package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// StatusPrinter shows install status transitions on one output.
//
// Checking animates a spinner until the next transition. Downloading stops
// the spinner and prints a plain line so the download bar can draw beneath
// it. A quiet printer discards everything.
type StatusPrinter struct {
	mu      sync.Mutex
	output  io.Writer
	quiet   bool
	spinner *Spinner
}

// NewStatusPrinter writes to output, or os.Stderr when nil.
func NewStatusPrinter(output io.Writer, quiet bool) *StatusPrinter {
	if output == nil {
		output = os.Stderr
	}
	return &StatusPrinter{output: output, quiet: quiet}
}

// Checking reports that the latest release is being looked up.
func (p *StatusPrinter) Checking(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked("")
	p.spinner = NewSpinner(p.output)
	p.spinner.Start(message)
}

// Downloading reports that an asset download has started.
func (p *StatusPrinter) Downloading(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked("")
	fmt.Fprintln(p.output, message)
}

// Finish stops any running spinner and prints message if it is not empty.
func (p *StatusPrinter) Finish(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked(message)
}

func (p *StatusPrinter) stopLocked(message string) {
	if p.spinner == nil {
		if message != "" {
			fmt.Fprintln(p.output, message)
		}
		return
	}
	p.spinner.Stop(message)
	p.spinner = nil
}
