// Package progress renders download progress and install status on a
// terminal. Nothing animates when the output is not a terminal.
package progress

import (
	"io"
	"os"

	"golang.org/x/term"
)

// isTerminalFD is swapped out by tests.
var isTerminalFD = term.IsTerminal

// IsTerminal reports whether w is a terminal. Buffers, pipes and nil never are.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isTerminalFD(int(f.Fd()))
}

// clearLine blanks the current terminal line of the given width.
func clearLine(w io.Writer, width int) {
	buf := make([]byte, 0, width+2)
	buf = append(buf, '\r')
	for i := 0; i < width; i++ {
		buf = append(buf, ' ')
	}
	buf = append(buf, '\r')
	_, _ = w.Write(buf)
}

// lineWidth is how much of the line a redraw overwrites.
const lineWidth = 80
