package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer shared with the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_Animates(t *testing.T) {
	out := &syncBuffer{}
	s := newSpinner(out, true)
	s.Start("Checking for iwes updates...")

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "| Checking for iwes updates...")
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop("")
	got := out.String()
	require.True(t, strings.HasSuffix(got, "\r"+strings.Repeat(" ", lineWidth)+"\r"), "Stop clears the line")

	time.Sleep(3 * spinnerInterval)
	require.Equal(t, got, out.String(), "no frames after Stop")
}

func TestSpinner_StopWithMessage(t *testing.T) {
	out := &syncBuffer{}
	s := newSpinner(out, true)
	s.Start("working")
	s.Stop("done")
	s.Stop("again")

	require.True(t, strings.HasSuffix(out.String(), "\rdone\n"+"again\n"))
}

func TestSpinner_NonTTY(t *testing.T) {
	var out bytes.Buffer
	s := newSpinner(&out, false)
	s.Start("Checking for iwes updates...")
	s.Start("Still checking...")
	s.Stop("Installed iwes 2.3.1")

	require.Equal(t, "Checking for iwes updates...\nStill checking...\nInstalled iwes 2.3.1\n", out.String())
}

func TestNewSpinner_BufferIsNotATerminal(t *testing.T) {
	s := NewSpinner(&bytes.Buffer{})
	require.False(t, s.isTTY)
}
