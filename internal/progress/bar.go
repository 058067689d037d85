package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	barWidth       = 30
	redrawInterval = 100 * time.Millisecond
)

// Bar forwards writes to a destination and redraws a download bar on a
// terminal as bytes pass through.
type Bar struct {
	mu      sync.Mutex
	dst     io.Writer
	out     io.Writer
	total   int64
	written int64
	start   time.Time
	drawn   time.Time
	now     func() time.Time
}

// NewBar counts bytes written to dst and draws on out. A total of zero or
// less means the size is unknown; only the count and rate are shown.
func NewBar(dst io.Writer, total int64, out io.Writer) *Bar {
	return &Bar{dst: dst, out: out, total: total, start: time.Now(), now: time.Now}
}

func (b *Bar) Write(p []byte) (int, error) {
	n, err := b.dst.Write(p)
	if n > 0 {
		b.mu.Lock()
		b.written += int64(n)
		if now := b.now(); now.Sub(b.drawn) >= redrawInterval && now.Sub(b.start) >= redrawInterval {
			b.drawn = now
			line := b.render(now)
			_, _ = io.WriteString(b.out, "\r"+padRight(line, lineWidth))
		}
		b.mu.Unlock()
	}
	return n, err
}

// Done erases the bar.
func (b *Bar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clearLine(b.out, lineWidth)
}

// render formats the bar for the bytes written so far.
func (b *Bar) render(now time.Time) string {
	elapsed := now.Sub(b.start).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(b.written) / elapsed
	}

	if b.total <= 0 {
		return fmt.Sprintf("   Downloaded: %s (%s/s)", humanBytes(b.written), humanBytes(int64(rate)))
	}

	frac := float64(b.written) / float64(b.total)
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * barWidth)
	var bar string
	if filled >= barWidth {
		bar = strings.Repeat("=", barWidth)
	} else {
		bar = strings.Repeat("=", filled) + ">" + strings.Repeat(" ", barWidth-filled-1)
	}

	eta := "--:--"
	if rate > 0 {
		eta = clock(time.Duration(float64(b.total-b.written) / rate * float64(time.Second)))
	}
	return fmt.Sprintf("   [%s] %3.0f%% (%s/%s) %s/s ETA: %s",
		bar, frac*100, humanBytes(b.written), humanBytes(b.total), humanBytes(int64(rate)), eta)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// humanBytes formats n with a binary unit suffix.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	v := float64(n) / unit
	for _, suffix := range []string{"KB", "MB"} {
		if v < unit {
			return fmt.Sprintf("%.1f%s", v, suffix)
		}
		v /= unit
	}
	return fmt.Sprintf("%.1fGB", v)
}

// clock formats d as M:SS, or H:MM:SS from an hour up.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s%3600/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
