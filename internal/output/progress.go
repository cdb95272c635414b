package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	barWidth = 30
	// unknownStep is how many bytes pass between redraws when the size is unknown.
	unknownStep = 256 << 10
)

// Progress draws a single-line download bar. Updates are dropped when the
// destination is not a terminal.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	styles  Styles
	enabled bool
	last    int64
	drawn   bool
}

// NewProgress creates a bar for w, enabled only when w is a terminal.
func NewProgress(w io.Writer, label string) *Progress {
	return newProgress(w, label, IsTerminal(w))
}

func newProgress(w io.Writer, label string, enabled bool) *Progress {
	return &Progress{w: w, label: label, styles: NewStyles(w), enabled: enabled, last: -1}
}

// Update redraws the bar. It matches the update.ProgressFunc signature.
func (p *Progress) Update(written, total int64) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var step int64
	if total > 0 {
		step = written * 100 / total
	} else {
		step = written / unknownStep
	}
	if step == p.last {
		return
	}
	p.last = step
	p.drawn = true
	_, _ = fmt.Fprintf(p.w, "\r%s %s", p.styles.Label.Render(p.label), p.render(written, total))
}

// Done ends the bar line if anything was drawn.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		_, _ = fmt.Fprintln(p.w)
		p.drawn = false
	}
}

func (p *Progress) render(written, total int64) string {
	if total <= 0 {
		return HumanBytes(written)
	}
	if written > total {
		written = total
	}
	filled := int(written * barWidth / total)
	bar := p.styles.OK.Render(strings.Repeat("█", filled)) +
		p.styles.Dim.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("[%s] %3d%% %s/%s", bar, written*100/total, HumanBytes(written), HumanBytes(total))
}

// HumanBytes formats n using binary units.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
