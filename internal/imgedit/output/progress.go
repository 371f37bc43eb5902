package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress counts finished batch entries and shows them on a bar. Done may be
// called from several goroutines.
type Progress struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	label   string
	done    int
	failed  int
	quiet   bool
	out     io.Writer
	started time.Time
}

type ProgressOption func(*Progress)

func ProgressWithQuiet(quiet bool) ProgressOption {
	return func(p *Progress) {
		p.quiet = quiet
	}
}

func ProgressWithOutput(out io.Writer) ProgressOption {
	return func(p *Progress) {
		p.out = out
	}
}

// NewProgress draws on stderr unless told otherwise. A quiet Progress still
// counts.
func NewProgress(total int, label string, opts ...ProgressOption) *Progress {
	p := &Progress{
		label:   label,
		out:     os.Stderr,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.quiet {
		return p
	}

	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(p.out)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return p
}

// Done records one finished entry. Failures are tallied in the label.
func (p *Progress) Done(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if !ok {
		p.failed++
	}
	if p.bar == nil {
		return
	}
	if !ok {
		p.bar.Describe(fmt.Sprintf("%s [red](%d failed)[reset]", p.label, p.failed))
	}
	_ = p.bar.Add(1)
}

// Counts returns the finished and failed totals so far.
func (p *Progress) Counts() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.started)
}
