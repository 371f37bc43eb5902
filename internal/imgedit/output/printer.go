package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Printer writes human or JSON output for one invocation. Human output is
// suppressed in JSON and quiet modes; failures always reach errOut unless
// JSON is on. Methods are safe for concurrent use.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	json    bool
	quiet   bool
	noColor bool

	ok, fail, warn, arrow, dim, title, good, partial *color.Color
}

type Option func(*Printer)

func WithJSON(json bool) Option {
	return func(p *Printer) {
		p.json = json
	}
}

func WithQuiet(quiet bool) Option {
	return func(p *Printer) {
		p.quiet = quiet
	}
}

func WithNoColor(noColor bool) Option {
	return func(p *Printer) {
		p.noColor = noColor
	}
}

func WithOutput(out io.Writer) Option {
	return func(p *Printer) {
		p.out = out
	}
}

func WithErrOutput(errOut io.Writer) Option {
	return func(p *Printer) {
		p.errOut = errOut
	}
}

func New(opts ...Option) *Printer {
	p := &Printer{
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.ok = p.style(color.FgGreen)
	p.fail = p.style(color.FgRed)
	p.warn = p.style(color.FgYellow)
	p.arrow = p.style(color.FgCyan)
	p.dim = p.style(color.FgHiBlack)
	p.title = p.style(color.Bold, color.FgCyan)
	p.good = p.style(color.FgGreen)
	p.partial = p.style(color.FgYellow)
	return p
}

func (p *Printer) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.noColor {
		c.DisableColor()
	}
	return c
}

func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) ErrOut() io.Writer {
	return p.errOut
}

func (p *Printer) human() bool {
	return !p.quiet && !p.json
}

func (p *Printer) write(w io.Writer, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

func (p *Printer) Printf(format string, args ...any) {
	if p.human() {
		p.write(p.out, format, args...)
	}
}

func (p *Printer) Println(args ...any) {
	if p.human() {
		p.write(p.out, "%s", fmt.Sprintln(args...))
	}
}

func (p *Printer) Success(format string, args ...any) {
	if p.human() {
		p.write(p.out, "%s %s\n", p.ok.Sprint("✓"), fmt.Sprintf(format, args...))
	}
}

// Warn goes to errOut so it never mixes with image bytes on stdout.
func (p *Printer) Warn(format string, args ...any) {
	if p.human() {
		p.write(p.errOut, "%s %s\n", p.warn.Sprint("!"), fmt.Sprintf(format, args...))
	}
}

func (p *Printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = fmt.Fprintf(p.out, "%s\n", data)
	return err
}

func (p *Printer) Section(title string) {
	if p.human() {
		p.write(p.out, "\n%s\n", p.title.Sprint(title))
	}
}

func (p *Printer) KeyValue(key, value string) {
	if p.human() {
		p.write(p.out, "  %s: %s\n", p.dim.Sprint(key), value)
	}
}

// Summary prints the batch tally line.
func (p *Printer) Summary(successful, failed int) {
	if !p.human() {
		return
	}
	total := successful + failed
	if failed == 0 {
		p.write(p.out, "\n%s\n", p.good.Sprintf("%d/%d completed successfully", successful, total))
		return
	}
	p.write(p.out, "\n%s\n", p.partial.Sprintf("%d/%d completed (%d failed)", successful, total, failed))
}

// FileWritten reports one finished transform.
func (p *Printer) FileWritten(source, dest string, width, height int, size int64) {
	if p.human() {
		p.write(p.out, "%s %s %s %s\n  %s %dx%d, %s\n",
			p.ok.Sprint("✓"), source, p.arrow.Sprint("→"), dest,
			p.dim.Sprint("└─"), width, height, FormatBytes(size))
	}
}

// FileFailed is shown even in quiet mode.
func (p *Printer) FileFailed(filename string, err error) {
	if !p.json {
		p.write(p.errOut, "%s %s: %v\n", p.fail.Sprint("✗"), filename, err)
	}
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n int64) string {
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
