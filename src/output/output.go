package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Printer writes operator-facing messages.
type Printer struct {
	Writer io.Writer
	Color  bool
}

// NewPrinter creates a printer on w with color auto-detection.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{Writer: w, Color: UseColor()}
}

// Notice prints an informational line in yellow.
func (p *Printer) Notice(format string, args ...any) {
	fmt.Fprintln(p.Writer, p.colorize(fmt.Sprintf(format, args...), colorYellow))
}

// Warn prints a line in red.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.Writer, p.colorize(fmt.Sprintf(format, args...), colorRed))
}

// Command prints a shell command for the operator to copy, set off by blank lines.
func (p *Printer) Command(cmd string) {
	fmt.Fprintf(p.Writer, "\n    %s\n\n", p.colorize(cmd, colorCyan))
}

// Heading prints a bold line.
func (p *Printer) Heading(format string, args ...any) {
	fmt.Fprintln(p.Writer, p.colorize(fmt.Sprintf(format, args...), colorBold))
}

// Lines returns a writer that prints each complete line it receives as a
// Notice. Partial lines are held until their newline arrives.
func (p *Printer) Lines() io.Writer {
	return &lineWriter{p: p}
}

type lineWriter struct {
	p   *Printer
	buf []byte
}

func (lw *lineWriter) Write(b []byte) (int, error) {
	lw.buf = append(lw.buf, b...)
	for {
		i := bytes.IndexByte(lw.buf, '\n')
		if i < 0 {
			break
		}
		lw.p.Notice("%s", lw.buf[:i])
		lw.buf = lw.buf[i+1:]
	}
	return len(b), nil
}

func (p *Printer) colorize(text, color string) string {
	if !p.Color {
		return text
	}
	return color + text + colorReset
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}
