package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	sectionWidth = 61 // inner width between │ and line end
	labelWidth   = 16
)

// Status is the outcome shown next to a row.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusWarning Status = "warning"
)

var icons = map[Status]struct{ glyph, ansi string }{
	StatusSuccess: {"✓", "\033[32m"},
	StatusFailed:  {"✗", "\033[31m"},
	StatusSkipped: {"⊘", "\033[33m"},
	StatusWarning: {"!", "\033[33m"},
}

// Icon renders st as a single glyph.
func (st Status) Icon(color bool) string {
	ic, ok := icons[st]
	if !ok {
		ic = icons[StatusSkipped]
	}
	if !color {
		return ic.glyph
	}
	return ic.ansi + ic.glyph + colorReset
}

// Section is a box-drawn block of rows under a titled header.
type Section struct {
	w     io.Writer
	color bool
}

// NewSection writes the header for name and returns the open section.
// A non-zero elapsed is right-aligned in the header.
func NewSection(w io.Writer, name string, elapsed time.Duration, color bool) *Section {
	s := &Section{w: w, color: color}

	label := "── " + name + " "
	suffix := "──"
	if elapsed > 0 {
		suffix = " " + formatElapsed(elapsed) + " ──"
	}
	fill := max(sectionWidth+4-len(label)-len(suffix), 1)
	header := label + strings.Repeat("─", fill) + suffix
	if color {
		header = "\033[2;36m" + header + colorReset
	}
	fmt.Fprintf(w, "\n    %s\n", header)
	return s
}

// Row writes a formatted line inside the frame.
func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "    │ %s\n", fmt.Sprintf(format, args...))
}

// KV writes an aligned key/value row.
func (s *Section) KV(key, value string) {
	s.Row("%-*s%s", labelWidth, key, value)
}

// Status writes a key/value row followed by the icon for st.
func (s *Section) Status(key, detail string, st Status) {
	if detail == "" {
		s.Row("%-*s%s", labelWidth, key, st.Icon(s.color))
		return
	}
	s.Row("%-*s%s %s", labelWidth, key, detail, st.Icon(s.color))
}

// Step writes a summary line: step name, icon, detail.
func (s *Section) Step(name string, st Status, detail string) {
	s.Row("%-12s%s  %s", name, st.Icon(s.color), detail)
}

// Total writes the closing summary line with the overall duration.
func (s *Section) Total(elapsed time.Duration, st Status) {
	s.Row("%-12s%40s   %s", "total", formatElapsed(elapsed), st.Icon(s.color))
}

// Separator writes a mid-section divider.
func (s *Section) Separator() {
	fmt.Fprintf(s.w, "    ├%s\n", strings.Repeat("─", sectionWidth))
}

// Close writes the footer.
func (s *Section) Close() {
	fmt.Fprintf(s.w, "    └%s\n", strings.Repeat("─", sectionWidth))
}

// Dimmed greys text out when color is on.
func Dimmed(text string, color bool) string {
	if !color {
		return text
	}
	return "\033[90m" + text + colorReset
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	return fmt.Sprintf("%dm%.1fs", mins, d.Seconds()-float64(mins*60))
}
