package imagedef

import (
	"bytes"
	"strings"
)

// Document is an image definition assembled from fragments.
type Document struct {
	Fragments []Fragment
}

// Fragment returns the named fragment, or an empty one.
func (d *Document) Fragment(name string) Fragment {
	for _, f := range d.Fragments {
		if f.Name == name {
			return f
		}
	}
	return Fragment{Name: name}
}

// Lines returns every line in document order.
func (d *Document) Lines() []string {
	var lines []string
	for _, f := range d.Fragments {
		lines = append(lines, f.Lines...)
	}
	return lines
}

// Bytes renders the document: the base declaration, a blank line, then every
// other line. Empty fragments leave no trace.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	for i, f := range d.Fragments {
		for _, l := range f.Lines {
			buf.WriteString(l)
			buf.WriteByte('\n')
		}
		if i == 0 && f.Name == FragmentBase {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

func (d *Document) String() string {
	return string(d.Bytes())
}

// Count returns how many lines equal line.
func (d *Document) Count(line string) int {
	n := 0
	for _, l := range d.Lines() {
		if strings.TrimSpace(l) == line {
			n++
		}
	}
	return n
}
