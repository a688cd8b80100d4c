package payload

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Kind says how a locator's bytes are obtained.
type Kind int

const (
	Local Kind = iota
	Remote
)

func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// Locator is a parsed payload reference.
type Locator struct {
	Raw      string // as given by the operator
	Kind     Kind
	Path     string // filesystem path for Local, full URL for Remote
	Filename string // final path segment; the staging identity key
}

// ParseLocator classifies ref and derives its staged file name.
//
// file://p, file:p and scheme-less references are local paths.
// http:// and https:// references are remote. Anything else is rejected.
func ParseLocator(ref string) (Locator, error) {
	loc := Locator{Raw: ref}

	switch {
	case strings.HasPrefix(ref, "file://"):
		loc.Kind, loc.Path = Local, strings.TrimPrefix(ref, "file://")
	case strings.HasPrefix(ref, "file:"):
		loc.Kind, loc.Path = Local, strings.TrimPrefix(ref, "file:")
	case !strings.Contains(ref, "://"):
		loc.Kind, loc.Path = Local, ref
	default:
		u, err := url.Parse(ref)
		if err != nil {
			return loc, err
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return loc, fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		loc.Kind, loc.Path = Remote, ref
		loc.Filename = path.Base(u.Path)
	}

	if loc.Kind == Local {
		loc.Filename = filepath.Base(loc.Path)
	}

	switch loc.Filename {
	case "", ".", "/", "..":
		return loc, fmt.Errorf("no file name in %q", ref)
	}
	return loc, nil
}
