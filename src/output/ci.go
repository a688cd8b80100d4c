package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// IsCI reports whether CI is set to a true value.
func IsCI() bool {
	return envTrue("CI")
}

// IsGitLabCI reports whether the process runs as a GitLab job.
func IsGitLabCI() bool {
	return envTrue("GITLAB_CI")
}

func envTrue(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// SectionStart opens a GitLab job log section. No-op outside GitLab CI.
func SectionStart(w io.Writer, id, name string) {
	sectionMarker(w, "section_start", id, name)
}

// SectionStartCollapsed opens a section that GitLab renders folded.
func SectionStartCollapsed(w io.Writer, id, name string) {
	sectionMarker(w, "section_start", id+"[collapsed=true]", name)
}

// SectionEnd closes the section opened under id.
func SectionEnd(w io.Writer, id string) {
	sectionMarker(w, "section_end", id, "")
}

func sectionMarker(w io.Writer, kind, id, name string) {
	if !IsGitLabCI() {
		return
	}
	fmt.Fprintf(w, "\033[0K%s:%d:%s\r\033[0K%s\n", kind, time.Now().Unix(), id, name)
}
