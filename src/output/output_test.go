package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_NoColor(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Writer: &buf}

	p.Notice("fetching %s", "x.rpm")
	p.Warn("oops")
	p.Command("docker run -d gw:latest")

	assert.Equal(t, "fetching x.rpm\noops\n\n    docker run -d gw:latest\n\n", buf.String())
}

func TestPrinter_Color(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Writer: &buf, Color: true}

	p.Notice("hi")
	assert.Equal(t, colorYellow+"hi"+colorReset+"\n", buf.String())
}

func TestPrinter_LinesSplitsWrites(t *testing.T) {
	var buf bytes.Buffer
	w := (&Printer{Writer: &buf}).Lines()

	fmt.Fprint(w, "first line\nsec")
	assert.Equal(t, "first line\n", buf.String())

	fmt.Fprint(w, "ond\n")
	assert.Equal(t, "first line\nsecond\n", buf.String())
}

func TestSection_Render(t *testing.T) {
	var buf bytes.Buffer
	sec := NewSection(&buf, "Context", 1500*time.Millisecond, false)
	sec.KV("image", "gateway:latest")
	sec.Separator()
	sec.Status("auth", "basic", StatusSuccess)
	sec.Status("ldap", "", StatusSkipped)
	sec.Close()

	out := buf.String()
	assert.Contains(t, out, "── Context ")
	assert.Contains(t, out, " 1.5s ──")
	assert.Contains(t, out, "    │ image           gateway:latest\n")
	assert.Contains(t, out, "    │ auth            basic ✓\n")
	assert.Contains(t, out, "    │ ldap            ⊘\n")
	assert.True(t, strings.HasSuffix(out, "    └"+strings.Repeat("─", sectionWidth)+"\n"))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "<1ms", formatElapsed(10*time.Microsecond))
	assert.Equal(t, "250ms", formatElapsed(250*time.Millisecond))
	assert.Equal(t, "2m3.0s", formatElapsed(123*time.Second))
}

func TestSection_Summary(t *testing.T) {
	var buf bytes.Buffer
	sec := NewSection(&buf, "Summary", 0, false)
	sec.Step("build", StatusSuccess, "gateway:latest")
	sec.Step("launch", StatusSkipped, "--launch not set")
	sec.Total(2*time.Second, StatusSuccess)
	sec.Close()

	out := buf.String()
	assert.Contains(t, out, "── Summary ──")
	assert.Contains(t, out, "    │ build       ✓  gateway:latest\n")
	assert.Contains(t, out, "    │ launch      ⊘  --launch not set\n")
	assert.Contains(t, out, "2.0s   ✓\n")
}

func TestStatus_Icon(t *testing.T) {
	assert.Equal(t, "!", StatusWarning.Icon(false))
	assert.Equal(t, "\033[32m✓"+colorReset, StatusSuccess.Icon(true))
	assert.Equal(t, "⊘", Status("unknown").Icon(false))
}

func TestSectionMarkers(t *testing.T) {
	t.Setenv("GITLAB_CI", "")
	var buf bytes.Buffer
	SectionStart(&buf, "asg_build", "Build")
	assert.Empty(t, buf.String(), "no markers outside GitLab")

	t.Setenv("GITLAB_CI", "true")
	SectionStartCollapsed(&buf, "asg_build", "Build")
	SectionEnd(&buf, "asg_build")

	out := buf.String()
	assert.Regexp(t, `section_start:\d+:asg_build\[collapsed=true\]\r\x1b\[0KBuild\n`, out)
	assert.Regexp(t, `section_end:\d+:asg_build\r\x1b\[0K\n`, out)
}
