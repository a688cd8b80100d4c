package imagedef

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

var (
	fromRe   = regexp.MustCompile(`(?i)^FROM\s+(\S+)`)
	envRe    = regexp.MustCompile(`(?i)^ENV\s+(\S+?)=(.*)$`)
	exposeRe = regexp.MustCompile(`(?i)^EXPOSE\s+(.+)`)
	copyRe   = regexp.MustCompile(`(?i)^COPY\s+(\S+)\s+(\S+)$`)
)

// Copy is one COPY instruction read back from a definition.
type Copy struct {
	Src string
	Dst string
}

// Definition is what ReadDefinition recovers from a previously written
// document. Only the instructions this program emits are recognized.
type Definition struct {
	Base   string
	Env    map[string]string
	Expose []string
	Copies []Copy
}

// Installs reports whether the definition copies src into the image.
func (d *Definition) Installs(src string) bool {
	for _, c := range d.Copies {
		if c.Src == src {
			return true
		}
	}
	return false
}

// ReadDefinition scans the document at path line by line.
func ReadDefinition(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	def := &Definition{Env: map[string]string{}}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := fromRe.FindStringSubmatch(line); m != nil {
			def.Base = m[1]
			continue
		}
		if m := envRe.FindStringSubmatch(line); m != nil {
			def.Env[m[1]] = strings.Trim(m[2], `'"`)
			continue
		}
		if m := exposeRe.FindStringSubmatch(line); m != nil {
			def.Expose = append(def.Expose, strings.Fields(m[1])...)
			continue
		}
		if m := copyRe.FindStringSubmatch(line); m != nil {
			def.Copies = append(def.Copies, Copy{Src: m[1], Dst: m[2]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return def, nil
}
