package payload

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/asg-builder/src/workdir"
)

// Package groups staged files that carry the same package name.
type Package struct {
	Name     string
	Versions []StagedFile // ascending; unparseable versions sort first
}

// StagedFile is one file in the payload cache.
type StagedFile struct {
	Filename string
	Version  string // raw version[-release], "" if the name has none
	Arch     string
	Size     int64

	semver *semver.Version
}

// Inventory lists the payload cache of dir, grouped by package name.
//
// Because the cache is keyed by file name, upgrading a payload stages a new
// file next to the old one. Packages with several versions make that visible.
func Inventory(dir *workdir.Dir) ([]Package, error) {
	entries, err := os.ReadDir(dir.Join(workdir.PayloadDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	byName := map[string]*Package{}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}

		name, sf := ParseFilename(e.Name())
		sf.Size = info.Size()

		pkg, ok := byName[name]
		if !ok {
			pkg = &Package{Name: name}
			byName[name] = pkg
			names = append(names, name)
		}
		pkg.Versions = append(pkg.Versions, sf)
	}

	sort.Strings(names)
	out := make([]Package, 0, len(names))
	for _, n := range names {
		pkg := byName[n]
		sort.SliceStable(pkg.Versions, func(i, j int) bool {
			return versionLess(pkg.Versions[i], pkg.Versions[j])
		})
		out = append(out, *pkg)
	}
	return out, nil
}

// ParseFilename splits an RPM-style name (name-version[-release].arch.rpm).
// Names that don't follow the pattern become their own package with no version.
func ParseFilename(filename string) (string, StagedFile) {
	sf := StagedFile{Filename: filename}

	base, ok := strings.CutSuffix(filename, ".rpm")
	if !ok {
		return filename, sf
	}
	if i := strings.LastIndex(base, "."); i > 0 && !isNumeric(base[i+1:]) {
		sf.Arch = base[i+1:]
		base = base[:i]
	}

	parts := strings.Split(base, "-")
	if len(parts) < 2 {
		return base, sf
	}

	// name-version-release when the second-to-last part is a version,
	// otherwise name-version.
	if len(parts) >= 3 {
		if v, err := semver.NewVersion(parts[len(parts)-2]); err == nil {
			sf.Version = parts[len(parts)-2] + "-" + parts[len(parts)-1]
			sf.semver = v
			return strings.Join(parts[:len(parts)-2], "-"), sf
		}
	}
	if v, err := semver.NewVersion(parts[len(parts)-1]); err == nil {
		sf.Version = parts[len(parts)-1]
		sf.semver = v
		return strings.Join(parts[:len(parts)-1], "-"), sf
	}
	return base, sf
}

func versionLess(a, b StagedFile) bool {
	switch {
	case a.semver == nil && b.semver == nil:
		return a.Filename < b.Filename
	case a.semver == nil:
		return true
	case b.semver == nil:
		return false
	case !a.semver.Equal(b.semver):
		return a.semver.LessThan(b.semver)
	default:
		return a.Version < b.Version
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
