// Package payload stages extension packages into a working directory's
// cache and produces the instructions that copy them into the image.
package payload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sofmeright/asg-builder/src/workdir"
)

// InstallDir is where staged payloads land inside the image.
const InstallDir = "/root/lx"

// Staged is the outcome for one payload reference.
type Staged struct {
	Locator  Locator
	Filename string
	Reused   bool  // already present in the cache; nothing fetched
	Bytes    int64 // bytes written this run; 0 when reused
}

// CopyInstruction is the image-definition line that installs the payload.
func (s Staged) CopyInstruction() string {
	return fmt.Sprintf("COPY %s %s", path.Join(workdir.PayloadDir, s.Filename), path.Join(InstallDir, s.Filename))
}

// Stager resolves payload references one at a time, in order.
type Stager struct {
	Remote Fetcher
	Local  Fetcher

	// Notices receives one human-readable line per reference.
	Notices io.Writer
	Logger  *zap.Logger
}

// NewStager returns a Stager using HTTP for remote and the filesystem for
// local references.
func NewStager(remote *HTTPFetcher, notices io.Writer, logger *zap.Logger) *Stager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notices == nil {
		notices = io.Discard
	}
	return &Stager{Remote: remote, Local: FileFetcher{}, Notices: notices, Logger: logger}
}

// Stage makes every reference available under dir's payload directory.
//
// A file already present under the derived name counts as staged and is not
// fetched again. Every locator is parsed before the first fetch. The first
// failure aborts the whole step with a *FetchError; payloads staged before
// it stay on disk for the next run.
func (s *Stager) Stage(ctx context.Context, dir *workdir.Dir, refs []string) ([]Staged, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	locs := make([]Locator, 0, len(refs))
	for _, ref := range refs {
		loc, err := ParseLocator(ref)
		if err != nil {
			return nil, &FetchError{Locator: ref, Err: err}
		}
		locs = append(locs, loc)
	}

	stagingDir, err := dir.MkdirAll(workdir.PayloadDir)
	if err != nil {
		return nil, err
	}

	results := make([]Staged, 0, len(locs))
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st := Staged{Locator: loc, Filename: loc.Filename}
		rel := path.Join(workdir.PayloadDir, loc.Filename)

		if dir.Exists(rel) {
			st.Reused = true
			fmt.Fprintf(s.Notices, "%s already staged, skipping\n", loc.Raw)
			s.Logger.Debug("payload cache hit", zap.String("locator", loc.Raw), zap.String("file", rel))
			results = append(results, st)
			continue
		}

		fmt.Fprintf(s.Notices, "fetching %s\n", loc.Raw)
		n, err := s.persist(ctx, stagingDir, loc)
		if err != nil {
			return nil, &FetchError{Locator: loc.Raw, Err: err}
		}
		st.Bytes = n
		s.Logger.Debug("payload staged",
			zap.String("locator", loc.Raw),
			zap.String("kind", loc.Kind.String()),
			zap.String("file", rel),
			zap.Int64("bytes", n))
		results = append(results, st)
	}
	return results, nil
}

// persist writes loc into a temp file and renames it into place, so an
// interrupted fetch never leaves a file that looks staged.
func (s *Stager) persist(ctx context.Context, stagingDir string, loc Locator) (int64, error) {
	fetcher := s.Local
	if loc.Kind == Remote {
		fetcher = s.Remote
	}
	if fetcher == nil {
		return 0, fmt.Errorf("no %s fetcher configured", loc.Kind)
	}

	tmp, err := os.CreateTemp(stagingDir, ".partial-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	n, err := fetcher.Fetch(ctx, loc, tmp)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("closing temp file: %w", err)
	}

	final := filepath.Join(stagingDir, loc.Filename)
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("finalizing %s: %w", loc.Filename, err)
	}
	return n, nil
}
