// Package imagedef composes the gateway image definition and its build
// context from a validated BuildConfig.
package imagedef

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sofmeright/asg-builder/src/auth"
	"github.com/sofmeright/asg-builder/src/config"
	"github.com/sofmeright/asg-builder/src/payload"
	"github.com/sofmeright/asg-builder/src/workdir"
)

// Composer synthesizes a build context.
type Composer struct {
	Auth   *auth.Materializer
	Stager *payload.Stager
	Logger *zap.Logger
}

// NewComposer wires a Composer with its collaborators.
func NewComposer(m *auth.Materializer, s *payload.Stager, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{Auth: m, Stager: s, Logger: logger}
}

// Result is a synthesized build context. The working directory stays
// locked until Release is called.
type Result struct {
	Dir          *workdir.Dir
	Document     *Document
	DocumentPath string
	Payloads     []payload.Staged

	lock *workdir.Lock
}

// Release unlocks the working directory.
func (r *Result) Release() error {
	if r == nil {
		return nil
	}
	err := r.lock.Release()
	r.lock = nil
	return err
}

// Compose validates cfg, writes auth artifacts, stages payloads and writes
// the document to <root>/<image>/Dockerfile.
//
// Nothing touches disk if validation fails. The document is written only
// after every payload is staged. Artifacts from a failed run are left in
// place for the next one.
func (c *Composer) Compose(ctx context.Context, cfg *config.BuildConfig) (res *Result, err error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	dir := workdir.New(cfg.Root, cfg.ImageName)
	if err := dir.Create(); err != nil {
		return nil, err
	}
	lock, err := dir.Lock()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			lock.Release()
		}
	}()

	if err := c.Auth.Materialize(dir, cfg.Auth); err != nil {
		return nil, fmt.Errorf("writing %s auth: %w", cfg.Auth.Mode, err)
	}

	staged, err := c.Stager.Stage(ctx, dir, cfg.Payloads)
	if err != nil {
		return nil, err
	}

	doc := Assemble(cfg, staged)
	if err := dir.WriteFile(workdir.Document, doc.Bytes(), 0o644); err != nil {
		return nil, err
	}

	c.Logger.Debug("wrote image definition",
		zap.String("path", dir.Join(workdir.Document)),
		zap.Int("lines", len(doc.Lines())),
		zap.Int("payloads", len(staged)))

	return &Result{
		Dir:          dir,
		Document:     doc,
		DocumentPath: dir.Join(workdir.Document),
		Payloads:     staged,
		lock:         lock,
	}, nil
}

// Assemble builds the document in its fixed fragment order. It is pure:
// equal inputs give byte-identical documents.
func Assemble(cfg *config.BuildConfig, staged []payload.Staged) *Document {
	return &Document{Fragments: []Fragment{
		BaseFragment(cfg.BaseImage),
		AuthEnvFragment(cfg.Auth.Mode),
		AuthCopyFragment(cfg.Auth.Mode),
		ExposeFragment(cfg.TLSPort, cfg.HTTPPort),
		TrustFragment(cfg.TrustedPeers),
		PayloadFragment(staged),
	}}
}
