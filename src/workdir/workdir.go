// Package workdir owns the on-disk layout of a per-image build context.
//
// A working directory is named after the image and is created on demand,
// reused across runs, and never removed by this program.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout names, relative to the working directory.
const (
	Document = "Dockerfile"

	BasicAuthDir  = "basic-auth/auth"
	BasicPassDir  = "basic-auth/pass"
	BasicAuthFile = "basic-auth/auth/basic_auth.conf"
	BasicPassFile = "basic-auth/pass/htpasswd.user"

	LDAPAuthDir  = "ldap-auth/auth"
	LDAPAuthFile = "ldap-auth/auth/ldap.conf"

	PayloadDir = "rpms"

	lockFile = ".asg-builder.lock"
)

// Dir is a working directory rooted at Path.
type Dir struct {
	Path string
}

// New returns the working directory for name under root without touching disk.
func New(root, name string) *Dir {
	return &Dir{Path: filepath.Join(root, name)}
}

// Create makes the working directory if it does not exist.
func (d *Dir) Create() error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("creating working directory: %w", err)
	}
	return nil
}

// Join returns rel resolved against the working directory.
func (d *Dir) Join(rel string) string {
	return filepath.Join(d.Path, filepath.FromSlash(rel))
}

// MkdirAll creates rel (and parents) inside the working directory.
func (d *Dir) MkdirAll(rel string) (string, error) {
	p := d.Join(rel)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", rel, err)
	}
	return p, nil
}

// WriteFile writes data to rel, creating parent directories.
func (d *Dir) WriteFile(rel string, data []byte, perm os.FileMode) error {
	p := d.Join(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(rel), err)
	}
	if err := os.WriteFile(p, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}

// Exists reports whether rel exists inside the working directory.
func (d *Dir) Exists(rel string) bool {
	_, err := os.Stat(d.Join(rel))
	return err == nil
}
