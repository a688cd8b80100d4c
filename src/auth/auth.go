// Package auth writes the gateway's authentication artifacts into a working
// directory and describes where they land inside the image.
package auth

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sofmeright/asg-builder/src/config"
	"github.com/sofmeright/asg-builder/src/workdir"
)

// In-image locations read by the gateway's Apache auth module.
const (
	AuthConfTarget = "/usr/local/apache2/conf/auth/basic.conf"
	PasswdTarget   = "/etc/www/pass/htpasswd.user"
)

// Copy is one file copied from the build context into the image.
type Copy struct {
	Src string // relative to the working directory, slash-separated
	Dst string // absolute path inside the image
}

// Copies returns the files mode installs, in the order they must be copied.
func Copies(mode config.AuthMode) []Copy {
	switch mode {
	case config.AuthBasic:
		return []Copy{
			{Src: workdir.BasicAuthFile, Dst: AuthConfTarget},
			{Src: workdir.BasicPassFile, Dst: PasswdTarget},
		}
	case config.AuthLDAP:
		return []Copy{
			{Src: workdir.LDAPAuthFile, Dst: AuthConfTarget},
		}
	default:
		return nil
	}
}

// Materializer writes credential files for the selected auth mode.
type Materializer struct {
	Hasher Hasher
	Logger *zap.Logger
}

// NewMaterializer returns a Materializer using bcrypt digests.
func NewMaterializer(logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{Hasher: BcryptHasher{}, Logger: logger}
}

// Materialize writes the artifacts for ac into dir.
//
// Required fields are checked before anything is created, so a rejected
// config leaves no auth directories behind. Mode none writes nothing.
func (m *Materializer) Materialize(dir *workdir.Dir, ac config.AuthConfig) error {
	if err := ac.Validate(); err != nil {
		return err
	}

	switch ac.Mode {
	case config.AuthBasic:
		return m.writeBasic(dir, ac.User, ac.Password)
	case config.AuthLDAP:
		return m.writeLDAP(dir, ac.LDAPURL, ac.LDAPBindDN, ac.LDAPBindPassword)
	default:
		return nil
	}
}

func (m *Materializer) writeBasic(dir *workdir.Dir, user, password string) error {
	// Hash first: a hashing failure must not leave directories behind.
	digest, err := m.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password for %s: %w", user, err)
	}

	if _, err := dir.MkdirAll(workdir.BasicAuthDir); err != nil {
		return err
	}
	if _, err := dir.MkdirAll(workdir.BasicPassDir); err != nil {
		return err
	}

	if err := dir.WriteFile(workdir.BasicAuthFile, []byte(basicAuthConf()), 0o644); err != nil {
		return err
	}
	if err := dir.WriteFile(workdir.BasicPassFile, []byte(user+":"+digest+"\n"), 0o600); err != nil {
		return err
	}

	m.Logger.Debug("wrote basic auth",
		zap.String("conf", workdir.BasicAuthFile),
		zap.String("passwd", workdir.BasicPassFile),
		zap.String("user", user))
	return nil
}

func (m *Materializer) writeLDAP(dir *workdir.Dir, url, bindDN, bindPassword string) error {
	if _, err := dir.MkdirAll(workdir.LDAPAuthDir); err != nil {
		return err
	}
	if err := dir.WriteFile(workdir.LDAPAuthFile, []byte(ldapAuthConf(url, bindDN, bindPassword)), 0o600); err != nil {
		return err
	}

	m.Logger.Debug("wrote ldap auth", zap.String("conf", workdir.LDAPAuthFile), zap.String("url", url))
	return nil
}

func basicAuthConf() string {
	return "AuthType basic\n" +
		"AuthName \"private area\"\n" +
		"AuthUserFile " + PasswdTarget + "\n" +
		"Require valid-user\n"
}

// ldapAuthConf embeds the values as quoted literals. Embedded quotes are
// not escaped.
func ldapAuthConf(url, bindDN, bindPassword string) string {
	return "AuthType basic\n" +
		"AuthName \"private area\"\n" +
		"AuthBasicProvider ldap\n\n" +
		"AuthLDAPURL \"" + url + "\"\n" +
		"AuthLDAPBindDN \"" + bindDN + "\"\n" +
		"AuthLDAPBindPassword \"" + bindPassword + "\"\n\n" +
		"Require valid-user\n"
}
