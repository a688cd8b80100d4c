package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *BuildConfig {
	cfg := Defaults()
	cfg.ImageName = "gateway"
	return cfg
}

func TestValidate_LowercasesImageName(t *testing.T) {
	cfg := validConfig()
	cfg.ImageName = "Gateway"

	require.NoError(t, Validate(cfg))
	assert.Equal(t, "gateway", cfg.ImageName)
	assert.Equal(t, "gateway:latest", cfg.ImageRef())
}

func TestValidate_ImageName(t *testing.T) {
	tests := []struct {
		name  string
		image string
		ok    bool
	}{
		{"plain", "bigip_gateway", true},
		{"dots and dashes", "pool.deployer-1", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"path separator", "a/b", false},
		{"parent dir", "..", false},
		{"leading dash", "-x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.ImageName = tt.image
			err := Validate(cfg)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Fields, "image_name")
		})
	}
}

func TestValidate_BasicAuthRequiresBothFields(t *testing.T) {
	cfg := validConfig()
	cfg.Auth = AuthConfig{Mode: AuthBasic, User: "admin"}

	err := Validate(cfg)
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"password"}, cerr.Fields)

	cfg.Auth.Password = "secret"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_LDAPRequiresAllThreeFields(t *testing.T) {
	cfg := validConfig()
	cfg.Auth = AuthConfig{Mode: AuthLDAP, LDAPURL: "ldap://dc1.example.com"}

	var cerr *ConfigurationError
	require.ErrorAs(t, Validate(cfg), &cerr)
	assert.Equal(t, []string{"ldap_bind_dn", "ldap_bind_password"}, cerr.Fields)
}

func TestValidate_UnknownAuthMode(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = "kerberos"

	var cerr *ConfigurationError
	require.ErrorAs(t, Validate(cfg), &cerr)
	assert.Contains(t, cerr.Error(), "kerberos")
}

func TestValidate_EmptyModeDefaultsToNone(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = ""

	require.NoError(t, Validate(cfg))
	assert.Equal(t, AuthNone, cfg.Auth.Mode)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.ImageName = ""
	cfg.TLSPort = 70000
	cfg.Payloads = []string{"https://host/pkg.rpm", "https://host/dir/"}

	var cerr *ConfigurationError
	require.ErrorAs(t, Validate(cfg), &cerr)
	assert.Equal(t, []string{"image_name", "tls_port", "payloads[1]"}, cerr.Fields)
}

func TestAuthMode_Custom(t *testing.T) {
	assert.False(t, AuthNone.Custom())
	assert.True(t, AuthBasic.Custom())
	assert.True(t, AuthLDAP.Custom())
}
