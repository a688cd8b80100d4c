package config

// AuthMode selects how the gateway authenticates API callers.
type AuthMode string

const (
	AuthNone  AuthMode = "none"
	AuthBasic AuthMode = "basic"
	AuthLDAP  AuthMode = "ldap"
)

// Custom reports whether the mode installs credential files into the image.
func (m AuthMode) Custom() bool {
	return m == AuthBasic || m == AuthLDAP
}

// AuthConfig holds the selected mode and the credentials it needs.
// Empty strings mean "not provided".
type AuthConfig struct {
	Mode AuthMode `yaml:"mode" toml:"mode"`

	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`

	LDAPURL          string `yaml:"ldap_url" toml:"ldap_url"`
	LDAPBindDN       string `yaml:"ldap_bind_dn" toml:"ldap_bind_dn"`
	LDAPBindPassword string `yaml:"ldap_bind_password" toml:"ldap_bind_password"`
}

// Validate checks that every field the mode requires is present.
// Returns nil or a *ConfigurationError naming the missing fields.
func (a AuthConfig) Validate() error {
	var missing []string
	switch a.Mode {
	case AuthNone, "":
		return nil
	case AuthBasic:
		if a.User == "" {
			missing = append(missing, "user")
		}
		if a.Password == "" {
			missing = append(missing, "password")
		}
		if len(missing) > 0 {
			return &ConfigurationError{Fields: missing, Reason: "basic authorization requires both user and password"}
		}
	case AuthLDAP:
		if a.LDAPURL == "" {
			missing = append(missing, "ldap_url")
		}
		if a.LDAPBindDN == "" {
			missing = append(missing, "ldap_bind_dn")
		}
		if a.LDAPBindPassword == "" {
			missing = append(missing, "ldap_bind_password")
		}
		if len(missing) > 0 {
			return &ConfigurationError{Fields: missing, Reason: "LDAP authorization requires url, bind DN and bind password"}
		}
	default:
		return &ConfigurationError{
			Fields: []string{"auth"},
			Reason: "unknown auth mode " + string(a.Mode) + " (supported: none, basic, ldap)",
		}
	}
	return nil
}
