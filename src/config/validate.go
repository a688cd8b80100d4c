package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ConfigurationError reports missing or contradictory options.
// It is returned before any file is written.
type ConfigurationError struct {
	Fields []string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if len(e.Fields) == 0 {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s (%s)", e.Reason, strings.Join(e.Fields, ", "))
}

// imageNameRe limits names to characters that are valid both in an image
// repository name and as a single directory name.
var imageNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// Validate normalizes cfg in place and checks its invariants.
// All problems are collected into one *ConfigurationError.
func Validate(cfg *BuildConfig) error {
	var errs []*ConfigurationError

	cfg.ImageName = strings.ToLower(strings.TrimSpace(cfg.ImageName))
	switch {
	case cfg.ImageName == "":
		errs = append(errs, &ConfigurationError{Fields: []string{"image_name"}, Reason: "an image name is required"})
	case !imageNameRe.MatchString(cfg.ImageName):
		errs = append(errs, &ConfigurationError{
			Fields: []string{"image_name"},
			Reason: fmt.Sprintf("image name %q must match %s", cfg.ImageName, imageNameRe),
		})
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthNone
	}
	if err := cfg.Auth.Validate(); err != nil {
		errs = append(errs, err.(*ConfigurationError))
	}

	if cfg.BaseImage == "" {
		errs = append(errs, &ConfigurationError{Fields: []string{"base_image"}, Reason: "a base image is required"})
	}
	if cfg.TLSPort < 0 || cfg.TLSPort > 65535 {
		errs = append(errs, &ConfigurationError{Fields: []string{"tls_port"}, Reason: fmt.Sprintf("port %d out of range", cfg.TLSPort)})
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		errs = append(errs, &ConfigurationError{Fields: []string{"http_port"}, Reason: fmt.Sprintf("port %d out of range", cfg.HTTPPort)})
	}

	for i, ref := range cfg.Payloads {
		if strings.TrimSpace(ref) == "" || strings.HasSuffix(ref, "/") {
			errs = append(errs, &ConfigurationError{
				Fields: []string{fmt.Sprintf("payloads[%d]", i)},
				Reason: fmt.Sprintf("payload %q has no file name", ref),
			})
		}
	}

	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Engine == "" {
		cfg.Engine = DefaultEngine
	}

	return merge(errs)
}

func merge(errs []*ConfigurationError) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	merged := &ConfigurationError{}
	reasons := make([]string, 0, len(errs))
	for _, e := range errs {
		merged.Fields = append(merged.Fields, e.Fields...)
		reasons = append(reasons, e.Reason)
	}
	merged.Reason = strings.Join(reasons, "; ")
	return merged
}
