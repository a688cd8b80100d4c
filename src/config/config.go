package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".asg-builder.yml"

// Defaults applied before any config file or flag is read.
const (
	DefaultBaseImage    = "f5devcentral/f5-api-services-gateway:latest"
	DefaultTLSPort      = 8443
	DefaultEngine       = "docker"
	DefaultFetchTimeout = 600 // seconds
)

// BuildConfig is the full option set for one generator invocation.
// It is treated as immutable once Validate has accepted it.
type BuildConfig struct {
	// ImageName names both the image and its working directory.
	// Validate lowercases it.
	ImageName string `yaml:"image_name" toml:"image_name"`

	// BaseImage is the image the generated definition extends.
	BaseImage string `yaml:"base_image" toml:"base_image"`

	Auth AuthConfig `yaml:"auth" toml:"auth"`

	TLSPort  int `yaml:"tls_port" toml:"tls_port"`
	HTTPPort int `yaml:"http_port" toml:"http_port"` // 0 disables

	// Localhost restricts published ports to 127.0.0.1.
	Localhost bool `yaml:"localhost" toml:"localhost"`

	// TrustedPeers are opaque user:password:address descriptors, joined
	// verbatim in order.
	TrustedPeers []string `yaml:"trusted_peers" toml:"trusted_peers"`

	// Payloads are local paths or http(s) URLs, staged and copied in order.
	Payloads []string `yaml:"payloads" toml:"payloads"`

	ConfigVolume     string `yaml:"config_volume" toml:"config_volume"`
	ExtensionsVolume string `yaml:"extensions_volume" toml:"extensions_volume"`

	Launch     bool `yaml:"launch" toml:"launch"`
	Foreground bool `yaml:"foreground" toml:"foreground"`

	// Root is the directory working directories are created under.
	Root string `yaml:"root" toml:"root"`

	// Engine is the container engine binary (docker, podman).
	Engine string `yaml:"engine" toml:"engine"`

	// FetchTimeout bounds each remote payload fetch, in seconds. <=0 means no bound.
	FetchTimeout int `yaml:"fetch_timeout" toml:"fetch_timeout"`
}

// Load reads configuration from a YAML or TOML file.
// If path is empty, it tries the default file and returns defaults when
// that file doesn't exist. An explicitly named file must exist.
func Load(path string) (*BuildConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Defaults(), nil
		}
		return nil, err
	}

	cfg := Defaults()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// decode picks the decoder from the file extension. Unknown keys are errors.
func decode(path string, data []byte, cfg *BuildConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}

// Defaults returns a config with every documented default filled in.
func Defaults() *BuildConfig {
	return &BuildConfig{
		BaseImage:    DefaultBaseImage,
		Auth:         AuthConfig{Mode: AuthNone},
		TLSPort:      DefaultTLSPort,
		Root:         ".",
		Engine:       DefaultEngine,
		FetchTimeout: DefaultFetchTimeout,
	}
}

// ImageRef is the image reference built and launched.
func (c *BuildConfig) ImageRef() string {
	return c.ImageName + ":latest"
}
