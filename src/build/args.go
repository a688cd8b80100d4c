package build

import (
	"fmt"
	"strings"

	"github.com/sofmeright/asg-builder/src/config"
)

// In-image mount points for operator-supplied volumes.
const (
	ConfigMountPath     = "/var/config"
	ExtensionsMountPath = "/root/lx"
)

// RunOptions is everything the run command is built from.
type RunOptions struct {
	Image            string
	Foreground       bool
	Localhost        bool
	TLSPort          int
	HTTPPort         int
	ConfigVolume     string
	ExtensionsVolume string
}

// RunOptionsFrom derives run options from a validated config.
func RunOptionsFrom(cfg *config.BuildConfig) RunOptions {
	return RunOptions{
		Image:            cfg.ImageRef(),
		Foreground:       cfg.Foreground,
		Localhost:        cfg.Localhost,
		TLSPort:          cfg.TLSPort,
		HTTPPort:         cfg.HTTPPort,
		ConfigVolume:     cfg.ConfigVolume,
		ExtensionsVolume: cfg.ExtensionsVolume,
	}
}

// BuildArgs returns the engine arguments for building contextDir.
func BuildArgs(contextDir, imageRef string) []string {
	return []string{"build", contextDir, "-t", imageRef}
}

// RunArgs returns the engine arguments for launching the image.
func RunArgs(o RunOptions) []string {
	args := []string{"run"}
	if o.Foreground {
		args = append(args, "-it")
	} else {
		args = append(args, "-d")
	}

	bind := ""
	if o.Localhost {
		bind = "127.0.0.1:"
	}
	if o.TLSPort > 0 {
		args = append(args, "-p", fmt.Sprintf("%s%d:443", bind, o.TLSPort))
	}
	if o.HTTPPort > 0 {
		args = append(args, "-p", fmt.Sprintf("%s%d:80", bind, o.HTTPPort))
	}

	if o.ConfigVolume != "" {
		args = append(args, "-v", o.ConfigVolume+":"+ConfigMountPath)
	}
	if o.ExtensionsVolume != "" {
		args = append(args, "-v", o.ExtensionsVolume+":"+ExtensionsMountPath)
	}

	return append(args, o.Image)
}

// LaunchCommand is the shell command equivalent to Engine.Run(o), for an
// operator to run by hand.
func LaunchCommand(binary string, o RunOptions) string {
	argv := append([]string{binary}, RunArgs(o)...)
	for i, a := range argv {
		argv[i] = shellQuote(a)
	}
	return strings.Join(argv, " ")
}

// shellQuote single-quotes a when it holds anything a POSIX shell would
// interpret.
func shellQuote(a string) string {
	if a != "" && strings.IndexFunc(a, unsafeRune) < 0 {
		return a
	}
	return "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=@%+,", r)
}
