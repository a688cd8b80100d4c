package imagedef

import (
	"fmt"
	"strings"

	"github.com/sofmeright/asg-builder/src/auth"
	"github.com/sofmeright/asg-builder/src/config"
	"github.com/sofmeright/asg-builder/src/payload"
)

// Fragment names, in document order.
const (
	FragmentBase          = "base"
	FragmentAuthEnv       = "auth-env"
	FragmentAuthCopies    = "auth-copies"
	FragmentExpose        = "expose"
	FragmentTrustEnv      = "trust-env"
	FragmentPayloadCopies = "payload-copies"
)

// Environment variables read by the gateway at startup.
const (
	EnvAuth      = "AUTH"
	EnvTrustList = "BIGIP_LIST"
)

// Fragment is a named, ordered group of document lines.
type Fragment struct {
	Name  string
	Lines []string
}

// Empty reports whether the fragment contributes nothing.
func (f Fragment) Empty() bool { return len(f.Lines) == 0 }

// BaseFragment declares the image being extended.
func BaseFragment(baseImage string) Fragment {
	return Fragment{Name: FragmentBase, Lines: []string{"FROM " + baseImage}}
}

// AuthEnvFragment tells the gateway whether custom auth files are installed.
func AuthEnvFragment(mode config.AuthMode) Fragment {
	value := "DISABLE"
	if mode.Custom() {
		value = "CUSTOM"
	}
	return Fragment{Name: FragmentAuthEnv, Lines: []string{fmt.Sprintf("ENV %s='%s'", EnvAuth, value)}}
}

// AuthCopyFragment copies the files auth.Materializer writes for mode.
func AuthCopyFragment(mode config.AuthMode) Fragment {
	f := Fragment{Name: FragmentAuthCopies}
	for _, c := range auth.Copies(mode) {
		f.Lines = append(f.Lines, fmt.Sprintf("COPY %s %s", c.Src, c.Dst))
	}
	return f
}

// ExposeFragment exposes the TLS port and, when set, the HTTP port.
// Non-positive ports are skipped.
func ExposeFragment(tlsPort, httpPort int) Fragment {
	f := Fragment{Name: FragmentExpose}
	if tlsPort > 0 {
		f.Lines = append(f.Lines, fmt.Sprintf("EXPOSE %d:443/tcp", tlsPort))
	}
	if httpPort > 0 {
		f.Lines = append(f.Lines, fmt.Sprintf("EXPOSE %d:80/tcp", httpPort))
	}
	return f
}

// TrustFragment joins peers with single spaces, in order, without dedup.
// No line is emitted for an empty list.
func TrustFragment(peers []string) Fragment {
	f := Fragment{Name: FragmentTrustEnv}
	if len(peers) > 0 {
		f.Lines = []string{fmt.Sprintf("ENV %s='%s'", EnvTrustList, strings.Join(peers, " "))}
	}
	return f
}

// PayloadFragment copies each staged payload, in staging order.
func PayloadFragment(staged []payload.Staged) Fragment {
	f := Fragment{Name: FragmentPayloadCopies}
	for _, s := range staged {
		f.Lines = append(f.Lines, s.CopyInstruction())
	}
	return f
}
