package imagedef

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/asg-builder/src/auth"
	"github.com/sofmeright/asg-builder/src/config"
	"github.com/sofmeright/asg-builder/src/payload"
	"github.com/sofmeright/asg-builder/src/workdir"
)

type fixedHasher struct{}

func (fixedHasher) Hash(p string) (string, error) { return "$fixed$" + p, nil }

// countingFetcher serves the same body for every locator.
type countingFetcher struct{ calls atomic.Int32 }

func (c *countingFetcher) Fetch(_ context.Context, loc payload.Locator, dst io.Writer) (int64, error) {
	c.calls.Add(1)
	n, err := io.WriteString(dst, "rpm:"+loc.Filename)
	return int64(n), err
}

func newComposer(f payload.Fetcher) *Composer {
	m := auth.NewMaterializer(nil)
	m.Hasher = fixedHasher{}
	s := payload.NewStager(nil, io.Discard, nil)
	s.Remote = f
	return NewComposer(m, s, nil)
}

func baseConfig(root string) *config.BuildConfig {
	cfg := config.Defaults()
	cfg.ImageName = "gateway"
	cfg.Root = root
	return cfg
}

func compose(t *testing.T, c *Composer, cfg *config.BuildConfig) *Result {
	t.Helper()
	res, err := c.Compose(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { res.Release() })
	return res
}

func TestCompose_NoAuth(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	res := compose(t, newComposer(&countingFetcher{}), cfg)

	doc := res.Document
	assert.Equal(t, 1, doc.Count("ENV AUTH='DISABLE'"))
	assert.True(t, doc.Fragment(FragmentAuthCopies).Empty())
	for _, l := range doc.Lines() {
		assert.NotContains(t, l, "auth/")
	}
	assert.Equal(t,
		"FROM f5devcentral/f5-api-services-gateway:latest\n\nENV AUTH='DISABLE'\nEXPOSE 8443:443/tcp\n",
		doc.String())
}

func TestCompose_BasicAuth(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.Auth = config.AuthConfig{Mode: config.AuthBasic, User: "u", Password: "p"}

	res := compose(t, newComposer(&countingFetcher{}), cfg)

	passwd, err := os.ReadFile(res.Dir.Join(workdir.BasicPassFile))
	require.NoError(t, err)
	assert.Equal(t, "u:$fixed$p\n", string(passwd))

	assert.Equal(t, []string{
		"FROM f5devcentral/f5-api-services-gateway:latest",
		"ENV AUTH='CUSTOM'",
		"COPY basic-auth/auth/basic_auth.conf /usr/local/apache2/conf/auth/basic.conf",
		"COPY basic-auth/pass/htpasswd.user /etc/www/pass/htpasswd.user",
		"EXPOSE 8443:443/tcp",
	}, res.Document.Lines())
}

func TestCompose_LDAPAuth(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.Auth = config.AuthConfig{Mode: config.AuthLDAP, LDAPURL: "ldap://dc", LDAPBindDN: "dn", LDAPBindPassword: "pw"}

	res := compose(t, newComposer(&countingFetcher{}), cfg)

	assert.Equal(t, []string{"COPY ldap-auth/auth/ldap.conf /usr/local/apache2/conf/auth/basic.conf"},
		res.Document.Fragment(FragmentAuthCopies).Lines)
	assert.True(t, res.Dir.Exists(workdir.LDAPAuthFile))
}

func TestCompose_BasicWithoutPasswordWritesNothing(t *testing.T) {
	root := t.TempDir()
	cfg := baseConfig(root)
	cfg.Auth = config.AuthConfig{Mode: config.AuthBasic, User: "admin"}

	_, err := newComposer(&countingFetcher{}).Compose(context.Background(), cfg)

	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	_, statErr := os.Stat(filepath.Join(root, "gateway"))
	assert.True(t, os.IsNotExist(statErr), "validation failures must not create the working directory")
}

func TestCompose_MissingImageName(t *testing.T) {
	root := t.TempDir()
	cfg := baseConfig(root)
	cfg.ImageName = ""

	_, err := newComposer(&countingFetcher{}).Compose(context.Background(), cfg)

	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	entries, _ := os.ReadDir(root)
	assert.Empty(t, entries)
}

func TestCompose_TrustListOrder(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.TrustedPeers = []string{"a:b:1.2.3.4", "c:d:5.6.7.8"}

	res := compose(t, newComposer(&countingFetcher{}), cfg)

	assert.Equal(t, []string{"ENV BIGIP_LIST='a:b:1.2.3.4 c:d:5.6.7.8'"}, res.Document.Fragment(FragmentTrustEnv).Lines)
}

func TestCompose_TrustListKeepsDuplicates(t *testing.T) {
	assert.Equal(t, []string{"ENV BIGIP_LIST='x x'"}, TrustFragment([]string{"x", "x"}).Lines)
	assert.True(t, TrustFragment(nil).Empty())
}

func TestCompose_Deterministic(t *testing.T) {
	build := func() []byte {
		cfg := baseConfig(t.TempDir())
		cfg.Auth = config.AuthConfig{Mode: config.AuthBasic, User: "admin", Password: "secret"}
		cfg.TrustedPeers = []string{"admin:admin:10.0.0.1"}
		cfg.Payloads = []string{"https://host/a-1.0.0.rpm", "https://host/b-2.0.0.rpm"}
		cfg.HTTPPort = 8080

		res := compose(t, newComposer(&countingFetcher{}), cfg)
		data, err := os.ReadFile(res.DocumentPath)
		require.NoError(t, err)
		return data
	}

	first, second := build(), build()
	assert.Equal(t, string(first), string(second))
}

func TestCompose_RerunReusesPayloads(t *testing.T) {
	root := t.TempDir()
	f := &countingFetcher{}
	c := newComposer(f)

	cfg := baseConfig(root)
	cfg.Payloads = []string{"https://host/pkg-1.0.0.rpm"}
	first := compose(t, c, cfg)
	require.NoError(t, first.Release())

	cfg = baseConfig(root)
	cfg.Payloads = []string{"https://host/pkg-1.0.0.rpm"}
	second := compose(t, c, cfg)

	assert.Equal(t, int32(1), f.calls.Load())
	assert.True(t, second.Payloads[0].Reused)
	assert.Equal(t, first.Document.String(), second.Document.String())
}

func TestCompose_LockedWhileResultHeld(t *testing.T) {
	root := t.TempDir()
	c := newComposer(&countingFetcher{})

	held := compose(t, c, baseConfig(root))

	_, err := c.Compose(context.Background(), baseConfig(root))
	assert.ErrorIs(t, err, workdir.ErrLocked)

	require.NoError(t, held.Release())
	compose(t, c, baseConfig(root))
}

func TestCompose_FetchFailureWritesNoDocument(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	root := t.TempDir()
	m := auth.NewMaterializer(nil)
	m.Hasher = fixedHasher{}
	c := NewComposer(m, payload.NewStager(payload.NewHTTPFetcher(time.Second, nil), nil, nil), nil)

	cfg := baseConfig(root)
	cfg.Auth = config.AuthConfig{Mode: config.AuthBasic, User: "admin", Password: "secret"}
	cfg.Payloads = []string{srv.URL + "/missing.rpm"}

	_, err := c.Compose(context.Background(), cfg)

	var ferr *payload.FetchError
	require.ErrorAs(t, err, &ferr)
	d := workdir.New(root, "gateway")
	assert.False(t, d.Exists(workdir.Document))
	assert.True(t, d.Exists(workdir.BasicPassFile), "auth artifacts are left for the next run")

	// the lock was released on failure
	lock, err := d.Lock()
	require.NoError(t, err)
	lock.Release()
}

// Gateway / basic / tls 8443 / one remote payload.
func TestCompose_EndToEnd(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("rpm"))
	}))
	defer srv.Close()

	root := t.TempDir()
	m := auth.NewMaterializer(nil)
	c := NewComposer(m, payload.NewStager(payload.NewHTTPFetcher(5*time.Second, nil), nil, nil), nil)

	cfg := config.Defaults()
	cfg.Root = root
	cfg.ImageName = "Gateway"
	cfg.Auth = config.AuthConfig{Mode: config.AuthBasic, User: "admin", Password: "secret"}
	cfg.TLSPort = 8443
	cfg.Payloads = []string{srv.URL + "/pkg-1.0.0.rpm"}

	res := compose(t, c, cfg)

	assert.Equal(t, filepath.Join(root, "gateway"), res.Dir.Path)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, res.Dir.Exists("rpms/pkg-1.0.0.rpm"))

	data, err := os.ReadFile(filepath.Join(root, "gateway", "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"FROM " + config.DefaultBaseImage,
		"",
		"ENV AUTH='CUSTOM'",
		"COPY basic-auth/auth/basic_auth.conf /usr/local/apache2/conf/auth/basic.conf",
		"COPY basic-auth/pass/htpasswd.user /etc/www/pass/htpasswd.user",
		"EXPOSE 8443:443/tcp",
		"COPY rpms/pkg-1.0.0.rpm /root/lx/pkg-1.0.0.rpm",
		"",
	}, "\n"), string(data))
}
