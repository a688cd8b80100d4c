package payload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/sofmeright/asg-builder/src/version"
)

// Fetcher writes the bytes behind loc to dst and returns the count written.
type Fetcher interface {
	Fetch(ctx context.Context, loc Locator, dst io.Writer) (int64, error)
}

// HTTPFetcher GETs remote payloads.
type HTTPFetcher struct {
	Client *http.Client

	// Progress receives a byte progress bar when non-nil.
	Progress io.Writer
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout.
// A timeout <= 0 leaves requests unbounded.
func NewHTTPFetcher(timeout time.Duration, progress io.Writer) *HTTPFetcher {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &HTTPFetcher{Client: client, Progress: progress}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, loc Locator, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.Path, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", loc.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: status %d", loc.Path, resp.StatusCode)
	}

	w := dst
	if h.Progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(h.Progress),
			progressbar.OptionSetDescription("download "+loc.Filename),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
		w = io.MultiWriter(dst, bar)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("reading body of %s: %w", loc.Path, err)
	}
	return n, nil
}

// FileFetcher copies payloads from the local filesystem.
type FileFetcher struct{}

func (FileFetcher) Fetch(_ context.Context, loc Locator, dst io.Writer) (int64, error) {
	f, err := os.Open(loc.Path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(dst, f)
}
