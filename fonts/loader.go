// Package fonts fetches the web font stylesheet used by the site.
package fonts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultEndpoint is the Google Fonts CSS API.
const DefaultEndpoint = "https://fonts.googleapis.com/css"

const maxStylesheetSize = 1 << 20

// ErrNoFamilies is returned by Load when no font family is configured.
var ErrNoFamilies = errors.New("fonts: no families configured")

// Loader downloads the stylesheet for a set of font families and keeps it
// in memory. It is safe for concurrent use.
type Loader struct {
	Families []string // e.g. "Merriweather:400,700"
	Endpoint string
	Client   *http.Client

	mu     sync.RWMutex
	css    []byte
	done   chan struct{}
	closer sync.Once
	init   sync.Once
}

// NewLoader creates a Loader for families against the default endpoint.
func NewLoader(families ...string) *Loader {
	return &Loader{
		Families: families,
		Endpoint: DefaultEndpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (l *Loader) doneCh() chan struct{} {
	l.init.Do(func() {
		l.done = make(chan struct{})
	})
	return l.done
}

// Done is closed once the first Load call has finished, whatever its outcome.
func (l *Loader) Done() <-chan struct{} {
	return l.doneCh()
}

// Stylesheet returns the fetched CSS, if any Load call has succeeded.
func (l *Loader) Stylesheet() ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.css, l.css != nil
}

// URL returns the stylesheet request URL.
func (l *Loader) URL() string {
	endpoint := l.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	q := url.Values{}
	q.Set("family", strings.Join(l.Families, "|"))
	q.Set("display", "swap")
	return endpoint + "?" + q.Encode()
}

// Load fetches the stylesheet.
func (l *Loader) Load(ctx context.Context) error {
	defer l.closer.Do(func() { close(l.doneCh()) })

	if len(l.Families) == 0 {
		return ErrNoFamilies
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL(), nil)
	if err != nil {
		return fmt.Errorf("fonts: build request: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fonts: fetch stylesheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fonts: fetch stylesheet: unexpected status %d", resp.StatusCode)
	}
	css, err := io.ReadAll(io.LimitReader(resp.Body, maxStylesheetSize))
	if err != nil {
		return fmt.Errorf("fonts: read stylesheet: %w", err)
	}

	l.mu.Lock()
	l.css = css
	l.mu.Unlock()
	return nil
}
