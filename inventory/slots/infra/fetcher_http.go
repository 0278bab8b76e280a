package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inventory-orchestrator/inventory/slots/domain"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Creative é o item servido pelo upstream de inventário.
type Creative struct {
	ID       string            `json:"id"`
	UnitID   string            `json:"unit_id"`
	Format   string            `json:"format"`
	Body     string            `json:"body"`
	IssuedAt time.Time         `json:"issued_at"`
	Meta     map[string]string `json:"meta,omitempty"`
}

var ErrUpstreamStatus = errors.New("unexpected upstream status")

// HTTPFetcher busca creatives em GET {base}/items/{unit}.
//
// Não faz retry: retry/backoff dentro do fetch é responsabilidade do upstream.
type HTTPFetcher struct {
	client *http.Client
	base   *url.URL
	log    zerolog.Logger
}

var _ domain.Fetcher[*Creative] = (*HTTPFetcher)(nil)

type HTTPFetcherOption func(*HTTPFetcher)

func WithHTTPClient(c *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.client = c }
}

func WithFetcherLogger(l zerolog.Logger) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.log = l }
}

func NewHTTPFetcher(baseURL string, opts ...HTTPFetcherOption) (*HTTPFetcher, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", baseURL)
	}
	f := &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		base:   u,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, cfg domain.ItemConfig) (*Creative, error) {
	unit := cfg.UnitID
	if unit == "" {
		unit = string(cfg.Key)
	}
	endpoint := f.base.JoinPath("items", unit)
	if cfg.Format != "" {
		q := endpoint.Query()
		q.Set("format", string(cfg.Format))
		endpoint.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", unit, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch %s: %w: %d", unit, ErrUpstreamStatus, resp.StatusCode)
	}

	var c Creative
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode creative %s: %w", unit, err)
	}
	if c.UnitID == "" {
		c.UnitID = unit
	}
	return &c, nil
}

// Release só registra: o creative não segura recursos locais.
func (f *HTTPFetcher) Release(c *Creative) {
	if c == nil {
		return
	}
	f.log.Debug().Str("creative", c.ID).Str("unit", c.UnitID).Msg("creative released")
}
