package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	DefaultTimeout = 10 * time.Second
	DefaultRegion  = "US"

	maxAttempts = 3
)

// Client talks to the TMDB v3 API. It implements domain.Catalog.
type Client struct {
	log        zerolog.Logger
	apiKey     string
	baseURL    string
	region     string
	httpc      *http.Client
	retryDelay time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http client (timeout from config).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithRetryDelay sets the initial backoff between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func NewClient(log zerolog.Logger, config *domain.Config, opts ...Option) *Client {
	timeout := config.TmdbTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		log:        log.With().Str("module", "tmdb").Logger(),
		apiKey:     strings.TrimSpace(config.TmdbApiKey),
		baseURL:    strings.TrimRight(config.TmdbBaseURL, "/"),
		region:     strings.ToUpper(config.TmdbRegion),
		httpc:      &http.Client{Timeout: timeout},
		retryDelay: 300 * time.Millisecond,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.region == "" {
		c.region = DefaultRegion
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ domain.Catalog = (*Client)(nil)

// statusError is a non-2xx response.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb request failed: %s", e.status)
}

// transient reports whether another attempt may succeed.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func (c *Client) buildURL(endpoint string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)
	q.Set("language", "en-US")

	return c.baseURL + endpoint + "?" + q.Encode()
}

func (c *Client) fetch(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}

// get performs a GET with retries on transport errors, 429 and 5xx.
// 404 maps to domain.ErrNotFound, every other failure to
// domain.ErrUpstreamUnavailable.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	target := c.buildURL(endpoint, params)

	err := retry.Do(
		func() error { return c.fetch(ctx, target, v) },
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(transient),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug().Err(err).Str("endpoint", endpoint).Msgf("retrying request (attempt %d/%d)", n+2, maxAttempts)
		}),
	)
	if err == nil {
		return nil
	}

	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return errors.Wrapf(domain.ErrNotFound, "tmdb %s", endpoint)
	}

	c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("tmdb request failed")
	return errors.Wrapf(domain.ErrUpstreamUnavailable, "tmdb %s: %v", endpoint, err)
}

func (c *Client) SearchTV(ctx context.Context, query string) ([]domain.CatalogSearchResult, error) {
	var resp struct {
		Results []domain.CatalogSearchResult `json:"results"`
	}
	if err := c.get(ctx, "/search/tv", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []domain.CatalogSearchResult{}
	}
	return resp.Results, nil
}

func (c *Client) GetShow(ctx context.Context, tmdbID int) (*domain.CatalogShow, error) {
	var show domain.CatalogShow
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", tmdbID), nil, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

func (c *Client) GetMovie(ctx context.Context, tmdbID int) (*domain.CatalogMovie, error) {
	var movie domain.CatalogMovie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", tmdbID), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) GetSeason(ctx context.Context, tmdbID, season int) (*domain.CatalogSeason, error) {
	var s domain.CatalogSeason
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", tmdbID, season), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) GetShowCredits(ctx context.Context, tmdbID int) (*domain.CatalogCredits, error) {
	var credits domain.CatalogCredits
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/credits", tmdbID), nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

func (c *Client) GetEpisodeCredits(ctx context.Context, tmdbID, season, episode int) (*domain.CatalogEpisodeCredits, error) {
	var credits domain.CatalogEpisodeCredits
	endpoint := fmt.Sprintf("/tv/%d/season/%d/episode/%d/credits", tmdbID, season, episode)
	if err := c.get(ctx, endpoint, nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

func (c *Client) GetPersonCredits(ctx context.Context, personID int) (*domain.CatalogPersonCredits, error) {
	var credits domain.CatalogPersonCredits
	if err := c.get(ctx, fmt.Sprintf("/person/%d/combined_credits", personID), nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

type providersResponse struct {
	Results map[string]struct {
		Flatrate []domain.WatchProvider `json:"flatrate"`
		Free     []domain.WatchProvider `json:"free"`
		Ads      []domain.WatchProvider `json:"ads"`
	} `json:"results"`
}

// GetWatchProviders returns the streaming offers (subscription, free and
// ad-supported) for the configured region, ordered by display priority.
func (c *Client) GetWatchProviders(ctx context.Context, tmdbID int) ([]domain.WatchProvider, error) {
	var resp providersResponse
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/watch/providers", tmdbID), nil, &resp); err != nil {
		return nil, err
	}

	region, ok := resp.Results[c.region]
	if !ok {
		return []domain.WatchProvider{}, nil
	}

	seen := make(map[int]struct{})
	providers := make([]domain.WatchProvider, 0)
	for _, group := range [][]domain.WatchProvider{region.Flatrate, region.Free, region.Ads} {
		for _, p := range group {
			if _, dup := seen[p.ProviderID]; dup {
				continue
			}
			seen[p.ProviderID] = struct{}{}
			providers = append(providers, p)
		}
	}

	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].DisplayPriority < providers[j].DisplayPriority
	})

	return providers, nil
}
