package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"listing-trust-eval/internal/demo"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/match"
	"listing-trust-eval/internal/metrics"
)

// Config drives places client behaviour.
type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	RPS      float64
	Catalog  *demo.Catalog
	Metrics  *metrics.Recorder
}

// Source says where a place record came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceDemo     Source = "demo"
	SourceFallback Source = "fallback"
)

// Place is the ground-truth listing for a query.
type Place struct {
	PlaceID string          `json:"place_id,omitempty"`
	Source  Source          `json:"source"`
	Listing listing.Listing `json:"listing"`
}

// ErrNotFound is returned when the text search has no candidates.
var ErrNotFound = errors.New("place not found")

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("place query is empty")

var detailFields = []string{"name", "formatted_address", "formatted_phone_number", "website", "rating", "reviews", "types"}

// Client looks up business listings with per-query caching and client-side rate limiting.
// Without an API key it serves scenarios from the demo catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cacheTTL   time.Duration
	cache      sync.Map // map[string]cacheEntry
	limiter    *rate.Limiter
	catalog    *demo.Catalog
	metrics    *metrics.Recorder
}

type cacheEntry struct {
	at    time.Time
	place Place
}

// NewClient constructs a places client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = demo.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		cacheTTL:   ttl,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		catalog:    catalog,
		metrics:    cfg.Metrics,
	}
}

// Live reports whether the client calls the real places API.
func (c *Client) Live() bool {
	return c != nil && c.apiKey != ""
}

// Lookup resolves a free-text query to a single listing. ErrNotFound means the provider has no
// match; other provider failures degrade to the catalog's fallback listing.
func (c *Client) Lookup(ctx context.Context, query string) (Place, error) {
	if c == nil {
		return Place{}, errors.New("maps client is nil")
	}

	key := match.NormalizeQuery(query)
	if key == "" {
		return Place{}, ErrEmptyQuery
	}

	if !c.Live() {
		sc := c.catalog.ListingFor(query)
		return Place{Source: SourceDemo, Listing: sc.Listing}, nil
	}

	if entry, ok := c.cache.Load(key); ok {
		cached := entry.(cacheEntry)
		if time.Since(cached.at) < c.cacheTTL {
			return cached.place, nil
		}
		c.cache.Delete(key)
	}

	place, err := c.performLookup(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return Place{}, err
		}
		logrus.WithError(err).WithField("query", query).Warn("maps lookup failed; serving fallback listing")
		return Place{Source: SourceFallback, Listing: c.catalog.FallbackListing()}, nil
	}

	c.cache.Store(key, cacheEntry{at: time.Now(), place: place})
	return place, nil
}

func (c *Client) performLookup(ctx context.Context, query string) (Place, error) {
	params := url.Values{}
	params.Set("query", query)
	var search textSearchResponse
	if err := c.getJSON(ctx, "/textsearch/json", params, &search); err != nil {
		return Place{}, fmt.Errorf("text search: %w", err)
	}
	if search.Status == "ZERO_RESULTS" {
		return Place{}, ErrNotFound
	}
	if err := statusError(search.Status, search.ErrorMessage); err != nil {
		return Place{}, fmt.Errorf("text search: %w", err)
	}
	if len(search.Results) == 0 {
		return Place{}, ErrNotFound
	}

	placeID := strings.TrimSpace(search.Results[0].PlaceID)
	if placeID == "" {
		return Place{}, ErrNotFound
	}

	params = url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", strings.Join(detailFields, ","))
	var details detailsResponse
	if err := c.getJSON(ctx, "/details/json", params, &details); err != nil {
		return Place{}, fmt.Errorf("place details: %w", err)
	}
	if details.Status == "NOT_FOUND" {
		return Place{}, ErrNotFound
	}
	if err := statusError(details.Status, details.ErrorMessage); err != nil {
		return Place{}, fmt.Errorf("place details: %w", err)
	}

	r := details.Result
	return Place{
		PlaceID: placeID,
		Source:  SourceLive,
		Listing: listing.Listing{
			Name:    strings.TrimSpace(r.Name),
			Address: strings.TrimSpace(r.FormattedAddress),
			Phone:   strings.TrimSpace(r.FormattedPhoneNumber),
			Website: strings.TrimSpace(r.Website),
			Rating:  r.Rating,
			Types:   r.Types,
			Reviews: r.Reviews,
		},
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider("maps", 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	c.metrics.ObserveProvider("maps", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps api status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode maps response: %w", err)
	}
	return nil
}

func statusError(status, message string) error {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "", "OK":
		return nil
	default:
		if message != "" {
			return fmt.Errorf("maps api %s: %s", status, message)
		}
		return fmt.Errorf("maps api %s", status)
	}
}

type textSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Name                 string           `json:"name"`
		FormattedAddress     string           `json:"formatted_address"`
		FormattedPhoneNumber string           `json:"formatted_phone_number"`
		Website              string           `json:"website"`
		Rating               float64          `json:"rating"`
		Types                []string         `json:"types"`
		Reviews              []listing.Review `json:"reviews"`
	} `json:"result"`
}
