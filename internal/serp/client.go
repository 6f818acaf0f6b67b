package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"listing-trust-eval/internal/demo"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/match"
	"listing-trust-eval/internal/metrics"
)

const (
	resultsPerQuery = 3
	maxSignals      = 5
)

// FallbackSignal stands in for the footprint when the search provider fails.
var FallbackSignal = listing.Signal{
	Title:   "Error fetching real-time data",
	Snippet: "Using fallback data due to API error.",
}

// Config drives search client behaviour.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Catalog *demo.Catalog
	Metrics *metrics.Recorder
}

// Source says where a footprint came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceDemo     Source = "demo"
	SourceFallback Source = "fallback"
)

// Result is the de-duplicated footprint for one business.
type Result struct {
	Source  Source            `json:"source"`
	Signals listing.Footprint `json:"signals"`
}

// Client searches the web for corroborating mentions of a business.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	catalog    *demo.Catalog
	metrics    *metrics.Recorder
}

// NewClient constructs a search client. Without an API key it serves demo signals.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://serpapi.com/search.json"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
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
		limiter:    rate.NewLimiter(rate.Limit(rps), 2),
		catalog:    catalog,
		metrics:    cfg.Metrics,
	}
}

// Live reports whether the client calls the real search API.
func (c *Client) Live() bool {
	return c != nil && c.apiKey != ""
}

// Search runs a name+address query and an exact phone query concurrently, merges the organic
// results (name query first), drops repeated links and keeps the top five. Provider failures
// yield the single FallbackSignal; only context cancellation is returned as an error.
func (c *Client) Search(ctx context.Context, name, phone, address string) (Result, error) {
	if c == nil {
		return Result{}, errors.New("serp client is nil")
	}
	if !c.Live() {
		return Result{Source: SourceDemo, Signals: c.catalog.FootprintFor(name)}, nil
	}

	queries := []string{strings.TrimSpace(name + " " + address)}
	// Placeholders like "N/A" carry no digits and would only match noise.
	if match.PhoneDigits(phone) != "" {
		queries = append(queries, fmt.Sprintf("%q", strings.TrimSpace(phone)))
	}

	batches := make([][]organicResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		if q == "" {
			continue
		}
		g.Go(func() error {
			results, err := c.query(gctx, q)
			if err != nil {
				return fmt.Errorf("query %q: %w", q, err)
			}
			batches[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logrus.WithError(err).WithField("business", name).Warn("footprint search failed; using fallback signal")
		return Result{Source: SourceFallback, Signals: listing.Footprint{FallbackSignal}}, nil
	}

	var merged []organicResult
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	return Result{Source: SourceLive, Signals: dedupe(merged, maxSignals)}, nil
}

func (c *Client) query(ctx context.Context, q string) ([]organicResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(resultsPerQuery))

	endpoint := c.baseURL
	if strings.Contains(endpoint, "?") {
		endpoint = endpoint + "&" + params.Encode()
	} else {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider("serp", 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	c.metrics.ObserveProvider("serp", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", payload.Error)
	}
	return payload.OrganicResults, nil
}

func dedupe(results []organicResult, limit int) listing.Footprint {
	seen := make(map[string]struct{}, len(results))
	out := make(listing.Footprint, 0, limit)
	for _, r := range results {
		key := match.LinkKey(r.Link)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, listing.Signal{
			Title:   strings.TrimSpace(r.Title),
			Link:    strings.TrimSpace(r.Link),
			Snippet: strings.TrimSpace(r.Snippet),
		})
		if len(out) == limit {
			break
		}
	}
	return out
}

type searchResponse struct {
	Error          string          `json:"error"`
	OrganicResults []organicResult `json:"organic_results"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
