package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/match"
	"listing-trust-eval/internal/metrics"
)

// Auditor reviews a listing case file against the policy framework.
type Auditor interface {
	Enabled() bool
	Audit(ctx context.Context, input AuditInput) (Audit, error)
}

// Config holds Gemini configuration parameters.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RPS         float64
	Metrics     *metrics.Recorder
}

// Client implements the Auditor interface against the Gemini generateContent API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	limiter     *rate.Limiter
	metrics     *metrics.Recorder
}

var ErrDisabled = errors.New("policy auditor disabled")

const reviewSampleLimit = 1000

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		metrics:     cfg.Metrics,
	}
	return client, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Audit asks the model for an analyst report and parses the verdict out of it.
func (c *Client) Audit(ctx context.Context, input AuditInput) (Audit, error) {
	if c == nil || !c.Enabled() {
		return Audit{}, ErrDisabled
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Audit{}, err
	}

	body, err := json.Marshal(c.buildPayload(input))
	if err != nil {
		return Audit{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Audit{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider("gemini", 0, time.Since(start))
		return Audit{}, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveProvider("gemini", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return Audit{}, fmt.Errorf("gemini status %d: %v", resp.StatusCode, apiErr)
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Audit{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return Audit{}, errors.New("gemini empty response")
	}

	narrative := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if narrative == "" {
		return Audit{}, errors.New("gemini empty narrative")
	}

	return Audit{
		Narrative: narrative,
		Verdict:   ParseVerdict(narrative),
		Source:    SourceGemini,
	}, nil
}

func (c *Client) buildPayload(input AuditInput) map[string]any {
	return map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": BuildPrompt(input)}}},
		},
		"generationConfig": map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxTokens,
		},
	}
}

// BuildPrompt renders the analyst instructions and case file for one listing.
func BuildPrompt(input AuditInput) string {
	l := input.Listing
	builder := &strings.Builder{}
	builder.WriteString("Act as a Senior Trust & Safety Analyst for a maps platform.\n\n")
	builder.WriteString("MISSION: Conduct a forensic analysis of the following listing for \"Deceptive Behavior\" and \"Fake Engagement\".\n\n")
	builder.WriteString("POLICY FRAMEWORK (THREAT VECTORS):\n")
	builder.WriteString("1. Ghost Businesses: Does the address exist? Is it a virtual office/PO Box/Residential address masquerading as a storefront?\n")
	builder.WriteString("2. Lead-Gen Scams: Is the phone number a VOIP/Burner? Is the name keyword-stuffed (e.g., \"Best Locksmith 24/7\")?\n")
	builder.WriteString("3. Review Fraud: Are the reviews organic or do they look like a \"Bot Farm\" (repetitive syntax, cluster timestamps)?\n")
	builder.WriteString("4. OSINT Gap: Does the business exist outside of the maps platform (YellowPages, Social Media)? If not -> High Risk.\n\n")
	if policies := strings.TrimSpace(input.Policies); policies != "" {
		builder.WriteString("POLICY GUIDELINES:\n")
		builder.WriteString(policies)
		builder.WriteString("\n\n")
	}
	builder.WriteString("DATA ARTIFACTS:\n")
	fmt.Fprintf(builder, "* Listing: %s | %s | %s\n", l.Name, l.Address, l.Phone)
	if l.Website != "" {
		fmt.Fprintf(builder, "* Website: %s\n", l.Website)
	}
	fmt.Fprintf(builder, "* Reviews Sample: %s\n", reviewSample(l.Reviews, reviewSampleLimit))
	fmt.Fprintf(builder, "* External Signals (OSINT): %s\n", footprintSummary(input.Footprint, l.Website))
	if len(input.LeadGenTerms) > 0 {
		fmt.Fprintf(builder, "* Name Keyword Flags: %s\n", strings.Join(input.LeadGenTerms, ", "))
	}
	builder.WriteString("\n")
	builder.WriteString("OUTPUT FORMAT:\n")
	builder.WriteString("Provide a strict \"Analyst Logic\" report:\n")
	builder.WriteString("1. Threat Vector Analysis: Go through the 4 vectors above.\n")
	builder.WriteString("2. Discrepancies: Point out specific mismatches.\n")
	builder.WriteString("3. Risk Verdict: exactly one of Low, Medium or High, on its own line as \"Risk Verdict: <level>\".\n")
	builder.WriteString("4. Action: Suspend / Video Verify / No Action, on its own line as \"Action: <action>\".\n")
	return builder.String()
}

func reviewSample(reviews []listing.Review, limit int) string {
	if len(reviews) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		stamp := "unknown time"
		if t := r.Time.Time(); !t.IsZero() {
			stamp = t.Format(time.RFC3339)
		}
		parts = append(parts, fmt.Sprintf("[%d stars, %s] %q", r.Rating, stamp, strings.TrimSpace(r.Text)))
	}
	sample := strings.Join(parts, "; ")
	if len(sample) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(sample[cut]) {
			cut--
		}
		sample = sample[:cut]
	}
	return sample
}

// footprintSummary flattens the signals for the prompt. Results hosted on the listing's own
// website are tagged, since they do not corroborate the business independently.
func footprintSummary(fp listing.Footprint, website string) string {
	if len(fp) == 0 {
		return "none found"
	}
	ownHost := match.Host(website)
	parts := make([]string, 0, len(fp))
	for _, s := range fp {
		entry := strings.TrimSpace(s.Title)
		if s.Link != "" {
			entry += " <" + strings.TrimSpace(s.Link) + ">"
			if ownHost != "" && match.Host(s.Link) == ownHost {
				entry += " [own website]"
			}
		}
		if s.Snippet != "" {
			entry += ": " + strings.TrimSpace(s.Snippet)
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, " | ")
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
