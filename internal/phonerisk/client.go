package phonerisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://phonerevealr.com/api"
	defaultUserAgent = "quoteotter-lead-engine/1.0"
)

// ClientConfig controls how the reputation client behaves.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// Client wraps the phone-reputation REST endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// LookupData is the upstream reputation payload for one number.
type LookupData struct {
	Valid     bool   `json:"valid"`
	LineType  string `json:"line_type"`
	Carrier   string `json:"carrier"`
	IsVoIP    bool   `json:"is_voip"`
	Country   string `json:"country"`
	RiskScore *int   `json:"risk_score,omitempty"`
}

type lookupResponse struct {
	Success bool        `json:"success"`
	Data    *LookupData `json:"data"`
}

// NewClient creates a configured Client with sane defaults.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("phonerisk: API key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// Lookup fetches reputation data for a normalized phone number. A nil
// LookupData with a nil error means the upstream answered but could not
// validate the number.
func (c *Client) Lookup(ctx context.Context, phone string) (*LookupData, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, errors.New("phonerisk: phone number required")
	}
	q := url.Values{}
	q.Set("phone", phone)
	fullURL := c.baseURL + "/validate?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("phonerisk: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("phonerisk: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("phonerisk: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var parsed lookupResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("phonerisk: decode response: %w", err)
	}
	// An unsuccessful payload is a definitive answer from the upstream, not
	// a transport failure. Callers get nil data and fuse it to a rejection.
	if !parsed.Success || parsed.Data == nil {
		return nil, nil
	}
	return parsed.Data, nil
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("phonerisk: upstream status %d", e.StatusCode)
}
