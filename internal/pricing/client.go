// Package pricing talks to the external KVG premium pricing API.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"kvgportal/internal/config"
)

// ErrUpstream is returned when the pricing API answers with a non-2xx status.
var ErrUpstream = errors.New("pricing api error")

const premiumsPath = "/v1/premiums"

// QuoteRequest is the tuple the pricing API prices on.
type QuoteRequest struct {
	Year      int    `json:"year"`
	Canton    string `json:"canton"`
	Region    int    `json:"region"`
	AgeGroup  string `json:"age_group"`
	Franchise int    `json:"franchise"`
	Accident  bool   `json:"accident"`
	Model     string `json:"model"`
}

// Premium is one insurer offer.
type Premium struct {
	InsurerID      string  `json:"insurer_id"`
	InsurerName    string  `json:"insurer_name"`
	Product        string  `json:"product"`
	Model          string  `json:"model"`
	MonthlyPremium float64 `json:"monthly_premium"`
}

type quoteResponse struct {
	Premiums []Premium `json:"premiums"`
}

// Quoter is what the quote service needs from the API.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) ([]Premium, error)
}

// Client is an HTTP client for the pricing API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient builds a Client with an otelhttp-instrumented transport.
func NewClient(cfg config.PricingConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("pricing base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}, nil
}

var _ Quoter = (*Client)(nil)

// Quote asks the API for all offers matching req.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) ([]Premium, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode quote request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+premiumsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("pricing api call failed",
			slog.String("canton", req.Canton),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("pricing api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("pricing api returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(snippet)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}

	c.logger.Debug("pricing api quote",
		slog.String("canton", req.Canton),
		slog.Int("offers", len(out.Premiums)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return out.Premiums, nil
}
