// Package signature integrates the external QES e-signature provider.
package signature

import (
	"bytes"
	"context"
	"encoding/base64"
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

// ErrUpstream is returned when the provider answers with a non-2xx status.
var ErrUpstream = errors.New("signature provider error")

const requestsPath = "/v1/signature-requests"

// Signer identifies the person who signs.
type Signer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// SignRequest asks the provider to collect a qualified signature on Document.
type SignRequest struct {
	Reference   string
	Filename    string
	Document    []byte
	Signer      Signer
	CallbackURL string
}

// SignResponse is what the provider hands back for a created request.
type SignResponse struct {
	RequestID  string `json:"request_id"`
	SigningURL string `json:"signing_url"`
	Status     string `json:"status"`
}

type createBody struct {
	Reference   string `json:"reference"`
	Level       string `json:"level"`
	Filename    string `json:"filename"`
	DocumentB64 string `json:"document_base64"`
	Signer      Signer `json:"signer"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// Provider is what the signature service needs from the QES provider.
type Provider interface {
	CreateRequest(ctx context.Context, req SignRequest) (*SignResponse, error)
}

// Client is an HTTP client for the provider API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient builds a Client with an otelhttp-instrumented transport.
func NewClient(cfg config.SignatureConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("signature base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
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

var _ Provider = (*Client)(nil)

// CreateRequest uploads the document and opens a QES signing request.
func (c *Client) CreateRequest(ctx context.Context, req SignRequest) (*SignResponse, error) {
	body, err := json.Marshal(createBody{
		Reference:   req.Reference,
		Level:       "qes",
		Filename:    req.Filename,
		DocumentB64: base64.StdEncoding.EncodeToString(req.Document),
		Signer:      req.Signer,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("encode signature request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+requestsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build signature request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("signature provider call failed",
			slog.String("reference", req.Reference),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("signature provider call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("signature provider returned error status",
			slog.String("reference", req.Reference),
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(snippet)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out SignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode signature response: %w", err)
	}
	if out.RequestID == "" || out.SigningURL == "" {
		return nil, fmt.Errorf("%w: incomplete response", ErrUpstream)
	}
	return &out, nil
}
