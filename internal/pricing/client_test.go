package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvgportal/internal/config"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(config.PricingConfig{}, nil)
	assert.Error(t, err)
}

func TestClient_Quote(t *testing.T) {
	var got QuoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/premiums", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"premiums":[{"insurer_id":"css","insurer_name":"CSS","product":"Basis","model":"standard","monthly_premium":412.5}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(config.PricingConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, nil)
	require.NoError(t, err)

	req := QuoteRequest{Year: 2027, Canton: "ZH", Region: 1, AgeGroup: "adult", Franchise: 300, Accident: true, Model: "standard"}
	premiums, err := c.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	require.Len(t, premiums, 1)
	assert.Equal(t, "CSS", premiums[0].InsurerName)
	assert.InDelta(t, 412.5, premiums[0].MonthlyPremium, 0.001)
}

func TestClient_Quote_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(config.PricingConfig{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.Quote(context.Background(), QuoteRequest{Canton: "BE"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_Quote_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"premiums":`))
	}))
	defer srv.Close()

	c, err := NewClient(config.PricingConfig{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.Quote(context.Background(), QuoteRequest{})
	assert.ErrorContains(t, err, "decode quote response")
}
