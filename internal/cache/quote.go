package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kvgportal/internal/pricing"
)

const quotePrefix = "quote:"

type cachedQuote struct {
	Premiums []pricing.Premium `json:"premiums"`
	StoredAt time.Time         `json:"stored_at"`
}

// QuoteKey derives the cache key of a pricing request.
func QuoteKey(req pricing.QuoteRequest) string {
	return fmt.Sprintf("%s%d:%s:%d:%s:%d:%t:%s",
		quotePrefix, req.Year, req.Canton, req.Region, req.AgeGroup, req.Franchise, req.Accident, req.Model)
}

// GetQuote returns cached premiums for req. ok is false on a miss.
func (c *Cache) GetQuote(ctx context.Context, req pricing.QuoteRequest) (premiums []pricing.Premium, storedAt time.Time, ok bool, err error) {
	raw, err := c.client.Get(ctx, QuoteKey(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("get quote: %w", err)
	}
	var cq cachedQuote
	if err := json.Unmarshal(raw, &cq); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decode cached quote: %w", err)
	}
	return cq.Premiums, cq.StoredAt, true, nil
}

// SetQuote stores premiums for req with ttl.
func (c *Cache) SetQuote(ctx context.Context, req pricing.QuoteRequest, premiums []pricing.Premium, ttl time.Duration) error {
	raw, err := json.Marshal(cachedQuote{Premiums: premiums, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	if err := c.client.Set(ctx, QuoteKey(req), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set quote: %w", err)
	}
	return nil
}
