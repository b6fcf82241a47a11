package cache

import (
	"context"
	"fmt"
	"time"
)

const sessionPrefix = "analytics:session:"

// TouchSession marks sessionID as active for ttl. It reports true when the
// session was not active before, i.e. this beacon starts a new visit.
func (c *Cache) TouchSession(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	key := sessionPrefix + sessionID
	created, err := c.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("touch session: %w", err)
	}
	if created {
		return true, nil
	}
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return false, fmt.Errorf("extend session: %w", err)
	}
	return false, nil
}

// EndSession drops the active marker so the next beacon opens a new visit.
func (c *Cache) EndSession(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, sessionPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}
