package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlertState implements domain.AlertStateStore on Redis, so alert cooldowns
// survive process restarts. Entries expire on their own once the TTL passes;
// an expired key reads the same as one that was never stamped.
//
// Key schema:
//
//	alert:last_sent:{key} - RFC 3339 timestamp of the last forwarded alert
type AlertState struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAlertState creates an AlertState backed by the given Client. ttl bounds
// how long a stamp is retained; it should be at least the alert cooldown.
func NewAlertState(c *Client, ttl time.Duration) *AlertState {
	return &AlertState{rdb: c.Underlying(), ttl: ttl}
}

func alertKey(key string) string { return "alert:last_sent:" + key }

// LastSent returns the time the alert for key was last forwarded. The second
// return value is false when no stamp exists.
func (s *AlertState) LastSent(ctx context.Context, key string) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, alertKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("redis: get alert stamp %s: %w", key, err)
	}

	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis: parse alert stamp %s: %w", key, err)
	}
	return t, true, nil
}

// Stamp records at as the last-forwarded time for key.
func (s *AlertState) Stamp(ctx context.Context, key string, at time.Time) error {
	val := at.UTC().Format(time.RFC3339Nano)
	if err := s.rdb.Set(ctx, alertKey(key), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: stamp alert %s: %w", key, err)
	}
	return nil
}
