package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "webhook:event:"

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		Protocol: 2,
	})
}

// EventFilter records processed webhook event ids with a TTL so provider
// retries can be acknowledged without touching the database.
type EventFilter struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewEventFilter(rdb redis.Cmdable, ttl time.Duration) *EventFilter {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &EventFilter{rdb: rdb, ttl: ttl}
}

func (f *EventFilter) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := f.rdb.Exists(ctx, keyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (f *EventFilter) MarkProcessed(ctx context.Context, eventID string) error {
	return f.rdb.SetNX(ctx, keyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), f.ttl).Err()
}
