package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"golang.org/x/sync/singleflight"
)

// TopListCache stores fetched top lists in Redis so every instance shares
// them. A Redis failure falls through to the source.
//
// Lists are stored as: SET scrobble:top:{user}:{kind}:{period}:{limit} <json>
type TopListCache struct {
	client *redis.Client
	source app.TopLister
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewTopListCache(client *redis.Client, source app.TopLister, ttl time.Duration) *TopListCache {
	return &TopListCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *TopListCache) TopList(ctx context.Context, user string, kind domain.CategoryKind, period domain.Period, limit int) ([]domain.StatRecord, error) {
	key := TopListKey(user, kind, period, limit)
	if records, ok := c.lookup(ctx, key); ok {
		return records, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another instance filled it.
		if records, ok := c.lookup(ctx, key); ok {
			return records, nil
		}
		records, err := c.source.TopList(ctx, user, kind, period, limit)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(records); err == nil {
			if err := c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err(); err != nil {
				log.Printf("cache top list %s: %v", key, err)
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.StatRecord), nil
}

func (c *TopListCache) lookup(ctx context.Context, key string) ([]domain.StatRecord, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("read cached top list %s: %v", key, err)
		}
		return nil, false
	}
	records := []domain.StatRecord{}
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false
	}
	return records, true
}

func (c *TopListCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// TopListKey is the Redis key of one cached top list.
func TopListKey(user string, kind domain.CategoryKind, period domain.Period, limit int) string {
	return "scrobble:top:" + strings.ToLower(user) + ":" + string(kind) + ":" + string(period) + ":" + strconv.Itoa(limit)
}
