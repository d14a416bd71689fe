package memory

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"golang.org/x/sync/singleflight"
)

// TopListCache keeps fetched top lists for a TTL so replays and repeated
// user lists don't hit Last.fm again. Failures are never cached.
type TopListCache struct {
	source app.TopLister
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedList
}

type cachedList struct {
	records   []domain.StatRecord
	expiresAt time.Time
}

func NewTopListCache(source app.TopLister, ttl time.Duration) *TopListCache {
	return &TopListCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedList),
	}
}

func (c *TopListCache) TopList(ctx context.Context, user string, kind domain.CategoryKind, period domain.Period, limit int) ([]domain.StatRecord, error) {
	key := TopListKey(user, kind, period, limit)
	if records, ok := c.lookup(key); ok {
		return records, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if records, ok := c.lookup(key); ok {
			return records, nil
		}
		records, err := c.source.TopList(ctx, user, kind, period, limit)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.sweepLocked()
		c.cache[key] = cachedList{
			records:   records,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.StatRecord), nil
}

func (c *TopListCache) lookup(key string) ([]domain.StatRecord, bool) {
	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.expiresAt.After(c.clock()) {
		return entry.records, true
	}

	c.mu.Lock()
	if current, ok := c.cache[key]; ok && !current.expiresAt.After(c.clock()) {
		delete(c.cache, key)
	}
	c.mu.Unlock()
	return nil, false
}

// sweepLocked drops every expired entry. Called with mu held.
func (c *TopListCache) sweepLocked() {
	now := c.clock()
	for key, entry := range c.cache {
		if !entry.expiresAt.After(now) {
			delete(c.cache, key)
		}
	}
}

// Len reports how many top lists are held, expired ones included.
func (c *TopListCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// ttlWithJitter adds up to 10% to spread expirations. Called with mu held.
func (c *TopListCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// TopListKey identifies one cached top list. Last.fm user names are
// case-insensitive.
func TopListKey(user string, kind domain.CategoryKind, period domain.Period, limit int) string {
	return strings.ToLower(user) + ":" + string(kind) + ":" + string(period) + ":" + strconv.Itoa(limit)
}
