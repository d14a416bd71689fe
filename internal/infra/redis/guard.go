package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OperationGuard is an app.OperationGuard shared across instances through
// SETNX. The TTL frees keys left behind by a crashed instance, and each
// acquisition stores a token so a holder whose key expired cannot release
// a key another instance has taken since.
type OperationGuard struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

func NewOperationGuard(client *redis.Client, ttl time.Duration) *OperationGuard {
	return &OperationGuard{client: client, ttl: ttl, tokens: make(map[string]string)}
}

func (g *OperationGuard) TryAcquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, GuardKey(key), token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	if ok {
		g.mu.Lock()
		g.tokens[key] = token
		g.mu.Unlock()
	}
	return ok, nil
}

func (g *OperationGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	token, ok := g.tokens[key]
	delete(g.tokens, key)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, g.client, []string{GuardKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// GuardKey is the Redis key holding a pending operation.
func GuardKey(key string) string {
	return "scrobble:pending:" + key
}
