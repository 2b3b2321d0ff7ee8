package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockPrefix = "storefront_lock:"

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short-lived named locks so only one replica runs a job.
type Locker struct {
	Client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{Client: client}
}

// Acquire takes name for owner until ttl elapses. It reports false when
// another owner holds it.
func (l *Locker) Acquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	ok, err := l.Client.SetNX(ctx, lockPrefix+name, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// Release frees name if owner still holds it.
func (l *Locker) Release(ctx context.Context, name, owner string) error {
	if err := releaseScript.Run(ctx, l.Client, []string{lockPrefix + name}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}
