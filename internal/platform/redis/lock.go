package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const lockPrefix = keyPrefix + "lock:reconcile:"

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived per-task locks via SET NX PX.
type Locker struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewLocker creates a Locker whose locks expire after ttl.
func NewLocker(client goredis.UniversalClient, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// TryLock attempts to take the reconcile lock for a task without waiting.
// When acquired is true the caller must invoke release once done.
func (l *Locker) TryLock(ctx context.Context, taskID uuid.UUID) (release func(), acquired bool, err error) {
	key := lockPrefix + taskID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire reconcile lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func() {
		// the caller's context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
