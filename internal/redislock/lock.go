package redislock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript releases the lock only when the caller still owns it, so a
// holder whose TTL expired cannot delete a lock re-acquired by someone else.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Lock is a best-effort distributed mutex on a single Redis instance,
// built on SET NX PX. It guards the recompute sweep across deployments;
// scores are approximate, so the occasional double sweep under a Redis
// failover is tolerable.
type Lock struct {
	client *redis.Client
}

func New(client *redis.Client) *Lock {
	return &Lock{client: client}
}

// Acquire tries to take the named lock for ttl. ok=false means another
// holder has it. The returned release func is nil unless ok.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error) {
	token := uuid.NewString()

	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release = func() {
		// Release must run even when the caller's ctx is already done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
