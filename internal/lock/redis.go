package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lease never releases somebody else's lock.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Redis is a Locker shared by every server instance pointed at the same
// Redis.  A lock is a key set with NX and a lease TTL; waiting callers
// poll until the key disappears.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewRedis builds a Redis locker.  ttl bounds how long a crashed holder can
// block others; poll is the wait between attempts.
func NewRedis(rdb *redis.Client, prefix string, ttl, poll time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if poll <= 0 {
		poll = 25 * time.Millisecond
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, poll: poll}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	if r.rdb == nil {
		return nil, errors.New("lock: redis client is nil")
	}
	k := r.prefix + ":" + key
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// the request context may already be gone
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, r.rdb, []string{k}, token).Err()
			}, nil
		}
		t := time.NewTimer(r.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
