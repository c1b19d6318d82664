package materialize

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/conceptgraph/reasoner/internal/platform/logger"
)

// Lock is a Redis-backed mutual exclusion lock (SET NX PX / compare-and-del
// release) guarding the materializer so only one rebuild runs at a time
// across however many worker processes are deployed.
type Lock struct {
	log   *logger.Logger
	rdb   *goredis.Client
	key   string
	ttl   time.Duration
	token string
}

func NewLock(log *logger.Logger, addr, key string, ttl time.Duration) (*Lock, error) {
	if addr == "" {
		return nil, nil
	}
	if key == "" {
		key = "conceptgraph:materialize:lock"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("materialize: redis ping: %w", err)
	}

	l := log
	if l != nil {
		l = l.With("component", "MaterializeLock")
	}

	return &Lock{log: l, rdb: rdb, key: key, ttl: ttl}, nil
}

// Acquire attempts the lock once and returns ok=false without error if
// another worker currently holds it.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("materialize: acquire lock: %w", err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// releaseScript deletes the key only if it still holds our token, so a
// worker can never release a lock another worker has since acquired after
// our TTL expired.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`

func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.rdb == nil || l.token == "" {
		return nil
	}
	if err := l.rdb.Eval(ctx, releaseScript, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("materialize: release lock: %w", err)
	}
	l.token = ""
	return nil
}

func (l *Lock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
