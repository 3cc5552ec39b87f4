package locksvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

const (
	keyPrefix  = "lock:"
	retryDelay = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it is still held with our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger core.Logger
}

var _ core.Locker = (*redisLocker)(nil)

// NewRedisLocker returns a Locker shared by every process using the same redis.
// A lock expires after conf.Redis.LockTTL if its holder dies.
func NewRedisLocker(client *redis.Client, conf *core.Config, logger core.Logger) core.Locker {
	ttl := conf.Redis.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisLocker{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient opens a client to the configured redis and pings it.
func NewRedisClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = keyPrefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, core.NewStoreError("acquiring lock", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(retryDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	return func() {
		// the caller's ctx may be done by now
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Error(fmt.Sprintf("releasing lock %s: %v", key, err), err)
		}
	}, nil
}
