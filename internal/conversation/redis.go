package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

const (
	redisKeyPrefix  = "trainforge:conv:"
	redisLockPrefix = "trainforge:conv:lock:"
	lockPollEvery   = 50 * time.Millisecond
)

// Only the holder of the token may release the lock.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type RedisStore struct {
	rdb     *goredis.Client
	ttl     time.Duration
	lockTTL time.Duration
	log     *logger.Logger
}

func NewRedisStore(rdb *goredis.Client, ttl time.Duration, baseLog *logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		rdb:     rdb,
		ttl:     ttl,
		lockTTL: defaultLockTTL,
		log:     baseLog.With("service", "RedisConversationStore"),
	}
}

// WithLockTTL sets how long a lock survives a holder that stopped refreshing it.
func (s *RedisStore) WithLockTTL(d time.Duration) *RedisStore {
	if d > 0 {
		s.lockTTL = d
	}
	return s
}

func (s *RedisStore) History(ctx context.Context, key string) ([]llm.Message, error) {
	raw, err := s.rdb.LRange(ctx, redisKeyPrefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("conversation history: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var m llm.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.log.Warn("Skipping undecodable conversation turn", "conversation_key", key, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) Append(ctx context.Context, key string, turns ...llm.Message) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, b)
	}
	k := redisKeyPrefix + key
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, k, values...)
	pipe.Expire(ctx, k, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("conversation append: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisStore) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := redisLockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollEvery)
	defer ticker.Stop()
	for {
		ok, err := s.rdb.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("conversation lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrLockTimeout
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
	stop := make(chan struct{})
	refreshed := make(chan struct{})
	go s.keepLock(ctx, key, lockKey, token, stop, refreshed)
	defer func() {
		close(stop)
		<-refreshed
		// Release even when the request context is gone.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, s.rdb, []string{lockKey}, token).Err(); err != nil {
			s.log.Warn("Conversation lock release failed", "conversation_key", key, "error", err)
		}
	}()
	return fn(ctx)
}

// keepLock extends the lock while its holder is still running.
func (s *RedisStore) keepLock(ctx context.Context, key, lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(s.lockTTL / 3)
	defer t.Stop()
	ctx = context.WithoutCancel(ctx)
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			n, err := refreshScript.Run(rctx, s.rdb, []string{lockKey}, token, s.lockTTL.Milliseconds()).Int()
			cancel()
			if err != nil {
				s.log.Warn("Conversation lock refresh failed", "conversation_key", key, "error", err)
				continue
			}
			if n == 0 {
				s.log.Warn("Conversation lock lost", "conversation_key", key)
				return
			}
		}
	}
}
