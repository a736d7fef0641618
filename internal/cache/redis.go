package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/bnbchat/config"
	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPollInterval = 25 * time.Millisecond

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisSessionStore keeps the session table in Redis so several app replicas
// can share conversations. Every write refreshes the session TTL.
type RedisSessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisSessionStore(cfg config.RedisConfig, ttl, lockTTL time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func (c *RedisSessionStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSessionStore) Close() error {
	return c.client.Close()
}

// Lock polls SET NX until it owns the session lock or ctx is done. The lock
// expires after lockTTL so a crashed holder cannot pin the session.
func (c *RedisSessionStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := sessionLockKey(sessionID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := c.client.SetNX(ctx, key, token, c.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.Background(), c.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *RedisSessionStore) Pending(ctx context.Context, sessionID string) (*domain.DateRange, error) {
	var r domain.DateRange
	found, err := c.get(ctx, pendingKey(sessionID), &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

func (c *RedisSessionStore) SetPending(ctx context.Context, sessionID string, r domain.DateRange) error {
	return c.set(ctx, pendingKey(sessionID), r)
}

func (c *RedisSessionStore) ClearPending(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, pendingKey(sessionID)).Err()
}

func (c *RedisSessionStore) Transcript(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var messages []domain.Message
	if _, err := c.get(ctx, transcriptKey(sessionID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *RedisSessionStore) SetTranscript(ctx context.Context, sessionID string, messages []domain.Message) error {
	return c.set(ctx, transcriptKey(sessionID), messages)
}

func (c *RedisSessionStore) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisSessionStore) set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func pendingKey(sessionID string) string {
	return fmt.Sprintf("session:%s:pending", sessionID)
}

func transcriptKey(sessionID string) string {
	return fmt.Sprintf("session:%s:transcript", sessionID)
}

func sessionLockKey(sessionID string) string {
	return fmt.Sprintf("lock:session:%s", sessionID)
}
