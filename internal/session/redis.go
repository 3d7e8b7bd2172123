package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix    = "trainbot:session:"
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// RedisOptions configures the redis connection used by the redis store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient returns a configured go-redis client and validates the connection with PING.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore returns a redis-backed Store. An empty prefix uses the default.
func NewRedisStore(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisStore {
	keyPrefix = strings.TrimSpace(keyPrefix)
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) key(userID int64) string {
	return s.keyPrefix + strconv.FormatInt(userID, 10)
}

// Get returns the cached session or an entry session when the key is missing.
func (s *RedisStore) Get(ctx context.Context, userID int64) (Session, error) {
	if userID == 0 {
		return Session{}, ErrInvalidUser
	}
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry(), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: redis get: %w", err)
	}
	return decodeSession(raw)
}

// Put stores the session and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, userID int64, sess Session) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

func decodeSession(raw []byte) (Session, error) {
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	if sess.State == "" {
		sess.State = StateEntry
	}
	return sess, nil
}
