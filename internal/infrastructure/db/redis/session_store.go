package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
)

// SessionStore keeps the client session in Redis.
// Key format: flowtask:<instance>:token and flowtask:<instance>:user
type SessionStore struct {
	client   *redis.Client
	instance string
}

var _ ports.SessionStore = (*SessionStore)(nil)

const defaultTimeout = 5 * time.Second

// Config selects the Redis server holding the session keys.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Open dials cfg.Addr and pings it before handing out the store.
func Open(ctx context.Context, cfg Config, instance string) (*SessionStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewSessionStore(client, instance), nil
}

// NewSessionStore wraps client; the store owns it and closes it on Close.
func NewSessionStore(client *redis.Client, instance string) *SessionStore {
	return &SessionStore{client: client, instance: instance}
}

func (s *SessionStore) LoadToken(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key("token")).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return token, nil
}

func (s *SessionStore) LoadUser(ctx context.Context) (*domain.User, error) {
	raw, err := s.client.Get(ctx, s.key("user")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &user, nil
}

// Save writes both keys in one MULTI/EXEC.
func (s *SessionStore) Save(ctx context.Context, token string, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key("token"), token, 0)
		pipe.Set(ctx, s.key("user"), raw, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key("token"), s.key("user")).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) key(name string) string {
	return fmt.Sprintf("flowtask:%s:%s", s.instance, name)
}
