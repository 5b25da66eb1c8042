// Package rdx keeps terminal tokens in Redis so every instance of the kiosk
// service sees the same sessions.
package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kiosk/session"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "kiosk:token:"

// TokenStore implements session.TokenStore on a Redis client.
type TokenStore struct {
	Conn *redis.Client
}

// Connect parses url, pings the server and returns a ready store.
func Connect(ctx context.Context, url string) (*TokenStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	conn := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &TokenStore{Conn: conn}, nil
}

func key(terminal string) string {
	return keyPrefix + terminal
}

func (s *TokenStore) Load(ctx context.Context, terminal string) (session.Stored, error) {
	raw, err := s.Conn.Get(ctx, key(terminal)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Stored{}, session.ErrNoToken
	}
	if err != nil {
		return session.Stored{}, fmt.Errorf("redis get token: %w", err)
	}
	var stored session.Stored
	if err := json.Unmarshal(raw, &stored); err != nil {
		return session.Stored{}, fmt.Errorf("decode stored token: %w", err)
	}
	return stored, nil
}

// Save writes the token. A zero ttl keeps it until deleted.
func (s *TokenStore) Save(ctx context.Context, terminal string, stored session.Stored, ttl time.Duration) error {
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if err := s.Conn.Set(ctx, key(terminal), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context, terminal string) error {
	if err := s.Conn.Del(ctx, key(terminal)).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.Conn.Close()
}
