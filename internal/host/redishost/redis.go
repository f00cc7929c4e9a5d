// Package redishost backs the StateDB and LocalDB host services with Redis.
package redishost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", redisURL, err)
	}
	return client, nil
}

// store keeps every key of one service under a common prefix.
type store struct {
	client *redis.Client
	prefix string
}

func (s *store) get(ctx context.Context, key []byte) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *store) set(ctx context.Context, key, value []byte) error {
	return s.client.Set(ctx, s.prefix+string(key), value, 0).Err()
}

// StateDB implements host.StateDB on Redis strings.
type StateDB struct {
	store
}

// NewStateDB creates a state store whose keys live under "<namespace>:state:".
func NewStateDB(client *redis.Client, namespace string) *StateDB {
	return &StateDB{store{client: client, prefix: namespace + ":state:"}}
}

func (s *StateDB) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	return s.get(ctx, key)
}

func (s *StateDB) Set(ctx context.Context, key, value []byte) error {
	return s.set(ctx, key, value)
}

// LocalDB implements host.LocalDB on Redis strings.
type LocalDB struct {
	store
}

// NewLocalDB creates a local store whose keys live under "<namespace>:local:".
func NewLocalDB(client *redis.Client, namespace string) *LocalDB {
	return &LocalDB{store{client: client, prefix: namespace + ":local:"}}
}

func (s *LocalDB) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	return s.get(ctx, key)
}

func (s *LocalDB) Set(ctx context.Context, key, value []byte) (bool, error) {
	if err := s.set(ctx, key, value); err != nil {
		return false, err
	}
	return true, nil
}
