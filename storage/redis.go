package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// savePrefix namespaces save keys so a shared Redis can hold other data.
const savePrefix = "save:"

// RedisStore keeps saves in Redis, one key per save, no expiry.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to the given address and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, logger *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.client.Set(ctx, savePrefix+name, data, 0).Err(); err != nil {
		s.logger.Error("failed to store save", "name", name, "error", err)
		return fmt.Errorf("storing save %q: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, savePrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("save %q: %w", name, ErrNotFound)
	}
	if err != nil {
		s.logger.Error("failed to load save", "name", name, "error", err)
		return nil, fmt.Errorf("loading save %q: %w", name, err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, savePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), savePrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, savePrefix+name).Result()
	if err != nil {
		return fmt.Errorf("deleting save %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("save %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.logger.Error("failed to close redis connection", "error", err)
		return err
	}
	return nil
}
