package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// linksKey is the hash holding every key -> target mapping. Keeping the
// whole mapping in one hash makes List a single HGetAll and gives writes
// last-write-wins semantics for free.
const linksKey = "golinks:links"

// RedisStore implements Store on a Redis hash.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	target, err := s.client.HGet(ctx, linksKey, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get link from Redis: %w", err)
	}

	return target, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, target string) error {
	if err := s.client.HSet(ctx, linksKey, key, target).Err(); err != nil {
		return fmt.Errorf("failed to store link in Redis: %w", err)
	}

	return nil
}

func (s *RedisStore) List(ctx context.Context) (map[string]string, error) {
	links, err := s.client.HGetAll(ctx, linksKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list links from Redis: %w", err)
	}

	return links, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
