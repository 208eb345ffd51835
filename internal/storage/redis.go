package storage

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

// RedisStorage appends records, JSON encoded, to a Redis list.
type RedisStorage struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStorage(addr, password string, db int, key string) *RedisStorage {
	return NewRedisStorageWithClient(redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: password,
		DB:       db,
	}), key)
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client redis.UniversalClient, key string) *RedisStorage {
	return &RedisStorage{client: client, key: key}
}

// Save pushes every record onto the list in one MULTI/EXEC.
func (s *RedisStorage) Save(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	values := make([]any, 0, len(records))
	for _, r := range records {
		b, err := json.Marshal(NewRow(r))
		if err != nil {
			return fmt.Errorf("encode order %s: %v: %w", r.OrderID, err, models.ErrDatabase)
		}
		values = append(values, b)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push %d records to %q: %v: %w", len(records), s.key, err, models.ErrDatabase)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
