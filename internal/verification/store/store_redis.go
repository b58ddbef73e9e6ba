package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agegate/internal/verification/models"
	"agegate/pkg/platform/sentinel"
)

// Redis key prefix for verification records.
const recordKeyPrefix = "agegate:verification:"

// RedisStore is a Redis-backed verification store for deployments where
// multiple broker instances share state. Redis enforces the TTL natively;
// Get still applies the lazy expiry check so both implementations agree at
// the boundary.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed verification store. The client
// lifecycle is managed externally.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, record models.Record) (string, error) {
	if !record.HasCorrelation() {
		return "", fmt.Errorf("record requires a customer id or checkout token")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode verification record: %w", err)
	}

	for {
		id, err := newID()
		if err != nil {
			return "", err
		}
		// SET NX keeps the never-overwrite guarantee even across instances.
		ok, err := s.client.SetNX(ctx, recordKeyPrefix+id, payload, models.RecordTTL).Result()
		if err != nil {
			return "", fmt.Errorf("store verification record: %w", err)
		}
		if ok {
			return id, nil
		}
	}
}

func (s *RedisStore) Get(ctx context.Context, id string, now time.Time) (models.Record, error) {
	payload, err := s.client.Get(ctx, recordKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Record{}, fmt.Errorf("verification %q: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Record{}, fmt.Errorf("load verification record: %w", err)
	}

	var record models.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return models.Record{}, fmt.Errorf("decode verification record: %w", err)
	}
	if record.Expired(now) {
		if err := s.Delete(ctx, id); err != nil {
			return models.Record{}, err
		}
		return models.Record{}, fmt.Errorf("verification %q expired: %w", id, sentinel.ErrNotFound)
	}
	return record, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, recordKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	return nil
}
