package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares browse state between bot replicas. Every Put refreshes the TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func key(chatID string) string {
	return "browse:" + chatID
}

func (r *Redis) Get(ctx context.Context, chatID string) (*BrowseState, bool, error) {
	raw, err := r.rdb.Get(ctx, key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get browse state: %w", err)
	}
	var st BrowseState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false, fmt.Errorf("decode browse state: %w", err)
	}
	return &st, true, nil
}

func (r *Redis) Put(ctx context.Context, chatID string, st *BrowseState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, key(chatID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set browse state: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, chatID string) error {
	return r.rdb.Del(ctx, key(chatID)).Err()
}
