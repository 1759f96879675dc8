package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/state"
)

const (
	keyPrefix        = "session:"
	maxApplyAttempts = 5
)

// ErrContended is returned when a session kept changing under a save.
var ErrContended = errors.New("session contended")

// RedisStore persists each session's client state as one JSON value.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load returns ok == false when the session is unknown or expired.
func (s *RedisStore) Load(ctx context.Context, id string) (state.State, bool, error) {
	return load(ctx, s.client, keyPrefix+id)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, key string) (state.State, bool, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return state.State{}, false, nil
	}
	if err != nil {
		return state.State{}, false, fmt.Errorf("load session: %w", err)
	}

	var st state.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return state.State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return st, true, nil
}

// Apply replays actions onto the stored state under WATCH and writes the
// result, refreshing the TTL. base seeds a session that is not stored yet.
// A concurrent write makes it re-read and replay again.
func (s *RedisStore) Apply(ctx context.Context, id string, base state.State, actions []state.Action) (state.State, error) {
	key := keyPrefix + id
	var out state.State

	txf := func(tx *redis.Tx) error {
		st, found, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		if !found {
			st = base
		}
		for _, a := range actions {
			st = state.Reduce(st, a)
		}
		raw, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err == nil {
			out = st
		}
		return err
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return state.State{}, fmt.Errorf("save session: %w", err)
		}
	}
	return state.State{}, fmt.Errorf("save session %s: %w", id, ErrContended)
}

// Touch refreshes the TTL of a session that did not change.
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	if err := s.client.Expire(ctx, keyPrefix+id, s.ttl).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}
