package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickd5991-stack/jenny-bot/internal/dialogue"
)

const sessionKeyPrefix = "jenny:session:"

// RedisStore keeps sessions as JSON with a TTL refreshed on every access.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

var _ dialogue.SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a session store backed by Redis.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if rdb == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// GetOrCreate loads id or creates it at StageStart with SET NX.
func (s *RedisStore) GetOrCreate(ctx context.Context, id, callerPhone string) (*dialogue.Session, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record != nil {
		if s.ttl > 0 {
			if err := s.rdb.Expire(ctx, sessionKey(id), s.ttl).Err(); err != nil {
				return nil, fmt.Errorf("session: refresh ttl: %w", err)
			}
		}
		return record, nil
	}

	fresh := dialogue.NewSession(id, callerPhone, s.now())
	data, err := json.Marshal(fresh)
	if err != nil {
		return nil, fmt.Errorf("session: marshal: %w", err)
	}
	created, err := s.rdb.SetNX(ctx, sessionKey(id), data, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	if created {
		return fresh, nil
	}

	// Lost a create race with another instance.
	record, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("session: %s vanished after create race", id)
	}
	return record, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*dialogue.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}
	var record dialogue.Session
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &record, nil
}

// Save replaces the whole record and resets its TTL.
func (s *RedisStore) Save(ctx context.Context, record *dialogue.Session) error {
	if err := record.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(record.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Delete removes id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
