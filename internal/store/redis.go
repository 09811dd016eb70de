package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optwhisper/game-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and refresh the cache; reads check
// Redis first then fall back to the primary. Cache entries carry a TTL so
// an abandoned session evaporates even if the sweeper misses it.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) CreateSession(ctx context.Context, sess *model.Session) error {
	if err := s.primary.CreateSession(ctx, sess); err != nil {
		return err
	}
	s.cacheSession(ctx, sess)
	return nil
}

func (s *CachedStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == nil {
		var sess model.Session
		if json.Unmarshal(data, &sess) == nil {
			return &sess, nil
		}
	}

	// Cache miss: read from primary.
	sess, err := s.primary.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSession(ctx, sess)
	return sess, nil
}

func (s *CachedStore) SaveSession(ctx context.Context, sess *model.Session) error {
	if err := s.primary.SaveSession(ctx, sess); err != nil {
		return err
	}
	s.cacheSession(ctx, sess)
	return nil
}

func (s *CachedStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.primary.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, sessionKey(id))
	return nil
}

func (s *CachedStore) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error) {
	// Cache entries expire on their own TTL; only the primary needs the sweep.
	return s.primary.DeleteIdleBefore(ctx, cutoff)
}

func (s *CachedStore) cacheSession(ctx context.Context, sess *model.Session) {
	if data, err := json.Marshal(sess); err == nil {
		s.rdb.Set(ctx, sessionKey(sess.ID), data, s.ttl)
	}
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s", id) }
