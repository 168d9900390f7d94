package scorestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/logger"
)

const (
	keyPrefix  = "trust:score:"
	defaultTTL = time.Hour
)

// DurableStore is the system-of-record side of the cache: account scores
// persisted in the relational store.
type DurableStore interface {
	GetScore(ctx context.Context, accountID string) (*int, error)
	UpdateScore(ctx context.Context, accountID string, score int) error
}

// Store keeps trust scores in Redis in front of the durable account store.
// Cached entries expire after the configured TTL and are reloaded from the
// durable store on the next read.
type Store struct {
	cache   *redis.Client
	durable DurableStore
	ttl     time.Duration
}

// NewStore creates a score store. A non-positive ttl falls back to one hour.
func NewStore(cache *redis.Client, durable DurableStore, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{cache: cache, durable: durable, ttl: ttl}
}

func scoreKey(accountID string) string {
	return keyPrefix + accountID
}

// Get returns the score for an account, reading through to the durable
// store on a cache miss and repopulating the cache. The boolean reports
// whether a score exists at all.
func (s *Store) Get(ctx context.Context, accountID string) (int, bool, error) {
	val, err := s.cache.Get(ctx, scoreKey(accountID)).Result()
	if err == nil {
		score, convErr := strconv.Atoi(val)
		if convErr == nil {
			return score, true, nil
		}
		logger.Warn("corrupt cached score, falling back to durable store",
			zap.String("account_id", accountID),
			zap.String("value", val))
	} else if !errors.Is(err, redis.Nil) {
		return 0, false, common.NewStoreUnavailable("read cached score", err)
	}

	stored, err := s.durable.GetScore(ctx, accountID)
	if err != nil {
		return 0, false, err
	}
	if stored == nil {
		return 0, false, nil
	}

	if err := s.Set(ctx, accountID, *stored); err != nil {
		logger.Warn("failed to repopulate score cache",
			zap.String("account_id", accountID),
			zap.Error(err))
	}
	return *stored, true, nil
}

// Set writes a score into the cache with the store TTL
func (s *Store) Set(ctx context.Context, accountID string, score int) error {
	if err := s.cache.Set(ctx, scoreKey(accountID), strconv.Itoa(score), s.ttl).Err(); err != nil {
		return common.NewStoreUnavailable("cache score", err)
	}
	return nil
}

// Update overwrites the cached score only when an entry already exists,
// keeping its remaining TTL. It reports whether the entry was present;
// a missing entry is logged and left for the next read-through to load.
func (s *Store) Update(ctx context.Context, accountID string, score int) (bool, error) {
	ok, err := s.cache.SetXX(ctx, scoreKey(accountID), strconv.Itoa(score), redis.KeepTTL).Result()
	if err != nil {
		return false, common.NewStoreUnavailable("update cached score", err)
	}
	if !ok {
		logger.Warn("score cache entry missing on update",
			zap.String("account_id", accountID),
			zap.Int("score", score))
	}
	return ok, nil
}

// GetOrLoad returns the cached score or, on a full miss, the value produced
// by loader. A loader result is cached; a reported absence is not, and zero
// is returned.
func (s *Store) GetOrLoad(ctx context.Context, accountID string, loader func(context.Context) (int, bool, error)) (int, error) {
	score, found, err := s.Get(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if found {
		return score, nil
	}

	loaded, ok, err := loader(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	if err := s.Set(ctx, accountID, loaded); err != nil {
		logger.Warn("failed to cache loaded score",
			zap.String("account_id", accountID),
			zap.Error(err))
	}
	return loaded, nil
}

// Reconcile pushes the cached score for an account back into the durable
// store. It is a no-op when the cache has no entry.
func (s *Store) Reconcile(ctx context.Context, accountID string) error {
	val, err := s.cache.Get(ctx, scoreKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return common.NewStoreUnavailable("read cached score", err)
	}

	score, err := strconv.Atoi(val)
	if err != nil {
		return common.NewInternal(fmt.Sprintf("corrupt cached score for account %s", accountID), err)
	}
	return s.durable.UpdateScore(ctx, accountID, score)
}
