package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymreps/internal/reps"
)

const cacheKeyPrefix = "sessions::"

// CachedStore caches List results of the wrapped store. Appending through the
// CachedStore drops the cached list of that user.
type CachedStore struct {
	store         Store
	cache         *freecache.Cache
	expireSeconds int

	// a list read from the store is only cached if no append of that user
	// finished since the read started
	mu          sync.Mutex
	generations map[string]uint64
}

func NewCachedStore(store Store, cacheSizeBytes int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store:         store,
		cache:         freecache.NewCache(cacheSizeBytes),
		expireSeconds: int(ttl / time.Second),
		generations:   make(map[string]uint64),
	}
}

func (s *CachedStore) Append(ctx context.Context, username string, summary reps.SessionSummary) error {
	username, err := ValidateUsername(username)
	if err != nil {
		return err
	}

	// invalidate even if append fails, the backend state is unknown then
	defer s.invalidate(username)

	return s.store.Append(ctx, username, summary)
}

func (s *CachedStore) invalidate(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[username]++
	s.cache.Del(cacheKey(username))
}

func (s *CachedStore) generation(username string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[username]
}

func (s *CachedStore) List(ctx context.Context, username string) ([]reps.SessionSummary, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	key := cacheKey(username)
	if cached, err := s.cache.Get(key); err == nil {
		var list []reps.SessionSummary
		if err := json.Unmarshal(cached, &list); err == nil {
			log.Tracef("sessions of [%s] found in cache", username)
			return list, nil
		} else {
			log.Errorf("unmarshal cached sessions of [%s]: %s", username, err)
		}
	}

	generation := s.generation(username)
	list, err := s.store.List(ctx, username)
	if err != nil {
		return nil, err
	}

	listJson, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("marshal sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[username] != generation {
		log.Tracef("sessions of [%s] changed while listing, not caching", username)
		return list, nil
	}
	if err := s.cache.Set(key, listJson, s.expireSeconds); err != nil {
		log.Warnf("set sessions cache for [%s]: %s", username, err)
	}

	return list, nil
}

func cacheKey(username string) []byte {
	return []byte(cacheKeyPrefix + username)
}
