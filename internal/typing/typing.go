// Package typing tracks best-effort "user is typing" presence for chat
// channels. Entries expire after a short TTL and a background sweeper
// reaps them. This state is never durable or authoritative: by default it
// is scoped to one server instance, and deployments that run several
// instances attach the shared Redis cache so every instance sees the same
// indicators.
package typing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/orbitlabs/commune/backend/internal/cache"
	"go.uber.org/zap"
)

// DefaultTTL matches the chat UI's indicator timeout
const DefaultTTL = 10 * time.Second

type key struct {
	channelID string
	userID    string
}

// Store is a time-indexed expiring key-value cache of typing indicators
type Store struct {
	mu      sync.RWMutex
	entries map[key]time.Time

	ttl      time.Duration
	interval time.Duration
	redis    *cache.RedisClient
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Store with the given TTL; the sweeper runs at the same
// cadence
func New(ttl time.Duration, log *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		entries:  make(map[key]time.Time),
		ttl:      ttl,
		interval: ttl,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetSharedCache switches the store to Redis-backed mode for
// multi-instance deployments
func (s *Store) SetSharedCache(rc *cache.RedisClient) {
	s.redis = rc
}

// Start begins the background sweep. No-op in Redis mode, where expiry is
// handled by SETEX.
func (s *Store) Start() {
	if s.redis != nil {
		return
	}
	go s.run()
}

// Stop cancels the sweeper
func (s *Store) Stop() {
	s.cancel()
}

// Set records that userID is typing in channelID, refreshing the TTL
func (s *Store) Set(channelID, userID string) error {
	if s.redis != nil {
		return s.redis.SetEx(s.ctx, redisKey(channelID, userID), "1", s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{channelID, userID}] = time.Now().Add(s.ttl)
	return nil
}

// Clear removes the indicator before its TTL, for when a message is sent
func (s *Store) Clear(channelID, userID string) error {
	if s.redis != nil {
		return s.redis.Del(s.ctx, redisKey(channelID, userID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key{channelID, userID})
	return nil
}

// Active returns the users currently typing in channelID
func (s *Store) Active(channelID string) ([]string, error) {
	if s.redis != nil {
		keys, err := s.redis.Keys(s.ctx, "typing:"+channelID+":*")
		if err != nil {
			return nil, err
		}
		users := make([]string, 0, len(keys))
		for _, k := range keys {
			if idx := strings.LastIndex(k, ":"); idx >= 0 {
				users = append(users, k[idx+1:])
			}
		}
		return users, nil
	}

	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []string
	for k, expires := range s.entries {
		if k.channelID == channelID && expires.After(now) {
			users = append(users, k.userID)
		}
	}
	return users, nil
}

// run sweeps expired entries on a ticker until Stop
func (s *Store) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, expires := range s.entries {
		if !expires.After(now) {
			delete(s.entries, k)
			removed++
		}
	}
	if removed > 0 && s.log != nil {
		s.log.Debug("typing indicators swept", zap.Int("removed", removed))
	}
}

func redisKey(channelID, userID string) string {
	return "typing:" + channelID + ":" + userID
}
