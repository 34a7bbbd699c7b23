package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ggonzalez94/defi-explorer/internal/model"
)

// DefaultTTL bounds how long an aggregated yield list is served before the
// providers are queried again.
const DefaultTTL = 5 * time.Minute

// noTokenKey stands in for an absent token address so that key derivation is
// total. Get and Set never reach the map with it.
const noTokenKey = "<none>"

type entry struct {
	value    []model.YieldData
	storedAt time.Time
}

// Store is a process-local yield cache keyed by (token address, chain id).
// Expired entries are only removed when read.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type Result struct {
	Hit   bool
	Value []model.YieldData
	Age   time.Duration
}

func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) TTL() time.Duration { return s.ttl }

// Key derives the cache key shared by Get and Set.
func Key(tokenAddress string, chainID int64) string {
	token := strings.ToLower(strings.TrimSpace(tokenAddress))
	if token == "" {
		token = noTokenKey
	}
	return token + ":" + strconv.FormatInt(chainID, 10)
}

func (s *Store) Get(tokenAddress string, chainID int64) Result {
	if strings.TrimSpace(tokenAddress) == "" {
		return Result{}
	}
	key := Key(tokenAddress, chainID)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Result{}
	}
	age := s.now().Sub(e.storedAt)
	if age < 0 {
		age = 0
	}
	if age > s.ttl {
		delete(s.entries, key)
		return Result{}
	}
	return Result{Hit: true, Value: e.value, Age: age}
}

func (s *Store) Set(tokenAddress string, chainID int64, data []model.YieldData) {
	if strings.TrimSpace(tokenAddress) == "" {
		return
	}
	key := Key(tokenAddress, chainID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: data, storedAt: s.now()}
}

// Len reports the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
