// Package cache keeps time-bounded copies of expensive upstream fetches,
// keyed by data kind and store identity, on top of an injected key-value
// substrate. Substrate failures and corrupt entries degrade to cache
// misses; they are logged and never surfaced to callers.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"sellerdash/internal/kv"
)

// Entry is the persisted envelope for one cached payload. The JSON shape
// is shared with other storage backends and must stay stable.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
	StoreID   string          `json:"storeId"`
}

// Age returns how old the entry was at the given instant.
func (e Entry) Age(at time.Time) time.Duration {
	return time.Duration(at.UnixMilli()-e.Timestamp) * time.Millisecond
}

type Store struct {
	substrate kv.Store
	now       func() time.Time
}

func New(substrate kv.Store) *Store {
	return &Store{substrate: substrate, now: time.Now}
}

// NewWithClock injects the time source. Tests use it to step across TTL
// boundaries without sleeping.
func NewWithClock(substrate kv.Store, now func() time.Time) *Store {
	return &Store{substrate: substrate, now: now}
}

// Get returns the entry for (kind, storeID) if it exists and is younger
// than the kind's TTL. Expired entries are deleted from the substrate on
// the way out; corrupt entries are treated the same way. Substrate read
// errors are a logged miss.
func (s *Store) Get(ctx context.Context, kind Kind, storeID string) (Entry, bool) {
	key := Key(kind, storeID)

	raw, ok, err := s.substrate.Read(ctx, key)
	if err != nil {
		log.Printf("[cache] WARN: read %s failed: %v", key, err)
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Printf("[cache] WARN: dropping corrupt entry %s: %v", key, err)
		s.evict(ctx, key)
		return Entry{}, false
	}

	if entry.Age(s.now()) > TTL(kind) {
		s.evict(ctx, key)
		return Entry{}, false
	}

	return entry, true
}

// Set stores data under (kind, storeID), stamping it with the current
// time and unconditionally replacing any prior entry. The write is best
// effort: failures are logged, not returned.
func (s *Store) Set(ctx context.Context, kind Kind, storeID string, data any) {
	key := Key(kind, storeID)

	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("[cache] WARN: marshal %s failed: %v", key, err)
		return
	}

	entry, err := json.Marshal(Entry{
		Data:      payload,
		Timestamp: s.now().UnixMilli(),
		StoreID:   storeID,
	})
	if err != nil {
		log.Printf("[cache] WARN: marshal envelope %s failed: %v", key, err)
		return
	}

	if err := s.substrate.Write(ctx, key, entry); err != nil {
		log.Printf("[cache] WARN: write %s failed: %v", key, err)
	}
}

func (s *Store) evict(ctx context.Context, key string) {
	if err := s.substrate.Delete(ctx, key); err != nil {
		log.Printf("[cache] WARN: evict %s failed: %v", key, err)
	}
}
