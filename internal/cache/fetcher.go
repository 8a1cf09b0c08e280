package cache

import (
	"context"
	"encoding/json"
	"log"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces the upstream payload for one cache kind. It is
// supplied by the caller, typically an HTTP client method.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Fetcher implements serve-from-cache-if-fresh-else-refetch on top of a
// Store. Concurrent misses for the same (kind, storeID) collapse onto one
// in-flight upstream call.
type Fetcher struct {
	store *Store
	group singleflight.Group
}

func NewFetcher(store *Store) *Fetcher {
	return &Fetcher{store: store}
}

// FetchWithCache returns the cached value for (kind, storeID) when fresh,
// otherwise invokes fetch, writes the result through the store, and
// returns it. Fetch errors propagate unmodified; a stale entry is never
// served as a fallback.
func FetchWithCache[T any](ctx context.Context, f *Fetcher, kind Kind, storeID string, fetch FetchFunc[T]) (T, error) {
	if out, ok := decodeEntry[T](f.store, ctx, kind, storeID); ok {
		return out, nil
	}

	val, err, _ := f.group.Do(Key(kind, storeID), func() (any, error) {
		// A concurrent caller may have finished the fetch while this one
		// waited for the flight slot.
		if out, ok := decodeEntry[T](f.store, ctx, kind, storeID); ok {
			return out, nil
		}

		out, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		f.store.Set(ctx, kind, storeID, out)
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return val.(T), nil
}

func decodeEntry[T any](store *Store, ctx context.Context, kind Kind, storeID string) (T, bool) {
	var out T

	entry, ok := store.Get(ctx, kind, storeID)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(entry.Data, &out); err != nil {
		log.Printf("[cache] WARN: payload %s does not decode, refetching: %v", Key(kind, storeID), err)
		return out, false
	}
	return out, true
}
