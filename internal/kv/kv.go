// Package kv is the storage port behind the analytics cache: a minimal
// keyed byte store so the cache layer never touches a concrete backend.
package kv

import "context"

type Store interface {
	// Read returns the stored value, or ok=false when the key is absent.
	Read(ctx context.Context, key string) (value []byte, ok bool, err error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
