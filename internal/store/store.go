// Package store provides the persistent key-value slots that survive client restarts.
package store

import (
	"context"
)

// KV is a durable string slot keyed by name.
type KV interface {
	// Get returns the value stored under key. A missing key is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
