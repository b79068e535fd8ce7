// Package session holds the bearer credential for the running client and
// mirrors it into a persistent slot so a later process can restore it.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rcliao/synapse/internal/store"
)

// TokenKey names the persistent slot holding the credential.
const TokenKey = "synapse_token"

// Store keeps the credential in memory. Reads never touch the persistent slot.
type Store struct {
	kv store.KV

	mu    sync.RWMutex
	token string
}

// New returns a Store over kv. Call Load once to pick up a persisted credential.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load initializes the in-memory value from the persistent slot.
// An empty slot yields no credential, not an error.
func (s *Store) Load(ctx context.Context) error {
	token, _, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Get returns the current credential, or "" when there is none.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the credential. An empty token erases it, both in memory and in
// the persistent slot. Setting the current value again performs no I/O.
// The in-memory value is updated even if persisting fails.
func (s *Store) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == s.token {
		return nil
	}
	s.token = token

	if token == "" {
		if err := s.kv.Delete(ctx, TokenKey); err != nil {
			return fmt.Errorf("erase credential: %w", err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// Clear erases the credential.
func (s *Store) Clear(ctx context.Context) error {
	return s.Set(ctx, "")
}
