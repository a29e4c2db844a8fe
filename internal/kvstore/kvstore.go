// Package kvstore is the persistent keyed store every dock collection is built on.
//
// Values are JSON documents addressed by string keys. The store never returns
// storage failures to callers: an unavailable backend, a missing key or a
// corrupt document all read back as the caller's default, and failed writes
// become no-ops. Failures are logged and counted instead.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/metrics"
)

// Backend is the storage port. Load returns perrors.ErrNotFound for absent keys.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// Store wraps a Backend with JSON encoding, failure recovery and change
// subscriptions. A nil backend means storage is unavailable.
type Store struct {
	backend Backend
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	subs   map[string]map[int]func(raw []byte)
	nextID int
}

// New creates a keyed store. backend may be nil.
func New(backend Backend, logger zerolog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		backend: backend,
		logger:  logger.With().Str("component", "kvstore").Logger(),
		metrics: m,
		subs:    make(map[string]map[int]func(raw []byte)),
	}
}

// Available reports whether a backend is attached.
func (s *Store) Available() bool {
	return s != nil && s.backend != nil
}

// Ping checks the backend. It is the only method that reports failures.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Available() {
		return perrors.ErrUnavailable
	}
	return s.backend.Ping(ctx)
}

// Read decodes the value at key into a T, returning def when storage is
// unavailable, the key is absent, or the stored document is malformed.
func Read[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, ok := s.load(ctx, key)
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.absorb(&perrors.StorageError{Op: "decode", Key: key, Err: err})
		return def
	}
	return v
}

// Write encodes v and persists it at key. Failures are recovered.
func Write[T any](ctx context.Context, s *Store, key string, v T) {
	if !s.Available() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.absorb(&perrors.StorageError{Op: "encode", Key: key, Err: err})
		return
	}
	if err := s.backend.Save(ctx, key, raw); err != nil {
		s.absorb(&perrors.StorageError{Op: "save", Key: key, Err: err})
		return
	}
	s.publish(key, raw)
}

// Remove deletes key. Failures are recovered.
func (s *Store) Remove(ctx context.Context, key string) {
	if !s.Available() {
		return
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		s.absorb(&perrors.StorageError{Op: "delete", Key: key, Err: err})
		return
	}
	s.publish(key, nil)
}

// Keys lists stored keys with the given prefix in lexical order. Returns nil
// on failure.
func (s *Store) Keys(ctx context.Context, prefix string) []string {
	if !s.Available() {
		return nil
	}
	keys, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		s.absorb(&perrors.StorageError{Op: "keys", Key: prefix, Err: err})
		return nil
	}
	sort.Strings(keys)
	return keys
}

// Subscribe registers fn to be called after every successful write or
// removal of key. raw is nil after a removal. Returns an unsubscribe func.
func (s *Store) Subscribe(key string, fn func(raw []byte)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(raw []byte))
	}
	s.subs[key][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
		if len(s.subs[key]) == 0 {
			delete(s.subs, key)
		}
	}
}

func (s *Store) load(ctx context.Context, key string) ([]byte, bool) {
	if !s.Available() {
		return nil, false
	}
	raw, err := s.backend.Load(ctx, key)
	if errors.Is(err, perrors.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.absorb(&perrors.StorageError{Op: "load", Key: key, Err: err})
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (s *Store) publish(key string, raw []byte) {
	s.mu.RLock()
	fns := make([]func([]byte), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(raw)
	}
}

func (s *Store) absorb(err *perrors.StorageError) {
	s.logger.Warn().Err(err.Err).Str("op", err.Op).Str("key", err.Key).Msg("storage error recovered")
	s.metrics.RecordStorageError(err.Op)
}
