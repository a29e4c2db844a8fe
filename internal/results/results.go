// Package results keeps generated outputs so they can be reopened later
// through deep links.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/kvstore"
	"github.com/p-blackswan/fluxdock/internal/launcher"
	"github.com/p-blackswan/fluxdock/lru"
)

// KeyPrefix prefixes every stored result key.
const KeyPrefix = "results:"

// cacheSize bounds the decoded results kept in memory for repeated deep links.
const cacheSize = 128

// StoredResult is a generated output kept for later retrieval.
type StoredResult struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Result    json.RawMessage `json:"result"`
	Prompt    string          `json:"prompt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt,omitempty"` // zero means never
}

// IsExpired reports whether the result has expired at now.
func (r *StoredResult) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Store persists results in the keyed store under results:<id>.
type Store struct {
	kv     *kvstore.Store
	ttl    time.Duration
	cache  *lru.Cache[string, StoredResult]
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a result store. A ttl of zero keeps results forever.
func New(kv *kvstore.Store, ttl time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		ttl:    ttl,
		cache:  lru.New[string, StoredResult](cacheSize),
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With().Str("component", "results").Logger(),
	}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func key(id string) string { return KeyPrefix + id }

// Save stores result and returns its record.
func (s *Store) Save(ctx context.Context, kind string, result json.RawMessage, prompt string) (StoredResult, error) {
	if strings.TrimSpace(kind) == "" {
		return StoredResult{}, fmt.Errorf("%w: kind is required", perrors.ErrInvalidInput)
	}
	if !json.Valid(result) {
		return StoredResult{}, fmt.Errorf("%w: result is not valid JSON", perrors.ErrInvalidInput)
	}
	if !s.kv.Available() {
		return StoredResult{}, fmt.Errorf("save result: %w", perrors.ErrUnavailable)
	}

	now := s.now()
	r := StoredResult{
		ID:        uuid.New().String(),
		Kind:      kind,
		Result:    result,
		Prompt:    prompt,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		r.ExpiresAt = now.Add(s.ttl)
	}
	kvstore.Write(ctx, s.kv, key(r.ID), r)
	s.logger.Debug().Str("result_id", r.ID).Str("kind", kind).Msg("result stored")
	return r, nil
}

// Get returns a stored result. Returns ErrNotFound or ErrExpired.
func (s *Store) Get(ctx context.Context, id string) (*StoredResult, error) {
	if id == "" {
		return nil, perrors.ErrNotFound
	}
	now := s.now()
	if r, ok := s.cache.Get(id, now); ok {
		return &r, nil
	}

	r := kvstore.Read(ctx, s.kv, key(id), StoredResult{})
	if r.ID == "" {
		return nil, perrors.ErrNotFound
	}
	if r.IsExpired(now) {
		return nil, perrors.ErrExpired
	}
	s.cache.Put(id, r, r.ExpiresAt)
	return &r, nil
}

// Resolve fetches a result for a deep link. It returns nil when the result is
// missing, expired or unreadable.
func (s *Store) Resolve(ctx context.Context, id string) *launcher.Resolved {
	r, err := s.Get(ctx, id)
	if err != nil {
		s.logger.Debug().Err(err).Str("result_id", id).Msg("result not resolvable")
		return nil
	}
	if !json.Valid(r.Result) {
		return nil
	}
	return &launcher.Resolved{Result: r.Result, Prompt: r.Prompt}
}

// Delete removes a result. Deleting a missing result is a no-op.
func (s *Store) Delete(ctx context.Context, id string) {
	s.cache.Delete(id)
	s.kv.Remove(ctx, key(id))
}

// Cleanup removes expired and unreadable results and returns how many were
// removed. The read cache starts empty after every sweep.
func (s *Store) Cleanup(ctx context.Context) int {
	s.cache.Purge()
	now := s.now()
	count := 0
	for _, k := range s.kv.Keys(ctx, KeyPrefix) {
		r := kvstore.Read(ctx, s.kv, k, StoredResult{})
		if r.ID != "" && !r.IsExpired(now) {
			continue
		}
		s.kv.Remove(ctx, k)
		count++
	}
	if count > 0 {
		s.logger.Info().Int("removed", count).Msg("expired results cleaned up")
	}
	return count
}
