package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("FLUXDOCK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FLUXDOCK_TEST_POSTGRES_DSN not set")
	}
	s, err := New(context.Background(), dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKV_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _ = s.Delete(ctx, key) })

	_, err := s.Load(ctx, key)
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	require.NoError(t, s.Save(ctx, key, []byte(`{"id":"p1"}`)))
	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1"}`, string(got))

	keys, err := s.Keys(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Load(ctx, key)
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `results\_a\%`, escapeLike("results_a%"))
}
