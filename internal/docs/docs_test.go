package docs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/kvstore"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	r := NewRepository(kvstore.New(kvstore.NewMemory(), zerolog.Nop(), nil), zerolog.Nop())
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return r
}

func mustCreate(t *testing.T, r *Repository, name, path string) Document {
	t.Helper()
	d, err := r.Create(context.Background(), Input{Name: name, Path: path, MimeType: "text/markdown", Size: 10})
	require.NoError(t, err)
	return d
}

func TestCreateAndGet(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	d := mustCreate(t, r, "spring.md", "/briefs/spring.md")
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)

	got, ok := r.Get(ctx, d.ID)
	require.True(t, ok)
	assert.Equal(t, d, got)

	got, ok = r.GetByPath(ctx, "/briefs/spring.md")
	require.True(t, ok)
	assert.Equal(t, d.ID, got.ID)

	_, ok = r.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestCreateValidation(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   Input
	}{
		{"empty name", Input{Name: "", Path: "/a"}},
		{"relative path", Input{Name: "a", Path: "a/b"}},
		{"empty path", Input{Name: "a", Path: ""}},
		{"negative size", Input{Name: "a", Path: "/a", Size: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(ctx, tt.in)
			assert.ErrorIs(t, err, perrors.ErrInvalidInput)
		})
	}
	assert.Empty(t, r.List(ctx, ""))
}

func TestCreateDuplicatePath(t *testing.T) {
	r := setupRepo(t)
	mustCreate(t, r, "a", "/a.md")
	_, err := r.Create(context.Background(), Input{Name: "b", Path: "/a.md"})
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestListByPrefix(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "b", "/briefs/b.md")
	mustCreate(t, r, "a", "/briefs/a.md")
	mustCreate(t, r, "x", "/briefsx/x.md")
	mustCreate(t, r, "n", "/notes/n.md")

	all := r.List(ctx, "")
	assert.Len(t, all, 4)

	briefs := r.List(ctx, "/briefs")
	require.Len(t, briefs, 2)
	assert.Equal(t, "/briefs/a.md", briefs[0].Path)
	assert.Equal(t, "/briefs/b.md", briefs[1].Path)

	assert.Len(t, r.List(ctx, "/briefs/"), 2)
}

func TestUpdate(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	d := mustCreate(t, r, "a", "/a.md")

	name := "renamed"
	size := int64(42)
	got, ok, err := r.Update(ctx, d.ID, Patch{Name: &name, Size: &size})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, int64(42), got.Size)
	assert.Equal(t, "text/markdown", got.MimeType)
	assert.True(t, got.UpdatedAt.After(d.UpdatedAt))

	_, ok, err = r.Update(ctx, "missing", Patch{Name: &name})
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	_, _, err = r.Update(ctx, d.ID, Patch{Name: &empty})
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestMove(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	a := mustCreate(t, r, "a", "/a.md")
	mustCreate(t, r, "b", "/b.md")

	moved, ok, err := r.Move(ctx, a.ID, "/archive/a.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/archive/a.md", moved.Path)

	_, _, err = r.Move(ctx, a.ID, "/b.md")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	_, _, err = r.Move(ctx, a.ID, "relative")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	got, _ := r.Get(ctx, a.ID)
	assert.Equal(t, "/archive/a.md", got.Path)
}

func TestShare(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	d := mustCreate(t, r, "a", "/a.md")

	shared, ok := r.Share(ctx, d.ID)
	require.True(t, ok)
	require.NotEmpty(t, shared.ShareID)

	again, _ := r.Share(ctx, d.ID)
	assert.Equal(t, shared.ShareID, again.ShareID)

	got, ok := r.GetByShareID(ctx, shared.ShareID)
	require.True(t, ok)
	assert.Equal(t, d.ID, got.ID)

	_, ok = r.GetByShareID(ctx, "")
	assert.False(t, ok)
	_, ok = r.Share(ctx, "missing")
	assert.False(t, ok)
}

func TestDeleteIsIdempotent(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	d := mustCreate(t, r, "a", "/a.md")
	mustCreate(t, r, "b", "/b.md")

	assert.True(t, r.Delete(ctx, d.ID))
	assert.False(t, r.Delete(ctx, d.ID))
	assert.Len(t, r.List(ctx, ""), 1)
}

func TestDeleteFolder(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	mustCreate(t, r, "1", "/proj/1.md")
	mustCreate(t, r, "2", "/proj/sub/2.md")
	mustCreate(t, r, "3", "/project/3.md")
	mustCreate(t, r, "4", "/other/4.md")

	assert.Equal(t, 2, r.DeleteFolder(ctx, "/proj"))

	left := r.List(ctx, "")
	require.Len(t, left, 2)
	assert.Equal(t, "/other/4.md", left[0].Path)
	assert.Equal(t, "/project/3.md", left[1].Path)

	assert.Equal(t, 0, r.DeleteFolder(ctx, "/proj"))
	assert.Equal(t, 0, r.DeleteFolder(ctx, "/"))
	assert.Equal(t, 0, r.DeleteFolder(ctx, ""))
	assert.Len(t, r.List(ctx, ""), 2)
}
