package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/types"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "sessions.db"))
	require.NoError(t, err)

	memSQL, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)

	all := map[string]Store{
		"memory":        NewMemoryStore(),
		"sqlite":        sqlite,
		"sqlite-memory": memSQL,
	}
	t.Cleanup(func() {
		for _, s := range all {
			assert.NoError(t, s.Close())
		}
	})

	return all
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess, err := store.Create(ctx, "Pricing page")
			require.NoError(t, err)
			require.NotEmpty(t, sess.ID)

			sess.Append("user", "a pricing card")
			sess.Append("assistant", "```jsx\nfunction PricingCard() {}\n```")
			sess.Component = types.GeneratedComponent{
				JSX:          "function PricingCard() {}",
				CSS:          ".pricing-card {}",
				LastModified: time.Now().UTC(),
			}
			require.NoError(t, store.Save(ctx, sess))

			got, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, "Pricing page", got.Name)
			require.Len(t, got.Messages, 2)
			assert.Equal(t, "user", got.Messages[0].Role)
			assert.Equal(t, "a pricing card", got.Messages[0].Content)
			assert.Equal(t, sess.Component.JSX, got.Component.JSX)
			assert.Equal(t, sess.Component.CSS, got.Component.CSS)
			assert.True(t, sess.Component.LastModified.Equal(got.Component.LastModified))

			got.Clear()
			require.NoError(t, store.Save(ctx, got))

			cleared, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Empty(t, cleared.Messages)
			assert.True(t, cleared.Component.IsEmpty())
		})
	}
}

func TestStoreListAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			older, err := store.Create(ctx, "older")
			require.NoError(t, err)
			newer, err := store.Create(ctx, "newer")
			require.NoError(t, err)
			newer.Append("user", "hello")
			newer.UpdatedAt = older.UpdatedAt.Add(time.Minute)
			require.NoError(t, store.Save(ctx, newer))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, newer.ID, list[0].ID)
			assert.Equal(t, 1, list[0].Messages)
			assert.Equal(t, older.ID, list[1].ID)

			require.NoError(t, store.Delete(ctx, older.ID))

			_, err = store.Get(ctx, older.ID)
			assert.Equal(t, jsxerrors.ErrorTypeNotFound, jsxerrors.TypeOf(err))
			assert.Equal(t, jsxerrors.ErrorTypeNotFound, jsxerrors.TypeOf(store.Delete(ctx, older.ID)))

			list, err = store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess, err := store.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled session", sess.Name)

	sess.Append("user", "not saved")

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, "sqlite", filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "redis", "")
	assert.Error(t, err)
}
