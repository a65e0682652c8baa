package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "nutrito.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s, path
}

func TestStore_SetGetRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, ok, err := s.Get(ctx, "nutrito-storage")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "nutrito-storage", `{"units":[]}`))
	require.NoError(t, s.Set(ctx, "nutrito-storage", `{"units":[1]}`))

	v, ok, err := s.Get(ctx, "nutrito-storage")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"units":[1]}`, v)

	require.NoError(t, s.Set(ctx, "other", "x"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"nutrito-storage", "other"}, keys)

	require.NoError(t, s.Remove(ctx, "nutrito-storage"))
	require.NoError(t, s.Remove(ctx, "nutrito-storage"))
	_, ok, err = s.Get(ctx, "nutrito-storage")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_SurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "nutrito.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestStore_Memory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}
