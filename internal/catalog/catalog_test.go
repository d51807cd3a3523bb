package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sureshkumar/semdesk/internal/catalog"
	"github.com/sureshkumar/semdesk/internal/semerr"
)

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := catalog.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNextIDIsMonotonic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a, err := store.NextID(ctx)
	require.NoError(t, err)
	b, err := store.NextID(ctx)
	require.NoError(t, err)

	require.Greater(t, b, a)
}

func TestAddAndLookupByFileAndIndex(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry := catalog.Entry{Filename: "/home/user/notes.txt", Indexes: []uint64{1, 2, 3}}
	require.NoError(t, store.Add(ctx, entry))

	byFile, err := store.GetByFile(ctx, "/home/user/notes.txt")
	require.NoError(t, err)
	require.Equal(t, entry.Indexes, byFile.Indexes)

	byIndex, err := store.GetByIndex(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, entry.Filename, byIndex.Filename)

	ok, err := store.ContainsFile(ctx, "/home/user/notes.txt")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFilenameNormalizationStripsLeadingSlash(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, catalog.Entry{Filename: "/a/b.txt", Indexes: []uint64{7}}))

	_, err := store.GetByFile(ctx, "a/b.txt")
	require.NoError(t, err)
}

func TestGetByIndexMissingReturnsNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetByIndex(context.Background(), 999)
	require.Error(t, err)
	require.Equal(t, semerr.CodeNotFound, semerr.GetCode(err))
}

func TestDeleteRemovesFileAndIndexKeys(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, catalog.Entry{Filename: "x.txt", Indexes: []uint64{10, 11}}))
	require.NoError(t, store.Delete(ctx, "x.txt"))

	ok, err := store.ContainsFile(ctx, "x.txt")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = store.GetByIndex(ctx, 10)
	require.Error(t, err)
}

func TestAddOverwritesExistingEntry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, catalog.Entry{Filename: "f.txt", Indexes: []uint64{1}}))
	require.NoError(t, store.Add(ctx, catalog.Entry{Filename: "f.txt", Indexes: []uint64{2, 3}}))

	entry, err := store.GetByFile(ctx, "f.txt")
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3}, entry.Indexes)
}
