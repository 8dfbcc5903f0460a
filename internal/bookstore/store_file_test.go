package bookstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"BookStore/internal/bookstore"
)

func TestFileStoreStartsEmpty(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		s, err := bookstore.NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)

		books, err := s.List(context.Background())
		require.NoError(t, err)
		require.Empty(t, books)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "books.json")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

		s, err := bookstore.NewFileStore(path)
		require.NoError(t, err)

		books, err := s.List(context.Background())
		require.NoError(t, err)
		require.Empty(t, books)
	})
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := bookstore.NewFileStore(path)
	require.ErrorIs(t, err, bookstore.ErrPersistence)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "books.json")

	s, err := bookstore.NewFileStore(path)
	require.NoError(t, err)

	first, err := s.Add(ctx, "Dune", "fiction", 12.0)
	require.NoError(t, err)
	second, err := s.Add(ctx, "Emma", "romance", 7.0)
	require.NoError(t, err)

	_, err = s.Delete(ctx, first.ID)
	require.NoError(t, err)

	reopened, err := bookstore.NewFileStore(path)
	require.NoError(t, err)

	books, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []bookstore.Book{second}, books)

	// ids keep counting from the persisted max
	third, err := reopened.Add(ctx, "Ubik", "fiction", 6.0)
	require.NoError(t, err)
	require.Equal(t, int64(3), third.ID)
}

func TestFileStoreInvalidAddLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "books.json")

	s, err := bookstore.NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Add(ctx, "Dune", "fiction", 12.0)
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Add(ctx, "", "fiction", 1.0)
	require.ErrorIs(t, err, bookstore.ErrInvalidBook)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestFileStoreFailedWriteKeepsMemoryMutation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "books.json")

	s, err := bookstore.NewFileStore(path)
	require.NoError(t, err)

	first, err := s.Add(ctx, "Dune", "fiction", 12.0)
	require.NoError(t, err)

	// A directory in place of the backing file makes the rename step of
	// every save fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err = s.Add(ctx, "Foundation", "fiction", 10.0)
	require.ErrorIs(t, err, bookstore.ErrPersistence)

	// No rollback: the in-memory catalog keeps the mutation even though
	// the file write failed.
	books, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)

	got, err := s.GetByID(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Foundation", got.Name)

	_, err = s.Delete(ctx, first.ID)
	require.ErrorIs(t, err, bookstore.ErrPersistence)

	_, err = s.GetByID(ctx, first.ID)
	require.ErrorIs(t, err, bookstore.ErrNotFound)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := bookstore.NewFileStore(filepath.Join(dir, "books.json"))
	require.NoError(t, err)

	_, err = s.Add(ctx, "Dune", "fiction", 12.0)
	require.NoError(t, err)
	_, err = s.Delete(ctx, 1)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "books.json", entries[0].Name())
}
