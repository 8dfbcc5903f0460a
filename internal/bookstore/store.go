package bookstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrOutOfRange  = errors.New("book index out of range")
	ErrInvalidBook = errors.New("invalid book")
	ErrNoBooks     = errors.New("no books in store")
	ErrPersistence = errors.New("persistence failure")
)

// Store is the catalog contract. Books are addressable two ways: by the
// 0-based position in insertion order, and by their generated integer id.
// Deleting a book shifts the positions of everything behind it; ids never
// move.
type Store interface {
	// List returns all books in insertion order.
	List(ctx context.Context) ([]Book, error)

	// GetByIndex returns the book at position index.
	// Returns ErrOutOfRange outside [0, size).
	GetByIndex(ctx context.Context, index int) (Book, error)

	// GetByID returns the book with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (Book, error)

	// Random returns a uniformly chosen book, or ErrNoBooks when empty.
	Random(ctx context.Context) (Book, error)

	// Add validates, assigns the next id, appends and persists.
	// Returns ErrInvalidBook on validation failure.
	Add(ctx context.Context, name, category string, price float64) (Book, error)

	// Update merges the supplied fields into the book with the given id,
	// re-validates and persists. Position and id are unchanged.
	Update(ctx context.Context, id int64, patch BookPatch) (Book, error)

	// Delete removes the book with the given id, persists, and returns
	// the removed book.
	Delete(ctx context.Context, id int64) (Book, error)

	Ping(ctx context.Context) error
}

// New builds a Store for the configured backend.
//
// Supported backends:
//
//	"file"     - whole catalog in one JSON file (default)
//	"memory"   - ephemeral, for tests and local runs
//	"postgres" - postgres via the pgx stdlib driver
func New(backend, path, dsn string) (Store, error) {
	switch backend {
	case "file", "":
		return NewFileStore(path)
	case "memory":
		return NewMemStore(), nil
	case "postgres":
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: file, memory, postgres)", backend)
	}
}

// nextID is max(live ids)+1, or 1 for an empty catalog. Ids are not
// re-packed after deletions, so gaps are normal.
func nextID(books []Book) int64 {
	var max int64
	for _, b := range books {
		if b.ID > max {
			max = b.ID
		}
	}
	return max + 1
}
