package bookstore

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
)

// MemStore has the same contract as FileStore minus the backing file.
// Used by tests and local runs.
type MemStore struct {
	mu    sync.RWMutex
	books []Book
}

func NewMemStore(seed ...Book) *MemStore {
	s := &MemStore{books: make([]Book, len(seed))}
	copy(s.books, seed)
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *MemStore) GetByIndex(ctx context.Context, index int) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.books) {
		return Book{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, len(s.books))
	}
	return s.books[index], nil
}

func (s *MemStore) GetByID(ctx context.Context, id int64) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.books {
		if b.ID == id {
			return b, nil
		}
	}
	return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (s *MemStore) Random(ctx context.Context) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.books) == 0 {
		return Book{}, ErrNoBooks
	}
	return s.books[rand.IntN(len(s.books))], nil
}

func (s *MemStore) Add(ctx context.Context, name, category string, price float64) (Book, error) {
	b := Book{Name: name, Category: category, Price: price}
	if err := b.validateFields(); err != nil {
		return Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = nextID(s.books)
	s.books = append(s.books, b)
	return b, nil
}

func (s *MemStore) Update(ctx context.Context, id int64, patch BookPatch) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.books {
		if b.ID != id {
			continue
		}

		merged := patch.apply(b)
		if err := merged.validateFields(); err != nil {
			return Book{}, err
		}

		s.books[i] = merged
		return merged, nil
	}
	return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (s *MemStore) Delete(ctx context.Context, id int64) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.books {
		if b.ID != id {
			continue
		}

		s.books = append(s.books[:i], s.books[i+1:]...)
		return b, nil
	}
	return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}
