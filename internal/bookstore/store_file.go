package bookstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/google/uuid"
)

// FileStore keeps the whole catalog in memory and mirrors it to a single
// JSON file: a top-level array of books, array order = position order.
// Every mutation rewrites the whole file before returning. When the write
// fails the in-memory mutation stays applied and the caller gets
// ErrPersistence; memory and disk may diverge at that point.
//
// One mutex serializes all operations, which is the only concurrency
// guard the catalog needs.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	books []Book
}

// NewFileStore loads the catalog at path. A missing or empty file is a
// valid empty catalog.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.books = []Book{}
			return nil
		}
		return fmt.Errorf("%w: read %s: %v", ErrPersistence, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.books = []Book{}
		return nil
	}

	var books []Book
	if err := json.Unmarshal(data, &books); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrPersistence, s.path, err)
	}
	s.books = books
	return nil
}

// save rewrites the backing file. Caller holds the write lock.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.books, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}

	tmp := s.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrPersistence, s.path, err)
	}
	return nil
}

func (s *FileStore) Ping(ctx context.Context) error { return nil }

func (s *FileStore) List(ctx context.Context) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *FileStore) GetByIndex(ctx context.Context, index int) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.books) {
		return Book{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, len(s.books))
	}
	return s.books[index], nil
}

func (s *FileStore) GetByID(ctx context.Context, id int64) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.books {
		if b.ID == id {
			return b, nil
		}
	}
	return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (s *FileStore) Random(ctx context.Context) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.books) == 0 {
		return Book{}, ErrNoBooks
	}
	return s.books[rand.IntN(len(s.books))], nil
}

func (s *FileStore) Add(ctx context.Context, name, category string, price float64) (Book, error) {
	b := Book{Name: name, Category: category, Price: price}
	if err := b.validateFields(); err != nil {
		return Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = nextID(s.books)
	s.books = append(s.books, b)
	if err := s.save(); err != nil {
		return Book{}, err
	}
	return b, nil
}

func (s *FileStore) Update(ctx context.Context, id int64, patch BookPatch) (Book, error) {
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
		if err := s.save(); err != nil {
			return Book{}, err
		}
		return merged, nil
	}
	return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (s *FileStore) Delete(ctx context.Context, id int64) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.books {
		if b.ID != id {
			continue
		}

		s.books = append(s.books[:i], s.books[i+1:]...)
		if err := s.save(); err != nil {
			return Book{}, err
		}
		return b, nil
	}
	return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}
