package bookstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

// PostgresStore implements the same observable contract as FileStore over
// a postgres table: position order is the pos serial, ids are assigned
// max+1 at insert time.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the books table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS books (
				pos      BIGSERIAL PRIMARY KEY,
				id       BIGINT NOT NULL UNIQUE,
				name     TEXT NOT NULL,
				category TEXT NOT NULL,
				price    DOUBLE PRECISION NOT NULL
			)
		`)
		if err != nil {
			return persistErr(err)
		}
		return nil
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Book, error) {
	var out []Book

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, category, price
			FROM books
			ORDER BY pos ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Book, 0, 16)
		for rows.Next() {
			var b Book
			if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.Price); err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, persistErr(err)
	}
	return out, nil
}

func (s *PostgresStore) GetByIndex(ctx context.Context, index int) (Book, error) {
	if index < 0 {
		return Book{}, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}

	var b Book
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, category, price
			FROM books
			ORDER BY pos ASC
			OFFSET $1 LIMIT 1
		`, index).Scan(&b.ID, &b.Name, &b.Category, &b.Price)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	if err != nil {
		return Book{}, persistErr(err)
	}
	return b, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (Book, error) {
	var b Book
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, category, price
			FROM books
			WHERE id = $1
		`, id).Scan(&b.ID, &b.Name, &b.Category, &b.Price)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return Book{}, persistErr(err)
	}
	return b, nil
}

func (s *PostgresStore) Random(ctx context.Context) (Book, error) {
	var b Book
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, category, price
			FROM books
			ORDER BY random()
			LIMIT 1
		`).Scan(&b.ID, &b.Name, &b.Category, &b.Price)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNoBooks
	}
	if err != nil {
		return Book{}, persistErr(err)
	}
	return b, nil
}

func (s *PostgresStore) Add(ctx context.Context, name, category string, price float64) (Book, error) {
	b := Book{Name: name, Category: category, Price: price}
	if err := b.validateFields(); err != nil {
		return Book{}, err
	}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO books (id, name, category, price)
			SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3 FROM books
			RETURNING id
		`, b.Name, b.Category, b.Price).Scan(&b.ID)
	})

	if isUniqueViolation(err) {
		return Book{}, fmt.Errorf("%w: concurrent id assignment", ErrPersistence)
	}
	if err != nil {
		return Book{}, persistErr(err)
	}
	return b, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, patch BookPatch) (Book, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	merged := patch.apply(b)
	if err := merged.validateFields(); err != nil {
		return Book{}, err
	}

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE books
			SET name = $2, category = $3, price = $4
			WHERE id = $1
		`, id, merged.Name, merged.Category, merged.Price)
		return err
	})

	if err != nil {
		return Book{}, persistErr(err)
	}
	return merged, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (Book, error) {
	var b Book
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			DELETE FROM books
			WHERE id = $1
			RETURNING id, name, category, price
		`, id).Scan(&b.ID, &b.Name, &b.Category, &b.Price)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return Book{}, persistErr(err)
	}
	return b, nil
}

func persistErr(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
