// Package postgres keeps documents as JSONB rows in a single documents table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// Collection reads and writes one logical collection of the documents table.
type Collection[T store.Record[T]] struct {
	db    *sql.DB
	name  string
	newID func() string
}

// NewCollection binds a collection name to the database handle.
func NewCollection[T store.Record[T]](db *sql.DB, name string) *Collection[T] {
	return &Collection[T]{db: db, name: name, newID: store.NewID}
}

// NewCatalog returns Postgres-backed collections for every kind.
func NewCatalog(db *sql.DB) store.Catalog {
	return store.Catalog{
		Genres:      NewCollection[models.Genre](db, store.Genres),
		Artists:     NewCollection[models.Artist](db, store.Artists),
		Songs:       NewCollection[models.Song](db, store.Songs),
		Profiles:    NewCollection[models.UserProfile](db, store.Profiles),
		Credentials: NewCollection[models.Credential](db, store.Credentials),
	}
}

// Create inserts the record under a new identifier.
func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T

	id := c.newID()
	record = record.WithID(id)
	body, err := json.Marshal(record)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", c.name, err)
	}

	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3::jsonb)
	`, c.name, id, string(body)); err != nil {
		if isUniqueViolation(err) {
			return zero, fmt.Errorf("%s %q: %w", c.name, id, store.ErrConflict)
		}
		return zero, fmt.Errorf("insert %s: %w", c.name, err)
	}

	return record, nil
}

// GetByID returns false when the row does not exist.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var (
		zero T
		body []byte
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT body
		FROM documents
		WHERE collection = $1 AND id = $2
	`, c.name, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("select %s: %w", c.name, err)
	}

	var record T
	if err := json.Unmarshal(body, &record); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return record, true, nil
}

// QueryByField matches the top-level JSONB field against the encoded value.
func (c *Collection[T]) QueryByField(ctx context.Context, field string, value any) ([]T, error) {
	if err := store.CheckField(field); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s query value: %w", c.name, err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT body
		FROM documents
		WHERE collection = $1 AND body -> $2 = $3::jsonb
		ORDER BY created_at, id
	`, c.name, field, string(encoded))
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", c.name, field, err)
	}
	defer rows.Close()

	return c.scanAll(rows)
}

// List returns every document in creation order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT body
		FROM documents
		WHERE collection = $1
		ORDER BY created_at, id
	`, c.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	defer rows.Close()

	return c.scanAll(rows)
}

// Update merges fields into the stored body with the JSONB concatenation operator.
func (c *Collection[T]) Update(ctx context.Context, id string, fields store.Fields) error {
	if err := store.CheckFields(fields); err != nil {
		return err
	}
	if fields == nil {
		fields = store.Fields{}
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", c.name, err)
	}

	result, err := c.db.ExecContext(ctx, `
		UPDATE documents
		SET body = body || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, c.name, id, string(patch))
	if err != nil {
		return fmt.Errorf("update %s: %w", c.name, err)
	}

	return requireRow(result, c.name, id)
}

// Delete removes the row.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, c.name, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.name, err)
	}

	return requireRow(result, c.name, id)
}

func (c *Collection[T]) scanAll(rows *sql.Rows) ([]T, error) {
	var result []T
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		var record T
		if err := json.Unmarshal(body, &record); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.name, err)
	}
	return result, nil
}

func requireRow(result sql.Result, collection, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", collection, err)
	}
	if affected == 0 {
		return store.NotFound(collection, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
