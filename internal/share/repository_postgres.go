package share

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	insertEntryQuery = `
		INSERT INTO share_users_list (name, phone_number)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	listEntriesQuery = `
		SELECT id, name, phone_number, created_at
		FROM share_users_list
		ORDER BY created_at DESC, id DESC
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes every entry in one transaction.
func (r *PostgresRepository) Insert(ctx context.Context, entries []Entry) ([]Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEntryQuery)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	saved := make([]Entry, len(entries))
	for i, e := range entries {
		if err := stmt.QueryRowContext(ctx, e.Name, e.Phone).Scan(&e.ID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert share entry %q: %w", e.Name, err)
		}
		saved[i] = e
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, listEntriesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
