package category

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/wichananm65/jewel-shop-backend/internal/database"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

const (
	listCategoriesQuery = `
		SELECT id, category_name, image_url, created_at
		FROM categories
		ORDER BY created_at DESC, id DESC
	`
	categoryExistsQuery = `SELECT EXISTS (SELECT 1 FROM categories WHERE lower(category_name) = lower($1))`
	findCategoryIDQuery = `
		SELECT id
		FROM categories
		WHERE category_name = $1 OR category_name ILIKE '%' || $1 || '%'
		ORDER BY (category_name = $1) DESC, id
		LIMIT 1
	`
	insertCategoryQuery = `
		INSERT INTO categories (category_name, image_url)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	deleteCategoriesQuery = `DELETE FROM categories WHERE id = ANY($1::int[])`
	categoryNamesQuery    = `SELECT category_name FROM categories WHERE id = ANY($1::int[]) ORDER BY id`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, categoryExistsQuery, name).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) FindIDByName(ctx context.Context, name string) (int, error) {
	var id int
	if err := r.db.QueryRowContext(ctx, findCategoryIDQuery, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	err := r.db.QueryRowContext(ctx, insertCategoryQuery, c.Name, c.ImageURL).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Category{}, ErrNameTaken
		}
		return Category{}, err
	}
	return c, nil
}

func (r *PostgresRepository) DeleteMany(ctx context.Context, ids []int) error {
	_, err := r.db.ExecContext(ctx, deleteCategoriesQuery, pq.Array(ids))
	return err
}

func (r *PostgresRepository) NamesByIDs(ctx context.Context, ids []int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, categoryNamesQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0, len(ids))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
