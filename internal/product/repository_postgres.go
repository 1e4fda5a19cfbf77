package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, category_id, category_name, product_name, product_image_url, weight, melting, size, price, status, booking_date::text, created_at`

	listAvailableByCategoryQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE category_name = $1 AND status IS NULL
		ORDER BY created_at DESC, id DESC
	`
	countListedByCategoryQuery = `
		SELECT category_name, COUNT(*)
		FROM products
		WHERE status IS NULL OR status = 'pending'
		GROUP BY category_name
	`
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category_name = $1)
		ORDER BY created_at DESC, id DESC
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	insertProductQuery = `
		INSERT INTO products (category_id, category_name, product_name, product_image_url, weight, melting, size, price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	deleteProductsQuery = `DELETE FROM products WHERE id = ANY($1::int[])`
	productNamesQuery   = `
		SELECT COALESCE(NULLIF(product_name, ''), category_name)
		FROM products
		WHERE id = ANY($1::int[])
		ORDER BY id
	`
	markBookedQuery = `
		UPDATE products
		SET status = 'booked', booking_date = $2::date
		WHERE id = ANY($1::int[]) AND status IS DISTINCT FROM 'booked'
		RETURNING id
	`
	releaseBookedQuery = `
		UPDATE products
		SET status = NULL, booking_date = NULL
		WHERE id = ANY($1::int[]) AND status = 'booked'
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListAvailableByCategory(ctx context.Context, categoryName string) ([]Product, error) {
	return r.query(ctx, listAvailableByCategoryQuery, categoryName)
}

func (r *PostgresRepository) CountListedByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, countListedByCategoryQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context, categoryName string) ([]Product, error) {
	return r.query(ctx, listProductsQuery, categoryName)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	var categoryID sql.NullInt64
	if p.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: int64(*p.CategoryID), Valid: true}
	}
	err := r.db.QueryRowContext(ctx, insertProductQuery,
		categoryID, p.CategoryName, p.Name, p.ImageURL, nullString(&p.Weight),
		nullString(p.Melting), nullString(p.Size), p.Price, nullString(p.Status),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) DeleteMany(ctx context.Context, ids []int) error {
	_, err := r.db.ExecContext(ctx, deleteProductsQuery, pq.Array(ids))
	return err
}

func (r *PostgresRepository) NamesByIDs(ctx context.Context, ids []int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, productNamesQuery, pq.Array(ids))
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

func (r *PostgresRepository) MarkBooked(ctx context.Context, ids []int, bookingDate string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, markBookedQuery, pq.Array(ids), bookingDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make([]int, 0, len(ids))
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		booked = append(booked, id)
	}
	return booked, rows.Err()
}

func (r *PostgresRepository) ReleaseBooked(ctx context.Context, ids []int) error {
	_, err := r.db.ExecContext(ctx, releaseBookedQuery, pq.Array(ids))
	return err
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (Product, error) {
	var (
		p           Product
		categoryID  sql.NullInt64
		weight      sql.NullString
		melting     sql.NullString
		size        sql.NullString
		status      sql.NullString
		bookingDate sql.NullString
	)
	if err := scanner.Scan(
		&p.ID, &categoryID, &p.CategoryName, &p.Name, &p.ImageURL, &weight,
		&melting, &size, &p.Price, &status, &bookingDate, &p.CreatedAt,
	); err != nil {
		return Product{}, err
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		p.CategoryID = &id
	}
	p.Weight = weight.String
	p.Melting = stringPtr(melting)
	p.Size = stringPtr(size)
	p.Status = stringPtr(status)
	p.BookingDate = stringPtr(bookingDate)
	return p, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
