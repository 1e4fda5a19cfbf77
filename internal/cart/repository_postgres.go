package cart

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/jewel-shop-backend/internal/database"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	listCartQuery = `
		SELECT ci.id, ci.user_id, ci.product_id, ci.category_name, ci.quantity, ci.created_at,
		       p.id, p.category_id, p.category_name, p.product_name, p.product_image_url,
		       p.weight, p.melting, p.size, p.price, p.status, p.booking_date::text, p.created_at
		FROM cart_item ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC, ci.id DESC
	`
	cartItemExistsQuery = `SELECT EXISTS (SELECT 1 FROM cart_item WHERE user_id = $1 AND product_id = $2)`
	insertCartItemQuery = `
		INSERT INTO cart_item (user_id, product_id, category_name, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	deleteCartItemQuery  = `DELETE FROM cart_item WHERE user_id = $1 AND product_id = $2`
	deleteCartItemsQuery = `DELETE FROM cart_item WHERE user_id = $1`
	countCartItemsQuery  = `SELECT COUNT(*) FROM cart_item WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, listCartQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanJoinedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) Exists(ctx context.Context, userID, productID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, cartItemExistsQuery, userID, productID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) Insert(ctx context.Context, it Item) (Item, error) {
	err := r.db.QueryRowContext(ctx, insertCartItemQuery, it.UserID, it.ProductID, it.CategoryName, it.Quantity).
		Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Item{}, ErrAlreadyInCart
		}
		return Item{}, err
	}
	return it, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, productID int) error {
	_, err := r.db.ExecContext(ctx, deleteCartItemQuery, userID, productID)
	return err
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, deleteCartItemsQuery, userID)
	return err
}

func (r *PostgresRepository) Count(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countCartItemsQuery, userID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanJoinedItem reads a cart row and its left-joined product, leaving
// Product nil when the join found nothing.
func scanJoinedItem(scanner rowScanner) (Item, error) {
	var (
		it           Item
		categoryName sql.NullString
		quantity     sql.NullString
		pID          sql.NullInt64
		pCategoryID  sql.NullInt64
		pCategory    sql.NullString
		pName        sql.NullString
		pImage       sql.NullString
		pWeight      sql.NullString
		pMelting     sql.NullString
		pSize        sql.NullString
		pPrice       decimal.NullDecimal
		pStatus      sql.NullString
		pBooking     sql.NullString
		pCreatedAt   sql.NullTime
	)
	if err := scanner.Scan(
		&it.ID, &it.UserID, &it.ProductID, &categoryName, &quantity, &it.CreatedAt,
		&pID, &pCategoryID, &pCategory, &pName, &pImage,
		&pWeight, &pMelting, &pSize, &pPrice, &pStatus, &pBooking, &pCreatedAt,
	); err != nil {
		return Item{}, err
	}
	it.CategoryName = categoryName.String
	it.Quantity = quantity.String
	if it.Quantity == "" {
		it.Quantity = DefaultQuantity
	}
	if !pID.Valid {
		return it, nil
	}

	p := product.Product{
		ID:           int(pID.Int64),
		CategoryName: pCategory.String,
		Name:         pName.String,
		ImageURL:     pImage.String,
		Weight:       pWeight.String,
		Melting:      optional(pMelting),
		Size:         optional(pSize),
		Price:        pPrice,
		Status:       optional(pStatus),
		BookingDate:  optional(pBooking),
		CreatedAt:    pCreatedAt.Time,
	}
	if pCategoryID.Valid {
		id := int(pCategoryID.Int64)
		p.CategoryID = &id
	}
	it.Product = &p
	return it, nil
}

func optional(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
