package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	insertOrderQuery = `
		INSERT INTO orders (user_id, items, total_item, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	orderColumns = `o.id, o.user_id, o.items, o.total_item, o.created_at, u.id, u.user_name, u.phone_number`

	listOrdersByUserQuery = `
		SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC
	`
	listOrdersQuery = `
		SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC
	`
	getOrderQuery = `
		SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, err
	}
	if err := r.db.QueryRowContext(ctx, insertOrderQuery, o.UserID, string(itemsJSON), o.TotalItem, o.CreatedAt).
		Scan(&o.ID, &o.CreatedAt); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ListByUser leaves Customer empty; the caller already knows who they are.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	orders, err := r.query(ctx, listOrdersByUserQuery, userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Customer = nil
	}
	return orders, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.query(ctx, listOrdersQuery)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, getOrderQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(scanner rowScanner) (Order, error) {
	var (
		o          Order
		userID     sql.NullInt64
		itemsJSON  []byte
		totalItem  sql.NullInt64
		customerID sql.NullInt64
		name       sql.NullString
		phone      sql.NullString
	)
	if err := scanner.Scan(&o.ID, &userID, &itemsJSON, &totalItem, &o.CreatedAt, &customerID, &name, &phone); err != nil {
		return Order{}, err
	}
	o.UserID = int(userID.Int64)
	o.Items = make([]Item, 0)
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return Order{}, err
		}
	}
	o.TotalItem = int(totalItem.Int64)
	if customerID.Valid {
		o.Customer = &Customer{ID: int(customerID.Int64), Name: name.String, Phone: phone.String}
	}
	return o, nil
}
