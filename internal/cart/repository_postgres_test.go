package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var joinedColumns = []string{
	"id", "user_id", "product_id", "category_name", "quantity", "created_at",
	"p_id", "p_category_id", "p_category_name", "p_product_name", "p_image",
	"p_weight", "p_melting", "p_size", "p_price", "p_status", "p_booking_date", "p_created_at",
}

func TestPostgresListJoinsProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM cart_item ci").WithArgs(42).
		WillReturnRows(sqlmock.NewRows(joinedColumns).
			AddRow(1, 42, 7, "Rings", "1", now, 7, 3, "Rings", "Ruby Ring", "/r.png", "5g", nil, nil, "50.00", nil, nil, now).
			AddRow(2, 42, 8, "Chains", nil, now, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil))

	items, err := repo.List(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Product == nil || items[0].Product.Name != "Ruby Ring" || items[0].Product.WeightGrams() != 5 {
		t.Fatalf("unexpected joined product %+v", items[0].Product)
	}
	if *items[0].Product.CategoryID != 3 {
		t.Fatalf("expected category id 3")
	}
	if items[1].Product != nil {
		t.Fatalf("missing product must be nil, got %+v", items[1].Product)
	}
	if items[1].Quantity != DefaultQuantity {
		t.Fatalf("null quantity should default, got %q", items[1].Quantity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresInsertMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO cart_item").WithArgs(42, 7, "Rings", "1").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Insert(context.Background(), Item{UserID: 42, ProductID: 7, CategoryName: "Rings", Quantity: "1"})
	if !errors.Is(err, ErrAlreadyInCart) {
		t.Fatalf("expected ErrAlreadyInCart, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDeleteAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM cart_item WHERE user_id = \\$1 AND product_id = \\$2").WithArgs(42, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	if err := repo.Delete(context.Background(), 42, 9); err != nil {
		t.Fatalf("delete of a missing row must not fail: %v", err)
	}
	n, err := repo.Count(context.Background(), 42)
	if err != nil || n != 3 {
		t.Fatalf("expected 3, got %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
