package product

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var productCols = []string{"id", "category_id", "category_name", "product_name", "product_image_url", "weight", "melting", "size", "price", "status", "booking_date", "created_at"}

func TestListAvailableByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(productCols).
		AddRow(5, 2, "Rings", "Rings", "/uploads/r.png", "12g", nil, nil, "1500.00", nil, nil, now).
		AddRow(4, nil, "Rings", "", "/uploads/q.png", nil, "22k", "7", nil, nil, nil, now.Add(-time.Hour))
	mock.ExpectQuery("WHERE category_name = \\$1 AND status IS NULL").WithArgs("Rings").WillReturnRows(rows)

	products, err := repo.ListAvailableByCategory(context.Background(), "Rings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].CategoryID == nil || *products[0].CategoryID != 2 {
		t.Fatalf("expected category id 2, got %v", products[0].CategoryID)
	}
	if products[0].PriceOrZero().String() != "1500" {
		t.Fatalf("unexpected price %s", products[0].PriceOrZero())
	}
	if products[1].Weight != "" || products[1].Melting == nil || *products[1].Melting != "22k" {
		t.Fatalf("unexpected nullable columns %+v", products[1])
	}
	if products[1].Price.Valid {
		t.Fatalf("expected null price")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM products").WithArgs(9).WillReturnRows(sqlmock.NewRows(productCols))

	if _, err := repo.GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCountListedByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IS NULL OR status = 'pending'")).
		WillReturnRows(sqlmock.NewRows([]string{"category_name", "count"}).AddRow("Rings", 3).AddRow("Chains", 1))

	counts, err := repo.CountListedByCategory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts["Rings"] != 3 || counts["Chains"] != 1 || counts["Bangles"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMarkBookedSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND status IS DISTINCT FROM 'booked'")).
		WithArgs(sqlmock.AnyArg(), "2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	booked, err := repo.MarkBooked(context.Background(), []int{1, 2}, "2024-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(booked) != 1 || booked[0] != 2 {
		t.Fatalf("expected only product 2 to be reported as newly booked, got %v", booked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReleaseBookedOnlyTouchesBooked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("AND status = 'booked'")).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ReleaseBooked(context.Background(), []int{3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))

	cat := 4
	p, err := repo.Create(context.Background(), Product{CategoryID: &cat, CategoryName: "Rings", Name: "Rings", ImageURL: "/u.png", Weight: "4g"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 11 || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected product %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
