package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var userRowColumns = []string{"id", "user_name", "phone_number", "password", "role", "status", "created_at"}

func TestPostgresGetByPhone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("WHERE phone_number = \\$1").WithArgs("9000000002").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(2, "Asha", "9000000002", "$2a$hash", "user", "active", time.Now()))

	u, err := repo.GetByPhone(context.Background(), "9000000002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 2 || u.Password != "$2a$hash" {
		t.Fatalf("unexpected user %+v", u)
	}

	mock.ExpectQuery("WHERE phone_number = \\$1").WithArgs("0").WillReturnRows(sqlmock.NewRows(userRowColumns))
	if _, err := repo.GetByPhone(context.Background(), "0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdateKeepsUnsetFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	name := "Asha R"
	mock.ExpectQuery("UPDATE users").
		WithArgs(name, nil, nil, 2).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(2, name, "9000000002", "", "user", "active", time.Now()))

	u, err := repo.Update(context.Background(), 2, Update{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != name || u.Phone != "9000000002" {
		t.Fatalf("unexpected user %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSetStatusMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE users SET status").WithArgs(StatusInactive, 9).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetStatus(context.Background(), 9, StatusInactive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
