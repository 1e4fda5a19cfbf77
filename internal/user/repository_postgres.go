package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `id, user_name, phone_number, password, role, status, created_at`

	listUsersQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_name IS NOT NULL AND user_name <> ''
			AND ($1 = '' OR role = $1)
		ORDER BY created_at DESC, id DESC
	`
	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	getUserByPhoneQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE phone_number = $1
		ORDER BY id
		LIMIT 1
	`
	insertUserQuery = `
		INSERT INTO users (user_name, phone_number, password, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	updateUserQuery = `
		UPDATE users
		SET user_name = COALESCE($1, user_name),
			role = COALESCE($2, role),
			phone_number = COALESCE($3, phone_number)
		WHERE id = $4
		RETURNING ` + userColumns
	setUserStatusQuery = `UPDATE users SET status = $1 WHERE id = $2`
	deleteUsersQuery   = `DELETE FROM users WHERE id = ANY($1::int[])`
	userNamesQuery     = `SELECT user_name FROM users WHERE id = ANY($1::int[]) ORDER BY id`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, role string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (User, error) {
	return r.getOne(ctx, getUserByPhoneQuery, phone)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	err := r.db.QueryRowContext(ctx, insertUserQuery, u.Name, u.Phone, u.Password, u.Role, u.Status).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, in Update) (User, error) {
	row := r.db.QueryRowContext(ctx, updateUserQuery, nullString(in.Name), nullString(in.Role), nullString(in.Phone), id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id int, status string) error {
	result, err := r.db.ExecContext(ctx, setUserStatusQuery, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteMany(ctx context.Context, ids []int) error {
	_, err := r.db.ExecContext(ctx, deleteUsersQuery, pq.Array(ids))
	return err
}

func (r *PostgresRepository) NamesByIDs(ctx context.Context, ids []int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, userNamesQuery, pq.Array(ids))
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

func scanUser(scanner rowScanner) (User, error) {
	var u User
	if err := scanner.Scan(&u.ID, &u.Name, &u.Phone, &u.Password, &u.Role, &u.Status, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
