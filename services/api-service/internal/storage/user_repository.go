package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const userSelect = `
	SELECT id, name, email, COALESCE(phone, ''), password_hash, role,
		COALESCE(company_id, ''), created_at
	FROM users`

func (r *UserRepository) CreateTx(ctx context.Context, tx pgx.Tx, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, role, company_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Name, user.Email, nullIfEmpty(user.Phone), user.PasswordHash, user.Role, nullIfEmpty(user.CompanyID))
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.pool.QueryRow(ctx, userSelect+` WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.pool.QueryRow(ctx, userSelect+` WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET name = $2, phone = $3 WHERE id = $1
	`, user.ID, user.Name, nullIfEmpty(user.Phone))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CompanyID, &u.CreatedAt)
	return u, err
}
