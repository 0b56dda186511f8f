package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
)

type CompanyRepository struct {
	pool *db.Pool
}

func NewCompanyRepository(pool *db.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

const companySelect = `
	SELECT id, owner_id, name, COALESCE(address, ''), COALESCE(phone, ''),
		COALESCE(timezone, ''), created_at
	FROM companies`

// CreateTx inserts a company and stamps the owner's users row with the new
// company id. Owner registration calls this inside the signup transaction.
func (r *CompanyRepository) CreateTx(ctx context.Context, tx pgx.Tx, company *model.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO companies (id, owner_id, name, address, phone, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, company.ID, company.OwnerID, company.Name, company.Address, company.Phone, company.Timezone)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE users SET company_id = $2 WHERE id = $1`, company.OwnerID, company.ID)
	return err
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (model.Company, error) {
	var c model.Company
	err := r.pool.QueryRow(ctx, companySelect+` WHERE id = $1`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.Phone, &c.Timezone, &c.CreatedAt)
	return c, err
}

func (r *CompanyRepository) List(ctx context.Context, search string, limit, offset int) ([]model.Company, error) {
	rows, err := r.pool.Query(ctx, companySelect+`
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.Phone, &c.Timezone, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CompanyRepository) Count(ctx context.Context, search string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM companies
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
	`, search).Scan(&n)
	return n, err
}

func (r *CompanyRepository) Update(ctx context.Context, company *model.Company) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE companies
		SET name = $2, address = $3, phone = $4, timezone = $5
		WHERE id = $1
	`, company.ID, company.Name, company.Address, company.Phone, company.Timezone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListCustomers returns the users that have booked with the company, built from
// the tracking table filled in at appointment creation.
func (r *CompanyRepository) ListCustomers(ctx context.Context, companyID string, limit, offset int) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name, u.email, COALESCE(u.phone, ''), u.role, cc.created_at
		FROM company_customers cc
		JOIN users u ON u.id = cc.user_id
		WHERE cc.company_id = $1
		ORDER BY cc.created_at DESC
		LIMIT $2 OFFSET $3
	`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *CompanyRepository) CountCustomers(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM company_customers WHERE company_id = $1`, companyID).Scan(&n)
	return n, err
}
