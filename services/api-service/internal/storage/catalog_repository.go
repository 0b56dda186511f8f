package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
)

// CatalogRepository covers the per-company booking catalog: categories, the
// services inside them, and the bookable spaces.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, cat *model.Category) error {
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, company_id, name)
		VALUES ($1, $2, $3)
	`, cat.ID, cat.CompanyID, cat.Name)
	return err
}

func (r *CatalogRepository) GetCategory(ctx context.Context, id string) (model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, name, created_at
		FROM categories
		WHERE id = $1
	`, id).Scan(&c.ID, &c.CompanyID, &c.Name, &c.CreatedAt)
	return c, err
}

func (r *CatalogRepository) ListCategories(ctx context.Context, companyID string) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, created_at
		FROM categories
		WHERE company_id = $1
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, cat *model.Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET name = $2 WHERE id = $1 AND company_id = $3
	`, cat.ID, cat.Name, cat.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, id, companyID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const serviceSelect = `
	SELECT id, company_id, COALESCE(category_id, ''), name, duration_mins, price,
		COALESCE(description, ''), created_at
	FROM services`

func (r *CatalogRepository) CreateService(ctx context.Context, svc *model.Service) error {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, company_id, category_id, name, duration_mins, price, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, svc.ID, svc.CompanyID, nullIfEmpty(svc.CategoryID), svc.Name, svc.DurationMins, svc.Price, svc.Description)
	return err
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	var svc model.Service
	err := r.pool.QueryRow(ctx, serviceSelect+` WHERE id = $1`, id).
		Scan(&svc.ID, &svc.CompanyID, &svc.CategoryID, &svc.Name, &svc.DurationMins, &svc.Price, &svc.Description, &svc.CreatedAt)
	return svc, err
}

func (r *CatalogRepository) ListServices(ctx context.Context, companyID string, limit, offset int) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, serviceSelect+`
		WHERE company_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.CompanyID, &svc.CategoryID, &svc.Name, &svc.DurationMins, &svc.Price, &svc.Description, &svc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) CountServices(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM services WHERE company_id = $1`, companyID).Scan(&n)
	return n, err
}

func (r *CatalogRepository) UpdateService(ctx context.Context, svc *model.Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET category_id = $2, name = $3, duration_mins = $4, price = $5, description = $6
		WHERE id = $1 AND company_id = $7
	`, svc.ID, nullIfEmpty(svc.CategoryID), svc.Name, svc.DurationMins, svc.Price, svc.Description, svc.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) DeleteService(ctx context.Context, id, companyID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) CreateSpace(ctx context.Context, space *model.Space) error {
	if space.ID == "" {
		space.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO spaces (id, company_id, name, capacity)
		VALUES ($1, $2, $3, $4)
	`, space.ID, space.CompanyID, space.Name, space.Capacity)
	return err
}

func (r *CatalogRepository) ListSpaces(ctx context.Context, companyID string) ([]model.Space, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, capacity, created_at
		FROM spaces
		WHERE company_id = $1
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Space
	for rows.Next() {
		var sp model.Space
		if err := rows.Scan(&sp.ID, &sp.CompanyID, &sp.Name, &sp.Capacity, &sp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) UpdateSpace(ctx context.Context, space *model.Space) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE spaces SET name = $2, capacity = $3 WHERE id = $1 AND company_id = $4
	`, space.ID, space.Name, space.Capacity, space.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) DeleteSpace(ctx context.Context, id, companyID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM spaces WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
