package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
)

type ProductRepository struct {
	pool *db.Pool
}

func NewProductRepository(pool *db.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts the product and its initial variants in one transaction. A
// product with zero variants is valid; variants can be added later.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, company_id, name, description)
		VALUES ($1, $2, $3, $4)
	`, product.ID, product.CompanyID, product.Name, product.Description)
	if err != nil {
		return err
	}
	for i := range product.Variants {
		v := &product.Variants[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		v.ProductID = product.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO variants (id, product_id, name, price, stock)
			VALUES ($1, $2, $3, $4, $5)
		`, v.ID, v.ProductID, v.Name, v.Price, v.Stock)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, name, COALESCE(description, ''), created_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.CompanyID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return model.Product{}, err
	}
	p.Variants, err = r.listVariants(ctx, []string{p.ID})
	return p, err
}

// ListByCompany returns products with their variants attached. Variants are
// fetched in one query over the page's product ids rather than per product.
func (r *ProductRepository) ListByCompany(ctx context.Context, companyID, search string, limit, offset int) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, COALESCE(description, ''), created_at
		FROM products
		WHERE company_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3 OFFSET $4
	`, companyID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []model.Product
		ids []string
	)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	variants, err := r.listVariants(ctx, ids)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[string][]model.Variant, len(ids))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range out {
		out[i].Variants = byProduct[out[i].ID]
	}
	return out, nil
}

func (r *ProductRepository) CountByCompany(ctx context.Context, companyID, search string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE company_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
	`, companyID, search).Scan(&n)
	return n, err
}

func (r *ProductRepository) Update(ctx context.Context, product *model.Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET name = $2, description = $3 WHERE id = $1 AND company_id = $4
	`, product.ID, product.Name, product.Description, product.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the product and its variants. Variant rows go first so the
// foreign key never blocks the delete.
func (r *ProductRepository) Delete(ctx context.Context, id, companyID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM variants WHERE product_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *ProductRepository) CreateVariant(ctx context.Context, v *model.Variant) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO variants (id, product_id, name, price, stock)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.ProductID, v.Name, v.Price, v.Stock)
	return err
}

func (r *ProductRepository) GetVariant(ctx context.Context, id string) (model.Variant, error) {
	var v model.Variant
	err := r.pool.QueryRow(ctx, `
		SELECT id, product_id, name, price, stock, created_at
		FROM variants WHERE id = $1
	`, id).Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.Stock, &v.CreatedAt)
	return v, err
}

func (r *ProductRepository) UpdateVariant(ctx context.Context, v *model.Variant) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE variants SET name = $2, price = $3, stock = $4 WHERE id = $1
	`, v.ID, v.Name, v.Price, v.Stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ProductRepository) DeleteVariant(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM variants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ProductRepository) listVariants(ctx context.Context, productIDs []string) ([]model.Variant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, name, price, stock, created_at
		FROM variants
		WHERE product_id = ANY($1)
		ORDER BY name
	`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Variant
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.Stock, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
