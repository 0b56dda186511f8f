package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
)

// SaleRepository is insert-only: sales are immutable once written and no code
// path updates or deletes them.
type SaleRepository struct {
	pool *db.Pool
}

func NewSaleRepository(pool *db.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

const saleSelect = `
	SELECT sl.id, sl.company_id, sl.customer_id, COALESCE(sl.staff_id, ''),
		COALESCE(sl.appointment_id, ''), sl.services_used, sl.products_used,
		sl.subtotal, sl.discount_total, sl.total, COALESCE(sl.payment_method, ''),
		sl.created_at,
		COALESCE(cu.name, ''), COALESCE(su.name, '')
	FROM sales sl
	LEFT JOIN users cu ON cu.id = sl.customer_id
	LEFT JOIN users su ON su.id = sl.staff_id`

const saleInsert = `
	INSERT INTO sales
		(id, company_id, customer_id, staff_id, appointment_id, services_used, products_used,
		 subtotal, discount_total, total, payment_method)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at`

func (r *SaleRepository) Create(ctx context.Context, tx pgx.Tx, sale *model.Sale) error {
	services, err := json.Marshal(sale.ServicesUsed)
	if err != nil {
		return err
	}
	products, err := json.Marshal(sale.ProductsUsed)
	if err != nil {
		return err
	}
	return tx.QueryRow(ctx, saleInsert, sale.ID, sale.CompanyID, sale.CustomerID, nullIfEmpty(sale.StaffID),
		nullIfEmpty(sale.AppointmentID), services, products,
		sale.Subtotal, sale.DiscountTotal, sale.Total, nullIfEmpty(sale.PaymentMethod)).
		Scan(&sale.CreatedAt)
}

func (r *SaleRepository) GetByID(ctx context.Context, id string) (model.Sale, error) {
	row := r.pool.QueryRow(ctx, saleSelect+` WHERE sl.id = $1`, id)
	return scanSale(row)
}

// SaleFilter mirrors AppointmentFilter for the sales ledger.
type SaleFilter struct {
	CompanyID  string
	CustomerID string
	StaffID    string
	From       *time.Time
	To         *time.Time
}

func (f SaleFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CompanyID != "" {
		add("sl.company_id = $%d", f.CompanyID)
	}
	if f.CustomerID != "" {
		add("sl.customer_id = $%d", f.CustomerID)
	}
	if f.StaffID != "" {
		add("sl.staff_id = $%d", f.StaffID)
	}
	if f.From != nil {
		add("sl.created_at >= $%d", f.From.UTC())
	}
	if f.To != nil {
		add("sl.created_at < $%d", f.To.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	clause := "WHERE " + conds[0]
	for _, c := range conds[1:] {
		clause += " AND " + c
	}
	return clause, args
}

func (r *SaleRepository) List(ctx context.Context, f SaleFilter, limit, offset int) ([]model.Sale, error) {
	where, args := f.where()
	query := fmt.Sprintf("%s %s ORDER BY sl.created_at DESC LIMIT $%d OFFSET $%d",
		saleSelect, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sales, nil
}

func (r *SaleRepository) Count(ctx context.Context, f SaleFilter) (int64, error) {
	where, args := f.where()
	var total int64
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM sales sl "+where, args...).Scan(&total)
	return total, err
}

func scanSale(row rowScanner) (model.Sale, error) {
	var s model.Sale
	var services, products []byte
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.CustomerID, &s.StaffID,
		&s.AppointmentID, &services, &products,
		&s.Subtotal, &s.DiscountTotal, &s.Total, &s.PaymentMethod,
		&s.CreatedAt,
		&s.CustomerName, &s.StaffName,
	)
	if err != nil {
		return model.Sale{}, err
	}
	if len(services) > 0 {
		_ = json.Unmarshal(services, &s.ServicesUsed)
	}
	if len(products) > 0 {
		_ = json.Unmarshal(products, &s.ProductsUsed)
	}
	return s, nil
}
