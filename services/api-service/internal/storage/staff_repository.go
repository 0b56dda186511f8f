package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
)

type StaffRepository struct {
	pool *db.Pool
}

func NewStaffRepository(pool *db.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

const staffSelect = `
	SELECT cs.id, cs.user_id, cs.company_id, cs.status,
		cs.schedule, cs.emergency_contact, cs.created_at, cs.updated_at,
		COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(u.phone, '')`

const staffFrom = `
	FROM company_staff cs
	LEFT JOIN users u ON u.id = cs.user_id`

// Create inserts the staff row and promotes the linked user's role to staff in
// a single transaction, so a half-created staff member can never appear.
func (r *StaffRepository) Create(ctx context.Context, staff *model.CompanyStaff) error {
	schedule, contact, err := marshalStaffJSON(staff)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO company_staff (id, user_id, company_id, status, schedule, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, staff.ID, staff.UserID, staff.CompanyID, staff.Status, schedule, contact)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE users SET role = 'staff' WHERE id = $1 AND role = 'client'
	`, staff.UserID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update rewrites the operational fields and touches updated_at in one
// transaction together with any identity changes on the users row.
func (r *StaffRepository) Update(ctx context.Context, staff *model.CompanyStaff) error {
	schedule, contact, err := marshalStaffJSON(staff)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE company_staff
		SET status = $2, schedule = $3, emergency_contact = $4, updated_at = now()
		WHERE id = $1 AND company_id = $5
	`, staff.ID, staff.Status, schedule, contact, staff.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if staff.Name != "" || staff.Phone != "" {
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET name = COALESCE(NULLIF($2, ''), name),
				phone = COALESCE(NULLIF($3, ''), phone)
			WHERE id = $1
		`, staff.UserID, staff.Name, staff.Phone)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *StaffRepository) GetByID(ctx context.Context, id string) (model.CompanyStaff, error) {
	row := r.pool.QueryRow(ctx, staffSelect+staffFrom+` WHERE cs.id = $1`, id)
	return scanStaff(row)
}

func (r *StaffRepository) GetByUserAndCompany(ctx context.Context, userID, companyID string) (model.CompanyStaff, error) {
	row := r.pool.QueryRow(ctx, staffSelect+staffFrom+` WHERE cs.user_id = $1 AND cs.company_id = $2`, userID, companyID)
	return scanStaff(row)
}

func (r *StaffRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]model.CompanyStaff, error) {
	rows, err := r.pool.Query(ctx, staffSelect+staffFrom+`
		WHERE cs.company_id = $1
		ORDER BY cs.created_at DESC
		LIMIT $2 OFFSET $3
	`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CompanyStaff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, staff)
	}
	return out, rows.Err()
}

func (r *StaffRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM company_staff WHERE company_id = $1`, companyID).Scan(&n)
	return n, err
}

func (r *StaffRepository) Delete(ctx context.Context, id, companyID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM company_staff WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func marshalStaffJSON(staff *model.CompanyStaff) ([]byte, []byte, error) {
	if staff.Schedule == nil {
		staff.Schedule = map[string]any{}
	}
	if staff.EmergencyContact == nil {
		staff.EmergencyContact = map[string]any{}
	}
	schedule, err := json.Marshal(staff.Schedule)
	if err != nil {
		return nil, nil, err
	}
	contact, err := json.Marshal(staff.EmergencyContact)
	if err != nil {
		return nil, nil, err
	}
	return schedule, contact, nil
}

func scanStaff(row rowScanner) (model.CompanyStaff, error) {
	var (
		staff    model.CompanyStaff
		schedule []byte
		contact  []byte
	)
	err := row.Scan(&staff.ID, &staff.UserID, &staff.CompanyID, &staff.Status,
		&schedule, &contact, &staff.CreatedAt, &staff.UpdatedAt,
		&staff.Name, &staff.Email, &staff.Phone)
	if err != nil {
		return model.CompanyStaff{}, err
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &staff.Schedule); err != nil {
			return model.CompanyStaff{}, err
		}
	}
	if len(contact) > 0 {
		if err := json.Unmarshal(contact, &staff.EmergencyContact); err != nil {
			return model.CompanyStaff{}, err
		}
	}
	return staff, nil
}
