package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Appointments store references and scalars only; every display field comes
// from these joins at read time.
const appointmentSelect = `
	SELECT a.id, a.client_id, a.company_id, a.service_id,
		COALESCE(a.staff_id, ''), COALESCE(a.space_id, ''),
		a.status, a.preferred_staff_ids, COALESCE(a.sale_id, ''),
		a.start_time, a.end_time, COALESCE(a.notes, ''),
		a.created_at, a.updated_at,
		COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(u.phone, ''),
		COALESCE(c.name, ''), COALESCE(s.name, ''),
		COALESCE(su.name, ''), COALESCE(sp.name, '')`

const appointmentFrom = `
	FROM appointments a
	LEFT JOIN users u ON u.id = a.client_id
	LEFT JOIN companies c ON c.id = a.company_id
	LEFT JOIN services s ON s.id = a.service_id
	LEFT JOIN company_staff cs ON cs.id = a.staff_id
	LEFT JOIN users su ON su.id = cs.user_id
	LEFT JOIN spaces sp ON sp.id = a.space_id`

// Timestamps come back from the database clock so the create response matches
// what later reads return.
const appointmentInsert = `
	INSERT INTO appointments
		(id, client_id, company_id, service_id, staff_id, space_id, status, preferred_staff_ids, start_time, end_time, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at, updated_at`

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	preferred, err := json.Marshal(emptyIfNil(appt.PreferredStaffIDs))
	if err != nil {
		return err
	}
	return tx.QueryRow(ctx, appointmentInsert, appt.ID, appt.ClientID, appt.CompanyID, appt.ServiceID,
		nullIfEmpty(appt.StaffID), nullIfEmpty(appt.SpaceID),
		appt.Status, preferred, appt.StartTime, appt.EndTime, appt.Notes).
		Scan(&appt.CreatedAt, &appt.UpdatedAt)
}

// TrackCompanyCustomer records the client in the company's known-customers
// table. It runs inside the same transaction as the appointment write, so the
// tracking row can never be silently lost.
func (r *AppointmentRepository) TrackCompanyCustomer(ctx context.Context, tx pgx.Tx, companyID, userID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO company_customers (company_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (company_id, user_id) DO NOTHING
	`, companyID, userID)
	return err
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, appointmentSelect+appointmentFrom+` WHERE a.id = $1`, id)
	return scanAppointment(row)
}

// GetForUpdate locks the bare appointment row (no joins) for the remainder of
// the transaction.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	var a model.Appointment
	var preferred []byte
	var staffID, spaceID, saleID, notes *string
	err := tx.QueryRow(ctx, `
		SELECT id, client_id, company_id, service_id, staff_id, space_id,
			status, preferred_staff_ids, sale_id, start_time, end_time, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&a.ID, &a.ClientID, &a.CompanyID, &a.ServiceID, &staffID, &spaceID,
		&a.Status, &preferred, &saleID, &a.StartTime, &a.EndTime, &notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	a.StaffID = deref(staffID)
	a.SpaceID = deref(spaceID)
	a.SaleID = deref(saleID)
	a.Notes = deref(notes)
	if len(preferred) > 0 {
		_ = json.Unmarshal(preferred, &a.PreferredStaffIDs)
	}
	return a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]model.Appointment, error) {
	where, args := f.Where()
	query := fmt.Sprintf("%s%s %s ORDER BY a.start_time DESC LIMIT $%d OFFSET $%d",
		appointmentSelect, appointmentFrom, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// Count shares the filter and join surface with List; there is no string
// rewriting between the two queries.
func (r *AppointmentRepository) Count(ctx context.Context, f AppointmentFilter) (int64, error) {
	where, args := f.Where()
	var total int64
	err := r.pool.QueryRow(ctx, "SELECT count(*)"+appointmentFrom+" "+where, args...).Scan(&total)
	return total, err
}

// AppointmentUpdate is the allow-list of mutable appointment columns. A nil
// field is left untouched; anything not represented here cannot be written
// through Update regardless of what the request body carried.
type AppointmentUpdate struct {
	ServiceID         *string
	StaffID           *string
	SpaceID           *string
	StartTime         *time.Time
	EndTime           *time.Time
	Notes             *string
	Status            *int
	PreferredStaffIDs *[]string
}

func (u AppointmentUpdate) setClauses() ([]string, []any, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.ServiceID != nil {
		set("service_id", *u.ServiceID)
	}
	if u.StaffID != nil {
		set("staff_id", nullIfEmpty(*u.StaffID))
	}
	if u.SpaceID != nil {
		set("space_id", nullIfEmpty(*u.SpaceID))
	}
	if u.StartTime != nil {
		set("start_time", *u.StartTime)
	}
	if u.EndTime != nil {
		set("end_time", *u.EndTime)
	}
	if u.Notes != nil {
		set("notes", *u.Notes)
	}
	if u.Status != nil {
		set("status", *u.Status)
	}
	if u.PreferredStaffIDs != nil {
		preferred, err := json.Marshal(emptyIfNil(*u.PreferredStaffIDs))
		if err != nil {
			return nil, nil, err
		}
		set("preferred_staff_ids", preferred)
	}
	return sets, args, nil
}

var ErrNoFields = errors.New("no updatable fields provided")

// Update builds a partial UPDATE from the present fields. There is no version
// column: concurrent updates to the same row are last-write-wins.
func (r *AppointmentRepository) Update(ctx context.Context, id string, u AppointmentUpdate) error {
	sets, args, err := u.setClauses()
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return ErrNoFields
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE appointments SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetSaleID links the appointment to its sale. The link is one-way and
// one-time: it only applies while sale_id is still empty.
func (r *AppointmentRepository) SetSaleID(ctx context.Context, tx pgx.Tx, id, saleID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET sale_id = $2, updated_at = now()
		WHERE id = $1 AND sale_id IS NULL
	`, id, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("appointment already linked to a sale")
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// StatusCounts returns appointment totals grouped by status for one company.
func (r *AppointmentRepository) StatusCounts(ctx context.Context, companyID string) (map[int]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		WHERE company_id = $1
		GROUP BY status
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var status int
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var a model.Appointment
	var preferred []byte
	err := row.Scan(
		&a.ID, &a.ClientID, &a.CompanyID, &a.ServiceID,
		&a.StaffID, &a.SpaceID,
		&a.Status, &preferred, &a.SaleID,
		&a.StartTime, &a.EndTime, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
		&a.ClientName, &a.ClientEmail, &a.ClientPhone,
		&a.CompanyName, &a.ServiceName,
		&a.StaffName, &a.SpaceName,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	if len(preferred) > 0 {
		_ = json.Unmarshal(preferred, &a.PreferredStaffIDs)
	}
	return a, nil
}

func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
