package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nabil-hasan/bizbook/libs/db"
)

type Notification struct {
	AppointmentID string
	CompanyID     string
	Kind          string
	Channel       string
	Recipient     string
	Payload       map[string]any
	Status        string
	FailureReason string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, company_id, kind, channel, recipient, payload, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
	`, n.AppointmentID, n.CompanyID, n.Kind, n.Channel, n.Recipient, payload, n.Status, n.FailureReason)
	return err
}

type NotificationRow struct {
	ID            int64          `json:"id"`
	AppointmentID string         `json:"appointmentId"`
	CompanyID     string         `json:"companyId"`
	Kind          string         `json:"kind"`
	Channel       string         `json:"channel"`
	Recipient     string         `json:"recipient"`
	Status        string         `json:"status"`
	FailureReason string         `json:"failureReason,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	Payload       map[string]any `json:"payload,omitempty"`
}

type Contact struct {
	Name  string
	Email string
	Phone string
}

// GetContact resolves a user's delivery details; events carry ids only.
func (r *Repository) GetContact(ctx context.Context, userID string) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		SELECT name, email, COALESCE(phone, '')
		FROM users
		WHERE id = $1
	`, userID).Scan(&c.Name, &c.Email, &c.Phone)
	return c, err
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]NotificationRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, company_id, kind, channel, recipient, status,
			COALESCE(failure_reason, ''), created_at, payload
		FROM notifications
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotificationRow
	for rows.Next() {
		var n NotificationRow
		var payload []byte
		if err := rows.Scan(&n.ID, &n.AppointmentID, &n.CompanyID, &n.Kind, &n.Channel, &n.Recipient, &n.Status, &n.FailureReason, &n.CreatedAt, &payload); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &n.Payload)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
