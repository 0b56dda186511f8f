package storage

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentFilter describes the optional predicates of a listing query. The
// same rendered WHERE clause feeds both the data query and the count query, so
// the two can never drift apart.
type AppointmentFilter struct {
	ClientID  string
	CompanyID string
	StaffID   string
	Status    *int
	Date      *time.Time // exact calendar day (UTC)
	From      *time.Time // inclusive lower bound on start_time
	To        *time.Time // exclusive upper bound on start_time
	Search    string     // free text across client name/email/phone, service name, notes
	// ActiveOnly restricts to statuses that still occupy the calendar
	// (pending, confirmed); used by the upcoming listing.
	ActiveOnly bool
}

// Where renders the filter into a SQL predicate and its args. Placeholders
// start at $1; callers appending LIMIT/OFFSET continue from len(args)+1.
// An empty filter renders an empty clause.
func (f AppointmentFilter) Where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, vals ...any) {
		n := len(args)
		for i := range vals {
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", n+i+1), 1)
		}
		args = append(args, vals...)
		conds = append(conds, cond)
	}

	if f.ClientID != "" {
		add("a.client_id = ?", f.ClientID)
	}
	if f.CompanyID != "" {
		add("a.company_id = ?", f.CompanyID)
	}
	if f.StaffID != "" {
		add("a.staff_id = ?", f.StaffID)
	}
	if f.Status != nil {
		add("a.status = ?", *f.Status)
	}
	if f.Date != nil {
		day := f.Date.UTC().Truncate(24 * time.Hour)
		add("a.start_time >= ?", day)
		add("a.start_time < ?", day.Add(24*time.Hour))
	}
	if f.From != nil {
		add("a.start_time >= ?", f.From.UTC())
	}
	if f.To != nil {
		add("a.start_time < ?", f.To.UTC())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		n := len(args) + 1
		conds = append(conds, fmt.Sprintf(
			"(u.name ILIKE $%d OR u.email ILIKE $%d OR u.phone ILIKE $%d OR s.name ILIKE $%d OR a.notes ILIKE $%d)",
			n, n, n, n, n))
		args = append(args, pattern)
	}
	if f.ActiveOnly {
		conds = append(conds, "a.status IN (0, 1)")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
