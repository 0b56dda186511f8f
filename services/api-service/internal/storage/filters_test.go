package storage

import (
	"strings"
	"testing"
	"time"
)

func TestAppointmentFilterEmpty(t *testing.T) {
	where, args := AppointmentFilter{}.Where()
	if where != "" {
		t.Fatalf("empty filter rendered %q", where)
	}
	if len(args) != 0 {
		t.Fatalf("empty filter produced %d args", len(args))
	}
}

func TestAppointmentFilterPlaceholderOrder(t *testing.T) {
	status := 2
	f := AppointmentFilter{
		ClientID:  "u1",
		CompanyID: "c1",
		Status:    &status,
		Search:    "jane",
	}
	where, args := f.Where()

	if !strings.HasPrefix(where, "WHERE ") {
		t.Fatalf("clause missing WHERE prefix: %q", where)
	}
	for _, want := range []string{
		"a.client_id = $1",
		"a.company_id = $2",
		"a.status = $3",
		"u.name ILIKE $4",
		"a.notes ILIKE $4",
	} {
		if !strings.Contains(where, want) {
			t.Errorf("clause %q missing %q", where, want)
		}
	}
	if len(args) != 4 {
		t.Fatalf("got %d args, want 4", len(args))
	}
	if args[3] != "%jane%" {
		t.Errorf("search arg = %v, want %%jane%%", args[3])
	}
}

func TestAppointmentFilterDateExpandsToDayRange(t *testing.T) {
	day := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	f := AppointmentFilter{Date: &day}
	where, args := f.Where()

	if !strings.Contains(where, "a.start_time >= $1") || !strings.Contains(where, "a.start_time < $2") {
		t.Fatalf("date filter rendered %q", where)
	}
	lo := args[0].(time.Time)
	hi := args[1].(time.Time)
	if lo.Hour() != 0 || lo.Day() != 15 {
		t.Errorf("lower bound not truncated to midnight: %v", lo)
	}
	if hi.Sub(lo) != 24*time.Hour {
		t.Errorf("range is %v, want 24h", hi.Sub(lo))
	}
}

func TestAppointmentFilterActiveOnly(t *testing.T) {
	where, args := AppointmentFilter{ActiveOnly: true}.Where()
	if !strings.Contains(where, "a.status IN (0, 1)") {
		t.Fatalf("active-only rendered %q", where)
	}
	if len(args) != 0 {
		t.Fatalf("active-only produced %d args", len(args))
	}
}

func TestAppointmentUpdateAllowList(t *testing.T) {
	notes := "rescheduled"
	status := 1
	staff := ""
	u := AppointmentUpdate{Notes: &notes, Status: &status, StaffID: &staff}

	sets, args, err := u.setClauses()
	if err != nil {
		t.Fatalf("setClauses: %v", err)
	}
	joined := strings.Join(sets, ", ")
	for _, want := range []string{"staff_id = $1", "notes = $2", "status = $3"} {
		if !strings.Contains(joined, want) {
			t.Errorf("clauses %q missing %q", joined, want)
		}
	}
	// Columns outside the struct can never appear.
	forbidden := map[string]bool{
		"id": true, "client_id": true, "company_id": true,
		"sale_id": true, "created_at": true, "version": true,
	}
	for _, clause := range sets {
		col, _, ok := strings.Cut(clause, " = ")
		if !ok {
			t.Fatalf("clause %q is not of the form column = placeholder", clause)
		}
		if forbidden[col] {
			t.Errorf("clauses %q contain forbidden column %q", joined, col)
		}
	}
	if len(args) != 3 {
		t.Fatalf("got %d args, want 3", len(args))
	}
	if p, ok := args[0].(*string); !ok || p != nil {
		t.Errorf("blank staff id should bind NULL, got %v", args[0])
	}
}

func TestAppointmentUpdateEmpty(t *testing.T) {
	sets, args, err := AppointmentUpdate{}.setClauses()
	if err != nil {
		t.Fatalf("setClauses: %v", err)
	}
	if len(sets) != 0 || len(args) != 0 {
		t.Fatalf("empty update rendered %v / %v", sets, args)
	}
}

func TestNewShortID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewShortID()
		if len(id) != 10 {
			t.Fatalf("id %q has length %d", id, len(id))
		}
		for _, c := range id {
			if !strings.ContainsRune(shortIDAlphabet, c) {
				t.Fatalf("id %q contains %q outside alphabet", id, c)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q in 100 draws", id)
		}
		seen[id] = true
	}
}

func TestInsertsReturnDatabaseTimestamps(t *testing.T) {
	if !strings.Contains(appointmentInsert, "RETURNING created_at, updated_at") {
		t.Fatalf("appointment insert does not return the database clock:\n%s", appointmentInsert)
	}
	if !strings.Contains(saleInsert, "RETURNING created_at") {
		t.Fatalf("sale insert does not return the database clock:\n%s", saleInsert)
	}
}
