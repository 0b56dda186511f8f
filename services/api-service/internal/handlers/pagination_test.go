package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestParsePageQueryDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/appointments", nil)
	page, limit := parsePageQuery(r)
	if page != 1 || limit != defaultPageSize {
		t.Fatalf("got page=%d limit=%d, want 1/%d", page, limit, defaultPageSize)
	}
}

func TestParsePageQueryClamps(t *testing.T) {
	cases := []struct {
		query string
		page  int
		limit int
	}{
		{"page=0&limit=0", 1, 1},
		{"page=-3&limit=-1", 1, 1},
		{"page=2&limit=5000", 2, maxPageSize},
		{"page=abc&limit=xyz", 1, defaultPageSize},
		{"page=3&limit=25", 3, 25},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/appointments?"+tc.query, nil)
		page, limit := parsePageQuery(r)
		if page != tc.page || limit != tc.limit {
			t.Fatalf("%q: got page=%d limit=%d, want %d/%d", tc.query, page, limit, tc.page, tc.limit)
		}
	}
}

func TestNewPaginationTotalPages(t *testing.T) {
	cases := []struct {
		total      int64
		limit      int
		totalPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{12, 5, 3},
		{20, 20, 1},
		{21, 20, 2},
	}
	for _, tc := range cases {
		p := newPagination(1, tc.limit, tc.total)
		if p.TotalPages != tc.totalPages {
			t.Fatalf("total=%d limit=%d: got %d pages, want %d", tc.total, tc.limit, p.TotalPages, tc.totalPages)
		}
	}
}

func TestPageOffset(t *testing.T) {
	if got := pageOffset(1, 20); got != 0 {
		t.Fatalf("page 1 offset = %d, want 0", got)
	}
	if got := pageOffset(4, 25); got != 75 {
		t.Fatalf("page 4 offset = %d, want 75", got)
	}
}
