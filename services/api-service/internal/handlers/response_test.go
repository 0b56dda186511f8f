package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nabil-hasan/bizbook/services/api-service/internal/validate"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q, want application/json", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestWriteDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeData(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["id"] != "abc" {
		t.Fatalf("data = %v, want {id: abc}", body["data"])
	}
	if _, present := body["errors"]; present {
		t.Fatalf("errors should be omitted on success, got %v", body["errors"])
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusNotFound, "appointment not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
	if body["message"] != "appointment not found" {
		t.Fatalf("message = %v", body["message"])
	}
	if _, present := body["data"]; present {
		t.Fatalf("data should be omitted on error, got %v", body["data"])
	}
}

func TestWriteValidationEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeValidation(rec, []validate.Violation{
		{Field: "email", Message: "email must be a valid email address"},
		{Field: "password", Message: "password is required"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) != 2 {
		t.Fatalf("errors = %v, want two entries", body["errors"])
	}
	first, _ := errs[0].(map[string]any)
	if first["field"] != "email" {
		t.Fatalf("first violation field = %v, want email", first["field"])
	}
}

func TestWritePageEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writePage(rec, []string{"a", "b"}, newPagination(2, 5, 12))

	body := decodeBody(t, rec)
	pg, ok := body["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("pagination missing: %v", body)
	}
	if pg["page"] != float64(2) || pg["limit"] != float64(5) {
		t.Fatalf("pagination = %v", pg)
	}
	if pg["total"] != float64(12) || pg["totalPages"] != float64(3) {
		t.Fatalf("pagination totals = %v", pg)
	}
}
