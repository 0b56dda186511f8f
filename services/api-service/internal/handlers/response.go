package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nabil-hasan/bizbook/services/api-service/internal/validate"
)

// Envelope is the uniform response body. Success responses carry Data and
// optionally Pagination/Stats; failures carry Message and optionally per-field
// Errors.
type Envelope struct {
	Success    bool                 `json:"success"`
	Data       any                  `json:"data,omitempty"`
	Message    string               `json:"message,omitempty"`
	Errors     []validate.Violation `json:"errors,omitempty"`
	Pagination *Pagination          `json:"pagination,omitempty"`
	Stats      any                  `json:"stats,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

func writePage(w http.ResponseWriter, data any, p Pagination) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

func writeValidation(w http.ResponseWriter, violations []validate.Violation) {
	writeJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: "validation failed",
		Errors:  violations,
	})
}

// WriteError is the error shape used by middleware outside this package.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message)
}
