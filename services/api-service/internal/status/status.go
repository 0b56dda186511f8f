// Package status is the single place appointment statuses are normalized and
// validated. Every call site (validation, creation defaulting, the PATCH route)
// goes through Normalize rather than re-implementing the mapping.
package status

import (
	"strconv"
	"strings"
)

const (
	Pending    = 0
	Confirmed  = 1
	InProgress = 2
	Completed  = 3
	Cancelled  = 4
	NoShow     = 5
)

var labels = map[int]string{
	Pending:    "pending",
	Confirmed:  "confirmed",
	InProgress: "in-progress",
	Completed:  "completed",
	Cancelled:  "cancelled",
	NoShow:     "no-show",
}

var synonyms = map[string]int{
	"pending":     Pending,
	"confirmed":   Confirmed,
	"in-progress": InProgress,
	"in_progress": InProgress,
	"in progress": InProgress,
	"inprogress":  InProgress,
	"completed":   Completed,
	"cancelled":   Cancelled,
	"canceled":    Cancelled,
	"no-show":     NoShow,
	"no_show":     NoShow,
	"no show":     NoShow,
	"noshow":      NoShow,
}

// Normalize maps a status given as a number, a numeral string, or a synonym
// string (case-insensitive) to its canonical code. The second return is false
// when the input matches nothing.
func Normalize(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return normalizeInt(t)
	case int64:
		return normalizeInt(int(t))
	case float64:
		// JSON numbers decode as float64; reject fractional values.
		if t != float64(int(t)) {
			return 0, false
		}
		return normalizeInt(int(t))
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return normalizeInt(n)
		}
		code, ok := synonyms[s]
		return code, ok
	default:
		return 0, false
	}
}

// IsValid reports whether v is one of the six defined codes, in numeric or
// numeral-string form. Synonym strings are not valid here; they must be
// normalized first.
func IsValid(v any) bool {
	switch t := v.(type) {
	case int:
		_, ok := normalizeInt(t)
		return ok
	case int64:
		_, ok := normalizeInt(int(t))
		return ok
	case float64:
		if t != float64(int(t)) {
			return false
		}
		_, ok := normalizeInt(int(t))
		return ok
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return false
		}
		_, ok := normalizeInt(n)
		return ok
	default:
		return false
	}
}

// Label returns the canonical display string for a code, or "" if unknown.
func Label(code int) string {
	return labels[code]
}

// OrDefault normalizes v, falling back to Pending when v is nil or unrecognized.
// Used when creating appointments without an explicit status.
func OrDefault(v any) int {
	if v == nil {
		return Pending
	}
	code, ok := Normalize(v)
	if !ok {
		return Pending
	}
	return code
}

func normalizeInt(n int) (int, bool) {
	if n < Pending || n > NoShow {
		return 0, false
	}
	return n, true
}
