// Package validate collects request-body violations. Checks never short-circuit:
// a 400 response carries every violation found, not just the first.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Checker accumulates violations across a request body.
type Checker struct {
	violations []Violation
}

func New() *Checker {
	return &Checker{}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (c *Checker) Add(field, message string) {
	c.violations = append(c.violations, Violation{Field: field, Message: message})
}

func (c *Checker) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.Add(field, field+" is required")
	}
}

func (c *Checker) Email(field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if !emailPattern.MatchString(value) {
		c.Add(field, field+" must be a valid email address")
	}
}

func (c *Checker) MaxLen(field, value string, max int) {
	if len(value) > max {
		c.Add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}

func (c *Checker) MinLen(field, value string, min int) {
	if len(value) < min {
		c.Add(field, fmt.Sprintf("%s must be at least %d characters", field, min))
	}
}

func (c *Checker) Positive(field string, value float64) {
	if value <= 0 {
		c.Add(field, field+" must be greater than zero")
	}
}

func (c *Checker) NonNegative(field string, value float64) {
	if value < 0 {
		c.Add(field, field+" must not be negative")
	}
}

func (c *Checker) PositiveInt(field string, value int) {
	if value <= 0 {
		c.Add(field, field+" must be greater than zero")
	}
}

func (c *Checker) OneOf(field, value string, allowed ...string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.Add(field, field+" must be one of: "+strings.Join(allowed, ", "))
}

func (c *Checker) Check(ok bool, field, message string) {
	if !ok {
		c.Add(field, message)
	}
}

func (c *Checker) OK() bool {
	return len(c.violations) == 0
}

func (c *Checker) Violations() []Violation {
	return c.violations
}
