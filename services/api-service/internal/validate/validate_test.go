package validate

import "testing"

func TestCheckerCollectsAllViolations(t *testing.T) {
	var c Checker
	c.Require("name", "")
	c.Require("email", "  ")
	c.Email("email", "not-an-email")
	c.Positive("price", 0)
	c.OneOf("role", "superuser", "client", "staff", "owner", "admin")

	if c.OK() {
		t.Fatal("expected violations")
	}
	if got := len(c.Violations()); got != 5 {
		t.Fatalf("expected 5 violations, got %d: %+v", got, c.Violations())
	}
	if c.Violations()[0].Field != "name" {
		t.Fatalf("violations should preserve order, got %+v", c.Violations())
	}
}

func TestCheckerEmail(t *testing.T) {
	var c Checker
	c.Email("email", "sam@example.com")
	if !c.OK() {
		t.Fatalf("valid email flagged: %+v", c.Violations())
	}
	c.Email("email", "missing-at.example.com")
	if c.OK() {
		t.Fatal("invalid email accepted")
	}
}

func TestCheckerCleanPasses(t *testing.T) {
	var c Checker
	c.Require("name", "Nila Salon")
	c.Positive("price", 25.50)
	c.PositiveInt("quantity", 1)
	c.NonNegative("discount", 0)
	c.OneOf("role", "owner", "client", "staff", "owner", "admin")
	if !c.OK() {
		t.Fatalf("unexpected violations: %+v", c.Violations())
	}
	if c.Violations() != nil {
		t.Fatal("expected nil violations slice when clean")
	}
}
