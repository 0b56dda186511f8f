package status

import "testing"

func TestNormalizeSynonyms(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{"pending", Pending},
		{"PENDING", Pending},
		{"0", Pending},
		{0, Pending},
		{float64(0), Pending},
		{"confirmed", Confirmed},
		{"1", Confirmed},
		{"in-progress", InProgress},
		{"in_progress", InProgress},
		{"inprogress", InProgress},
		{"In Progress", InProgress},
		{"2", InProgress},
		{float64(2), InProgress},
		{"completed", Completed},
		{"3", Completed},
		{"cancelled", Cancelled},
		{"canceled", Cancelled},
		{"4", Cancelled},
		{"no-show", NoShow},
		{"no_show", NoShow},
		{"NoShow", NoShow},
		{"no show", NoShow},
		{"5", NoShow},
	}
	for _, c := range cases {
		got, ok := Normalize(c.in)
		if !ok {
			t.Fatalf("Normalize(%v) unexpectedly failed", c.in)
		}
		if got != c.want {
			t.Fatalf("Normalize(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, in := range []any{"", "done", "6", "-1", 6, -1, float64(2.5), nil, true, []string{"pending"}} {
		if _, ok := Normalize(in); ok {
			t.Fatalf("Normalize(%v) should have failed", in)
		}
	}
}

func TestIsValid(t *testing.T) {
	for code := 0; code <= 5; code++ {
		if !IsValid(code) {
			t.Fatalf("IsValid(%d) = false", code)
		}
		if !IsValid(float64(code)) {
			t.Fatalf("IsValid(float64(%d)) = false", code)
		}
	}
	for _, in := range []any{-1, 6, "6", "-1", "pending", "", nil, 2.5} {
		if IsValid(in) {
			t.Fatalf("IsValid(%v) = true", in)
		}
	}
	// Numeral-string forms are valid.
	for _, in := range []string{"0", "1", "2", "3", "4", "5"} {
		if !IsValid(in) {
			t.Fatalf("IsValid(%q) = false", in)
		}
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault(nil); got != Pending {
		t.Fatalf("OrDefault(nil) = %d", got)
	}
	if got := OrDefault("garbage"); got != Pending {
		t.Fatalf("OrDefault(garbage) = %d", got)
	}
	if got := OrDefault("confirmed"); got != Confirmed {
		t.Fatalf("OrDefault(confirmed) = %d", got)
	}
}

func TestLabel(t *testing.T) {
	if Label(InProgress) != "in-progress" {
		t.Fatalf("unexpected label %q", Label(InProgress))
	}
	if Label(42) != "" {
		t.Fatal("unknown code should have empty label")
	}
}
