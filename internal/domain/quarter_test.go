package domain

import (
	"errors"
	"testing"
	"testing/quick"
	"time"
)

func TestParseQuarter_Windows(t *testing.T) {
	cases := []struct {
		label string
		start string
		end   string
	}{
		{"2024-Q1", "2024-01-01", "2024-03-31"},
		{"2024-Q2", "2024-04-01", "2024-06-30"},
		{"2024-Q3", "2024-07-01", "2024-09-30"},
		{"2024-Q4", "2024-10-01", "2024-12-31"},
		{"2025-q1", "2025-01-01", "2025-03-31"},
		{" 2023-Q2 ", "2023-04-01", "2023-06-30"},
	}
	for _, tc := range cases {
		w, err := ParseQuarter(tc.label)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.label, err)
		}
		if got := w.StartDate(); got != tc.start {
			t.Fatalf("%s: start got %s want %s", tc.label, got, tc.start)
		}
		if got := w.EndDate(); got != tc.end {
			t.Fatalf("%s: end got %s want %s", tc.label, got, tc.end)
		}
	}
}

func TestParseQuarter_Invalid(t *testing.T) {
	for _, label := range []string{"", "2024", "2024-Q0", "2024-Q5", "24-Q1", "2024-Q12", "abcd-Q1", "2024Q1", "2024-H1", "+024-Q1", "-024-Q1", "2024-Q+"} {
		_, err := ParseQuarter(label)
		if err == nil {
			t.Fatalf("%q: expected error", label)
		}
		if !errors.Is(err, ErrInvalidQuarterLabel) {
			t.Fatalf("%q: expected ErrInvalidQuarterLabel, got %v", label, err)
		}
		if !IsValidation(err) {
			t.Fatalf("%q: expected validation error", label)
		}
	}
}

func TestParseQuarter_EndIsLastDayOfFinalMonth(t *testing.T) {
	prop := func(y uint16, q uint8) bool {
		year := 1900 + int(y%300)
		n := int(q%4) + 1
		w, err := ParseQuarter(QuarterFor(time.Date(year, time.Month((n-1)*3+1), 1, 0, 0, 0, 0, time.UTC)))
		if err != nil {
			return false
		}
		next := w.End.AddDate(0, 0, 1)
		return next.Day() == 1 && int(w.End.Month()) == n*3 && w.Start.Day() == 1 && w.End.Year() == year
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Fatalf("window end property failed: %v", err)
	}
}

func TestQuarterFor_AndContains(t *testing.T) {
	d := time.Date(2024, time.February, 29, 15, 30, 0, 0, time.UTC)
	if got := QuarterFor(d); got != "2024-Q1" {
		t.Fatalf("QuarterFor got %s", got)
	}
	w, _ := ParseQuarter("2024-Q1")
	if !w.Contains(d) {
		t.Fatalf("window should contain leap day")
	}
	if w.Contains(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window should not contain April 1")
	}
	if w.End.Day() != 31 {
		t.Fatalf("Q1 ends on the 31st, got %d", w.End.Day())
	}
}
