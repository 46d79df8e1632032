package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuarterWindow is the inclusive date range of a reporting quarter.
type QuarterWindow struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseQuarter resolves a "<year>-Q<n>" label into its calendar window.
// Start is the first day of the quarter's first month and End the last day
// of its third month, both at midnight UTC.
func ParseQuarter(label string) (QuarterWindow, error) {
	raw := strings.ToUpper(strings.TrimSpace(label))
	yearPart, qPart, ok := strings.Cut(raw, "-Q")
	if !ok || len(yearPart) != 4 || len(qPart) != 1 || !allDigits(yearPart) || !allDigits(qPart) {
		return QuarterWindow{}, InvalidQuarter(label)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil || year < 1 {
		return QuarterWindow{}, InvalidQuarter(label)
	}
	n, err := strconv.Atoi(qPart)
	if err != nil || n < 1 || n > 4 {
		return QuarterWindow{}, InvalidQuarter(label)
	}

	firstMonth := time.Month((n-1)*3 + 1)
	start := time.Date(year, firstMonth, 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the month after the window is the window's last day
	end := time.Date(year, firstMonth+3, 0, 0, 0, 0, 0, time.UTC)

	return QuarterWindow{Label: fmt.Sprintf("%04d-Q%d", year, n), Start: start, End: end}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// QuarterFor returns the quarter label a date falls in.
func QuarterFor(t time.Time) string {
	return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// Contains reports whether t falls on a calendar day inside the window.
func (w QuarterWindow) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(w.Start) && !d.After(w.End)
}

// StartDate and EndDate format the window bounds as YYYY-MM-DD for SQL filters.
func (w QuarterWindow) StartDate() string { return w.Start.Format("2006-01-02") }

func (w QuarterWindow) EndDate() string { return w.End.Format("2006-01-02") }
