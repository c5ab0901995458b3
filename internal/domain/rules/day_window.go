package rules

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// DayWindow returns the half-open UTC interval [start, end) covering the calendar day.
func DayWindow(day string) (time.Time, time.Time, error) {
	parsed, err := time.ParseInLocation(DayLayout, strings.TrimSpace(day), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse day %q: %w", day, err)
	}
	start := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1), nil
}

func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
