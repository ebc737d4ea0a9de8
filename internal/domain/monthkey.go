package domain

import (
	"fmt"
	"slices"
	"time"
)

// MonthKeyLayout is the canonical "YYYY-MM" bucket key layout.
const MonthKeyLayout = "2006-01"

// MonthKey identifies a calendar month bucket, always derived in UTC.
type MonthKey string

// MonthKeyOf derives the bucket key of t in UTC.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.UTC().Format(MonthKeyLayout))
}

// ParseMonthKey parses a "YYYY-MM" key.
func ParseMonthKey(s string) (MonthKey, error) {
	if _, err := time.Parse(MonthKeyLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKey(s), nil
}

// Time returns the first instant of the month in UTC. Invalid keys yield the zero time.
func (k MonthKey) Time() time.Time {
	t, err := time.ParseInLocation(MonthKeyLayout, string(k), time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Year returns the calendar year of the key.
func (k MonthKey) Year() int {
	return k.Time().Year()
}

// Month returns the calendar month of the key.
func (k MonthKey) Month() time.Month {
	return k.Time().Month()
}

func (k MonthKey) String() string {
	return string(k)
}

// SortMonthKeysDesc orders keys by calendar date, most recent first.
// The sort is stable and compares parsed dates, not strings.
func SortMonthKeysDesc(keys []MonthKey) {
	slices.SortStableFunc(keys, func(a, b MonthKey) int {
		return b.Time().Compare(a.Time())
	})
}
