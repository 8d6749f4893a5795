package timetable

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return d, nil
}

// ParseMonth parses YYYY-MM and returns the half-open range [first, next).
func ParseMonth(s string) (first, next time.Time, err error) {
	first, err = time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("month %q must be YYYY-MM", s)
	}
	return first, first.AddDate(0, 1, 0), nil
}

// DateOnly truncates t to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekdayOf returns the timetable day label for a date, or "" on Sunday.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Mon
	case time.Tuesday:
		return Tue
	case time.Wednesday:
		return Wed
	case time.Thursday:
		return Thu
	case time.Friday:
		return Fri
	case time.Saturday:
		return Sat
	}
	return ""
}

// DateRange is an optional inclusive window of calendar dates.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ParseDateRange builds a range from optional query values.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if from != "" {
		d, err := ParseDate(from)
		if err != nil {
			return r, err
		}
		r.From = &d
	}
	if to != "" {
		d, err := ParseDate(to)
		if err != nil {
			return r, err
		}
		r.To = &d
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return r, fmt.Errorf("end date %s is before start date %s", to, from)
	}
	return r, nil
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = DateOnly(d)
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}

// Key renders the range for cache keys.
func (r DateRange) Key() string {
	from, to := "-", "-"
	if r.From != nil {
		from = r.From.Format(DateLayout)
	}
	if r.To != nil {
		to = r.To.Format(DateLayout)
	}
	return from + ".." + to
}
