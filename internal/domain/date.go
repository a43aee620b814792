package domain

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

const dateLayout = "2006-01-02"

// Date is a calendar day stored as days since 1970-01-01. It carries no
// time-of-day or zone, and matches the Parquet DATE logical type.
type Date int32

// NewDate returns the Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t as read in t's own location. The
// time-of-day is discarded.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date(midnight.Unix() / 86400)
}

// ParseDate parses free-form date text such as "2016-02-01T00:00:00",
// "2016-02-01" or "01/02/2016 13:00" and keeps only the calendar day.
// Ambiguous numeric forms resolve month-first.
func ParseDate(s string) (Date, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: observation date %q: %w", ErrParse, s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalText encodes the day as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD day.
func (d *Date) UnmarshalText(b []byte) error {
	t, err := time.Parse(dateLayout, string(b))
	if err != nil {
		return fmt.Errorf("%w: date %q: %w", ErrParse, b, err)
	}
	*d = DateOf(t)
	return nil
}
