package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day encoded as YYYYMMDD, the key of every task record.
type Date int

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date(y*10000 + int(m)*100 + d)
}

// ParseDate accepts "20240131" or "2024-01-31".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "-") {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		return DateOf(t), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d := Date(n)
	if err := d.Validate(); err != nil {
		return 0, err
	}
	return d, nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	n := int(d)
	return time.Date(n/10000, time.Month(n/100%100), n%100, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the day n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Validate rejects values that do not name a real calendar day.
func (d Date) Validate() error {
	if d < 10000101 || d > 99991231 {
		return fmt.Errorf("%w: %d", ErrInvalidDate, int(d))
	}
	if DateOf(d.Time()) != d {
		return fmt.Errorf("%w: %d", ErrInvalidDate, int(d))
	}
	return nil
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}
