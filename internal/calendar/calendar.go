// Package calendar holds the civil-day type used to key absences and the
// clock that decides what "today" is.
package calendar

import (
	"errors"
	"strings"
	"time"
)

// Layout is the only accepted textual form of a Day.
const Layout = "2006-01-02"

// ErrMalformedDate is returned when a date string is not YYYY-MM-DD.
var ErrMalformedDate = errors.New("malformed date, expected YYYY-MM-DD")

// Day is a calendar date without a time component.
type Day string

// ParseDay validates s and returns it as a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrMalformedDate
	}
	return Day(t.Format(Layout)), nil
}

// DayOf returns the day t falls on in loc. A nil loc means UTC.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(Layout))
}

func (d Day) String() string { return string(d) }

// Clock abstracts wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
