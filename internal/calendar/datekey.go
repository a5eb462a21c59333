package calendar

import (
	"fmt"
	"time"
)

const dateKeyLayout = "2006-01-02"

// DateKey identifies a calendar day in the viewer's local zone as YYYY-MM-DD.
// It is the only join key between record sources.
type DateKey string

// KeyOf formats t's calendar date in t's own location. Callers convert to
// the viewer's zone first.
func KeyOf(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// Today returns the viewer's local calendar date. Every "today" comparison in
// the engine goes through here so no call site can drift to UTC.
func Today(now time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.Local
	}
	return KeyOf(now.In(loc))
}

// ParseDateKey validates raw as a YYYY-MM-DD calendar date. Surrounding
// whitespace is an error, not something to repair.
func ParseDateKey(raw string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, raw)
	if err != nil {
		return "", fmt.Errorf("parse date key %q: %w", raw, err)
	}
	return KeyOf(t), nil
}

// MustParseDateKey is ParseDateKey for keys that are known to be valid.
func MustParseDateKey(raw string) DateKey {
	k, err := ParseDateKey(raw)
	if err != nil {
		panic("calendar: " + err.Error())
	}
	return k
}

// Time returns midnight UTC of the key's calendar date. UTC is used purely
// as a DST-free carrier for civil date arithmetic.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(dateKeyLayout, string(k))
	if err != nil {
		panic(fmt.Sprintf("calendar: invalid date key %q", string(k)))
	}
	return t
}

// In returns local midnight of the key's date in loc.
func (k DateKey) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t := k.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (k DateKey) AddDays(n int) DateKey {
	return KeyOf(k.Time().AddDate(0, 0, n))
}

func (k DateKey) Year() int {
	return k.Time().Year()
}

func (k DateKey) Month() time.Month {
	return k.Time().Month()
}

func (k DateKey) Day() int {
	return k.Time().Day()
}

func (k DateKey) Weekday() time.Weekday {
	return k.Time().Weekday()
}

// MonthStart returns the first day of k's month.
func (k DateKey) MonthStart() DateKey {
	t := k.Time()
	return KeyOf(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// SameMonth reports whether both keys fall in the same month of the same year.
func (k DateKey) SameMonth(other DateKey) bool {
	a, b := k.Time(), other.Time()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Before and After compare lexically, which matches chronological order for
// well-formed keys.
func (k DateKey) Before(other DateKey) bool {
	return k < other
}

func (k DateKey) After(other DateKey) bool {
	return k > other
}

func (k DateKey) String() string {
	return string(k)
}
