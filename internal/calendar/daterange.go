package calendar

import (
	"fmt"
	"strings"
	"time"
)

type Granularity int

const (
	Month Granularity = iota
	Week
	TwoWeek
)

func (g Granularity) String() string {
	switch g {
	case Month:
		return "month"
	case Week:
		return "week"
	case TwoWeek:
		return "two-week"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity accepts the String forms plus a few spellings seen in
// config files.
func ParseGranularity(raw string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "month":
		return Month, nil
	case "week":
		return Week, nil
	case "two-week", "twoweek", "two_week", "2w", "fortnight":
		return TwoWeek, nil
	default:
		return Month, fmt.Errorf("unknown granularity %q", raw)
	}
}

// Next cycles month -> week -> two-week -> month.
func (g Granularity) Next() Granularity {
	mustValidGranularity(g)
	return (g + 1) % 3
}

func mustValidGranularity(g Granularity) {
	if g < Month || g > TwoWeek {
		panic(fmt.Sprintf("calendar: invalid granularity %d", int(g)))
	}
}

// RangeFor returns the inclusive [first, last] days visible for g at anchor.
// For Week and TwoWeek the anchor is the week start; callers align it.
func RangeFor(g Granularity, anchor DateKey) (DateKey, DateKey) {
	switch g {
	case Month:
		first := anchor.MonthStart()
		last := KeyOf(first.Time().AddDate(0, 1, -1))
		return first, last
	case Week:
		return anchor, anchor.AddDays(6)
	case TwoWeek:
		return anchor, anchor.AddDays(13)
	default:
		panic(fmt.Sprintf("calendar: invalid granularity %d", int(g)))
	}
}

// DaysBetween enumerates every day from first to last inclusive.
func DaysBetween(first, last DateKey) []DateKey {
	start, end := first.Time(), last.Time()
	if end.Before(start) {
		return []DateKey{}
	}
	out := make([]DateKey, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, KeyOf(d))
	}
	return out
}

// VisibleDays is the linear day sequence behind the carousel.
func VisibleDays(g Granularity, anchor DateKey) []DateKey {
	return DaysBetween(RangeFor(g, anchor))
}

func InRange(k, first, last DateKey) bool {
	return !k.Before(first) && !k.After(last)
}

// WeekStartOf returns the first day of the week containing k.
func WeekStartOf(k DateKey, weekStart time.Weekday) DateKey {
	offset := (int(k.Weekday()) - int(weekStart) + 7) % 7
	return k.AddDays(-offset)
}

// AlignAnchor normalizes k into the anchor g expects: the first of the month
// for Month, the week start for Week and TwoWeek. Month anchors are pinned to
// day 1 so that stepping months never overflows (Jan 31 + 1 month).
func AlignAnchor(g Granularity, k DateKey, weekStart time.Weekday) DateKey {
	switch g {
	case Month:
		return k.MonthStart()
	case Week, TwoWeek:
		return WeekStartOf(k, weekStart)
	default:
		panic(fmt.Sprintf("calendar: invalid granularity %d", int(g)))
	}
}

// ShiftAnchor moves an aligned anchor by one step: a calendar month for
// Month, seven days for Week and TwoWeek.
func ShiftAnchor(g Granularity, anchor DateKey, dir Direction) DateKey {
	switch g {
	case Month:
		return KeyOf(anchor.MonthStart().Time().AddDate(0, int(dir), 0))
	case Week, TwoWeek:
		return anchor.AddDays(7 * int(dir))
	default:
		panic(fmt.Sprintf("calendar: invalid granularity %d", int(g)))
	}
}
