package calendar

import "time"

// WeeksInMonth lays the month out as rows of exactly seven days. The first
// row is padded with real dates from the previous month and the last row with
// dates from the next month, so no cell is ever empty.
func WeeksInMonth(year int, month time.Month, weekStart time.Weekday) [][]DateKey {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7
	days := make([]DateKey, 0, 42)
	for i := lead; i > 0; i-- {
		days = append(days, KeyOf(first.AddDate(0, 0, -i)))
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, KeyOf(d))
	}
	for next := last.AddDate(0, 0, 1); len(days)%7 != 0; next = next.AddDate(0, 0, 1) {
		days = append(days, KeyOf(next))
	}

	weeks := make([][]DateKey, 0, len(days)/7)
	for i := 0; i < len(days); i += 7 {
		weeks = append(weeks, days[i:i+7:i+7])
	}
	return weeks
}

// WeeksForAnchor is WeeksInMonth for the month containing anchor.
func WeeksForAnchor(anchor DateKey, weekStart time.Weekday) [][]DateKey {
	return WeeksInMonth(anchor.Year(), anchor.Month(), weekStart)
}

// WeekIndexOf returns the row holding k, or -1. Padding dates match too, so
// callers that only care about in-month days check the month first.
func WeekIndexOf(weeks [][]DateKey, k DateKey) int {
	for i, week := range weeks {
		for _, d := range week {
			if d == k {
				return i
			}
		}
	}
	return -1
}
