package calendar

import (
	"testing"
	"time"
)

func TestWeeksInMonthMarch2024(t *testing.T) {
	weeks := WeeksInMonth(2024, time.March, time.Sunday)
	if len(weeks) != 6 {
		t.Fatalf("len(weeks) = %d, want 6", len(weeks))
	}
	if weeks[0][0] != "2024-02-25" || weeks[0][6] != "2024-03-02" {
		t.Fatalf("week 0 = %v, want Feb 25..Mar 2", weeks[0])
	}
	if weeks[5][0] != "2024-03-31" || weeks[5][1] != "2024-04-01" || weeks[5][6] != "2024-04-06" {
		t.Fatalf("week 5 = %v, want Mar 31..Apr 6", weeks[5])
	}
}

func TestWeeksInMonthTotality(t *testing.T) {
	for _, start := range []time.Weekday{time.Sunday, time.Monday} {
		for year := 2023; year <= 2025; year++ {
			for month := time.January; month <= time.December; month++ {
				weeks := WeeksInMonth(year, month, start)

				var inMonth []DateKey
				for _, week := range weeks {
					if len(week) != 7 {
						t.Fatalf("%d-%02d: week length %d, want 7", year, month, len(week))
					}
					if week[0].Weekday() != start {
						t.Fatalf("%d-%02d: week starts on %v, want %v", year, month, week[0].Weekday(), start)
					}
					for _, d := range week {
						if d.Year() == year && d.Month() == month {
							inMonth = append(inMonth, d)
						}
					}
				}

				first := KeyOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
				want := VisibleDays(Month, first)
				if len(inMonth) != len(want) {
					t.Fatalf("%d-%02d: %d in-month days, want %d", year, month, len(inMonth), len(want))
				}
				for i := range want {
					if inMonth[i] != want[i] {
						t.Fatalf("%d-%02d: day %d = %s, want %s", year, month, i, inMonth[i], want[i])
					}
				}
			}
		}
	}
}

func TestWeeksInMonthPaddingIsContiguous(t *testing.T) {
	weeks := WeeksInMonth(2024, time.February, time.Monday)
	prev := weeks[0][0]
	for wi, week := range weeks {
		for di, d := range week {
			if wi == 0 && di == 0 {
				continue
			}
			if want := prev.AddDays(1); d != want {
				t.Fatalf("grid gap at week %d day %d: %s after %s", wi, di, d, prev)
			}
			prev = d
		}
	}
}

func TestWeekIndexOf(t *testing.T) {
	weeks := WeeksInMonth(2024, time.March, time.Sunday)
	if got := WeekIndexOf(weeks, "2024-03-20"); got != 3 {
		t.Fatalf("WeekIndexOf() = %d, want 3", got)
	}
	if got := WeekIndexOf(weeks, "2024-05-01"); got != -1 {
		t.Fatalf("WeekIndexOf(absent) = %d, want -1", got)
	}
}
