package calendar

import (
	"fmt"
	"strings"
	"time"
)

type Layout int

const (
	LayoutWide Layout = iota
	LayoutCompact
)

func (l Layout) String() string {
	if l == LayoutCompact {
		return "compact"
	}
	return "wide"
}

func ParseLayout(raw string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "wide", "desktop":
		return LayoutWide, nil
	case "compact", "mobile":
		return LayoutCompact, nil
	default:
		return LayoutWide, fmt.Errorf("unknown layout %q", raw)
	}
}

// DefaultGranularity is month on wide layouts and week on compact ones.
func (l Layout) DefaultGranularity() Granularity {
	if l == LayoutCompact {
		return Week
	}
	return Month
}

type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// ViewState is the calendar's navigation state. Every mutation goes through
// a transition method, each of which leaves these holding:
//   - selected is inside the visible range
//   - carouselIndex is the position of selected in the visible days
//   - weekIndex indexes the week grid of the anchor's month
//
// ViewState is not safe for concurrent use; Controller serializes access.
type ViewState struct {
	granularity   Granularity
	layout        Layout
	weekStart     time.Weekday
	anchor        DateKey
	selected      DateKey
	weekIndex     int
	carouselIndex int
	pendingScroll int
	days          []DateKey
}

// NewViewState opens on today with today selected and today's week chosen.
func NewViewState(today DateKey, g Granularity, layout Layout, weekStart time.Weekday) *ViewState {
	mustValidGranularity(g)
	v := &ViewState{
		granularity:   g,
		layout:        layout,
		weekStart:     weekStart,
		pendingScroll: -1,
	}
	v.reanchor(today)
	v.selected = today
	v.recomputeWeekIndex(today)
	v.syncCarousel()
	return v
}

func (v *ViewState) Granularity() Granularity { return v.granularity }
func (v *ViewState) Layout() Layout           { return v.layout }
func (v *ViewState) WeekStart() time.Weekday  { return v.weekStart }
func (v *ViewState) Anchor() DateKey          { return v.anchor }
func (v *ViewState) Selected() DateKey        { return v.selected }
func (v *ViewState) WeekIndex() int           { return v.weekIndex }
func (v *ViewState) CarouselIndex() int       { return v.carouselIndex }

// Range is the inclusive visible range.
func (v *ViewState) Range() (DateKey, DateKey) {
	return v.days[0], v.days[len(v.days)-1]
}

// Days returns a copy of the visible-day sequence.
func (v *ViewState) Days() []DateKey {
	out := make([]DateKey, len(v.days))
	copy(out, v.days)
	return out
}

// Weeks is the week grid of the anchor's month.
func (v *ViewState) Weeks() [][]DateKey {
	return WeeksForAnchor(v.anchor, v.weekStart)
}

// TakePendingScroll returns and clears the carousel position the host should
// scroll to. Only transitions that did not originate from the carousel set
// one, which keeps the two sides of the binding from feeding each other.
func (v *ViewState) TakePendingScroll() (int, bool) {
	if v.pendingScroll < 0 {
		return 0, false
	}
	i := v.pendingScroll
	v.pendingScroll = -1
	return i, true
}

// Navigate steps one month (Month) or seven days (Week, TwoWeek).
func (v *ViewState) Navigate(dir Direction, today DateKey) {
	v.anchor = ShiftAnchor(v.granularity, v.anchor, dir)
	v.days = VisibleDays(v.granularity, v.anchor)
	v.reconcileSelection(today)
	v.recomputeWeekIndex(today)
	v.syncCarousel()
}

// SelectDate selects date. A date outside the visible range re-anchors the
// view around it and reports true, meaning the range changed.
func (v *ViewState) SelectDate(date, today DateKey) bool {
	date.Time()
	if v.contains(date) {
		v.selected = date
		v.followSelectedRow()
		v.syncCarousel()
		return false
	}
	v.reanchor(date)
	v.selected = date
	v.recomputeWeekIndex(today)
	v.syncCarousel()
	return true
}

// CarouselScrolled is the inverse of SelectDate for the carousel. It writes
// only the date side and schedules no scroll back.
func (v *ViewState) CarouselScrolled(i int) bool {
	if i < 0 || i >= len(v.days) {
		return false
	}
	v.carouselIndex = i
	v.selected = v.days[i]
	v.followSelectedRow()
	v.pendingScroll = -1
	return true
}

// SetGranularity switches mode and re-anchors on the range containing the
// selected date; the selection itself is preserved. Reports whether anything
// changed.
func (v *ViewState) SetGranularity(g Granularity) bool {
	mustValidGranularity(g)
	if g == v.granularity {
		return false
	}
	v.granularity = g
	v.reanchor(v.selected)
	v.weekIndex = max(WeekIndexOf(v.Weeks(), v.selected), 0)
	v.syncCarousel()
	return true
}

// SelectWeek picks row i of the month grid. In Month mode it moves the
// selection to the row's first in-month day; in Week and TwoWeek it moves the
// anchor to that row and reports true when the range changed.
func (v *ViewState) SelectWeek(i int, today DateKey) bool {
	weeks := v.Weeks()
	if i < 0 || i >= len(weeks) {
		return false
	}
	week := weeks[i]
	if v.granularity == Month {
		v.weekIndex = i
		for _, d := range week {
			if d.SameMonth(v.anchor) {
				v.selected = d
				break
			}
		}
		v.syncCarousel()
		return false
	}

	prev := v.anchor
	v.anchor = week[0]
	v.days = VisibleDays(v.granularity, v.anchor)
	v.reconcileSelection(today)
	v.recomputeWeekIndex(today)
	v.syncCarousel()
	return v.anchor != prev
}

// SetLayout toggles the carousel. Switching to compact schedules a scroll to
// the current selection.
func (v *ViewState) SetLayout(l Layout) {
	if l == v.layout {
		return
	}
	v.layout = l
	v.syncCarousel()
}

func (v *ViewState) reanchor(k DateKey) {
	v.anchor = AlignAnchor(v.granularity, k, v.weekStart)
	v.days = VisibleDays(v.granularity, v.anchor)
}

// reconcileSelection keeps the selection if still visible, else prefers today,
// else the first visible day.
func (v *ViewState) reconcileSelection(today DateKey) {
	switch {
	case v.contains(v.selected):
	case v.contains(today):
		v.selected = today
	default:
		v.selected = v.days[0]
	}
}

// recomputeWeekIndex runs whenever the anchor's month may have changed. In
// Month mode it picks today's week when today is in the shown month, else 0.
// In Week and TwoWeek it follows the anchor.
func (v *ViewState) recomputeWeekIndex(today DateKey) {
	weeks := v.Weeks()
	if v.granularity == Month {
		v.weekIndex = 0
		if today.SameMonth(v.anchor) {
			v.weekIndex = max(WeekIndexOf(weeks, today), 0)
		}
		return
	}
	v.weekIndex = max(WeekIndexOf(weeks, v.anchor), 0)
}

// followSelectedRow keeps the Month grid's week row on the selection so
// week stepping starts from the row the user is on.
func (v *ViewState) followSelectedRow() {
	if v.granularity != Month {
		return
	}
	if i := WeekIndexOf(v.Weeks(), v.selected); i >= 0 {
		v.weekIndex = i
	}
}

func (v *ViewState) syncCarousel() {
	i := v.indexOf(v.selected)
	if i < 0 {
		return
	}
	v.carouselIndex = i
	if v.layout == LayoutCompact {
		v.pendingScroll = i
	}
}

func (v *ViewState) indexOf(k DateKey) int {
	for i, d := range v.days {
		if d == k {
			return i
		}
	}
	return -1
}

func (v *ViewState) contains(k DateKey) bool {
	return v.indexOf(k) >= 0
}
