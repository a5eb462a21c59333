package calendar

import "time"

// DayViewModel is everything the host needs to render one day. It is built
// fresh on every load or selection change and never mutated afterwards.
type DayViewModel struct {
	Date          DateKey
	IsToday       bool
	IsSelected    bool
	Phase         *PhaseRecord
	HasEvent      bool
	Symptom       *SymptomRecord
	Training      *TrainingRecord
	ReminderTaken bool
	Indicators    []Indicator
}

// DayIndex is a loaded range keyed by DateKey.
type DayIndex struct {
	phases   map[DateKey]PhaseRecord
	events   map[DateKey]bool
	symptoms map[DateKey]SymptomRecord
	training map[DateKey]TrainingRecord
	taken    map[DateKey]bool
}

// IndexSources keys every row by date. Single-record sources keep the first
// row seen for a date; events and taken reminders collapse to presence.
// Reminders are truncated to a date in loc.
func IndexSources(src Sources, loc *time.Location) *DayIndex {
	idx := &DayIndex{
		phases:   make(map[DateKey]PhaseRecord, len(src.Phases)),
		events:   make(map[DateKey]bool, len(src.Events)),
		symptoms: make(map[DateKey]SymptomRecord, len(src.Symptoms)),
		training: make(map[DateKey]TrainingRecord, len(src.Training)),
		taken:    make(map[DateKey]bool, len(src.Reminders)),
	}
	for _, p := range src.Phases {
		if _, exists := idx.phases[p.Date]; !exists {
			idx.phases[p.Date] = p
		}
	}
	for _, e := range src.Events {
		idx.events[e.Date] = true
	}
	for _, s := range src.Symptoms {
		if _, exists := idx.symptoms[s.Date]; !exists {
			idx.symptoms[s.Date] = s
		}
	}
	for _, t := range src.Training {
		if _, exists := idx.training[t.Date]; !exists {
			idx.training[t.Date] = t
		}
	}
	for _, r := range src.Reminders {
		if r.Status != ReminderTaken {
			continue
		}
		idx.taken[r.Date(loc)] = true
	}
	return idx
}

// BuildDayViewModel joins every source for date. A nil index joins nothing.
func BuildDayViewModel(date, today, selected DateKey, idx *DayIndex) DayViewModel {
	m := DayViewModel{
		Date:       date,
		IsToday:    date == today,
		IsSelected: date == selected,
	}
	if idx != nil {
		if p, ok := idx.phases[date]; ok {
			m.Phase = &p
		}
		m.HasEvent = idx.events[date]
		if s, ok := idx.symptoms[date]; ok {
			m.Symptom = &s
		}
		if t, ok := idx.training[date]; ok {
			m.Training = &t
		}
		m.ReminderTaken = idx.taken[date]
	}
	m.Indicators = IndicatorsFor(m)
	return m
}

// BuildDayViewModels maps BuildDayViewModel over dates.
func BuildDayViewModels(dates []DateKey, today, selected DateKey, idx *DayIndex) []DayViewModel {
	out := make([]DayViewModel, len(dates))
	for i, d := range dates {
		out[i] = BuildDayViewModel(d, today, selected, idx)
	}
	return out
}
