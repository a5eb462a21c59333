package wellapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

type phaseRow struct {
	Date       string  `json:"date"`
	Phase      string  `json:"phase"`
	Confidence float64 `json:"confidence"`
}

type cycleEventRow struct {
	Date      string `json:"date"`
	EventType string `json:"event_type"`
}

type symptomRow struct {
	Date             string   `json:"date"`
	Mood             *int     `json:"mood"`
	Energy           *int     `json:"energy"`
	Sleep            *int     `json:"sleep"`
	Cramps           *int     `json:"cramps"`
	Bloating         *int     `json:"bloating"`
	Headache         bool     `json:"headache"`
	BreastTenderness bool     `json:"breast_tenderness"`
	Nausea           bool     `json:"nausea"`
	Gas              bool     `json:"gas"`
	ToiletIssues     bool     `json:"toilet_issues"`
	HotFlushes       bool     `json:"hot_flushes"`
	Chills           bool     `json:"chills"`
	StressHeadache   bool     `json:"stress_headache"`
	Dizziness        bool     `json:"dizziness"`
	Ovulation        bool     `json:"ovulation"`
	BleedingFlow     *string  `json:"bleeding_flow"`
	CravingTypes     []string `json:"craving_types"`
	MoodStates       []string `json:"mood_states"`
	Notes            *string  `json:"notes"`
}

type trainingRow struct {
	Date         string   `json:"date"`
	TrainingLoad *string  `json:"training_load"`
	Soreness     *int     `json:"soreness"`
	Fatigue      *int     `json:"fatigue"`
	WorkoutTypes []string `json:"workout_types"`
	PBType       *string  `json:"pb_type"`
	PBValue      *string  `json:"pb_value"`
	Notes        *string  `json:"notes"`
}

type reminderRow struct {
	OccurredAt string `json:"occurred_at"`
	Status     string `json:"status"`
	Channel    string `json:"channel"`
}

func (r phaseRow) record() (calendar.PhaseRecord, error) {
	date, err := calendar.ParseDateKey(r.Date)
	if err != nil {
		return calendar.PhaseRecord{}, fmt.Errorf("phase forecast: %w", err)
	}
	return calendar.PhaseRecord{
		Date:       date,
		Phase:      calendar.ParsePhase(r.Phase),
		Confidence: r.Confidence,
	}, nil
}

func (r cycleEventRow) record() (calendar.CycleEvent, error) {
	date, err := calendar.ParseDateKey(r.Date)
	if err != nil {
		return calendar.CycleEvent{}, fmt.Errorf("cycle event: %w", err)
	}
	return calendar.CycleEvent{Date: date, Type: strings.TrimSpace(r.EventType)}, nil
}

func (r symptomRow) record() (calendar.SymptomRecord, error) {
	date, err := calendar.ParseDateKey(r.Date)
	if err != nil {
		return calendar.SymptomRecord{}, fmt.Errorf("symptom log: %w", err)
	}
	out := calendar.SymptomRecord{
		Date:             date,
		Mood:             r.Mood,
		Energy:           r.Energy,
		Sleep:            r.Sleep,
		Cramps:           r.Cramps,
		Bloating:         r.Bloating,
		Headache:         r.Headache,
		BreastTenderness: r.BreastTenderness,
		Nausea:           r.Nausea,
		Gas:              r.Gas,
		ToiletIssues:     r.ToiletIssues,
		HotFlushes:       r.HotFlushes,
		Chills:           r.Chills,
		StressHeadache:   r.StressHeadache,
		Dizziness:        r.Dizziness,
		Ovulation:        r.Ovulation,
		BleedingFlow:     calendar.BleedingFlow(strings.ToLower(strValue(r.BleedingFlow))),
		CravingTypes:     r.CravingTypes,
		MoodStates:       r.MoodStates,
		Notes:            strValue(r.Notes),
	}
	if err := out.Validate(); err != nil {
		return calendar.SymptomRecord{}, fmt.Errorf("symptom log %s: %w", date, err)
	}
	return out, nil
}

func (r trainingRow) record() (calendar.TrainingRecord, error) {
	date, err := calendar.ParseDateKey(r.Date)
	if err != nil {
		return calendar.TrainingRecord{}, fmt.Errorf("training log: %w", err)
	}
	out := calendar.TrainingRecord{
		Date:         date,
		TrainingLoad: calendar.TrainingLoad(strings.ToLower(strValue(r.TrainingLoad))),
		Soreness:     r.Soreness,
		Fatigue:      r.Fatigue,
		WorkoutTypes: r.WorkoutTypes,
		PBType:       strValue(r.PBType),
		PBValue:      strValue(r.PBValue),
		Notes:        strValue(r.Notes),
	}
	if err := out.Validate(); err != nil {
		return calendar.TrainingRecord{}, fmt.Errorf("training log %s: %w", date, err)
	}
	return out, nil
}

func (r reminderRow) record() (calendar.ReminderEvent, error) {
	at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(r.OccurredAt))
	if err != nil {
		return calendar.ReminderEvent{}, fmt.Errorf("reminder event occurred_at %q: %w", r.OccurredAt, err)
	}
	return calendar.ReminderEvent{
		OccurredAt: at,
		Status:     calendar.ReminderStatus(strings.ToLower(strings.TrimSpace(r.Status))),
		Channel:    strings.TrimSpace(r.Channel),
	}, nil
}

func strValue(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
