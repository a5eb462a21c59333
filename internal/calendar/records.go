package calendar

import (
	"fmt"
	"strings"
	"time"
)

type Phase string

const (
	PhaseMenstrual  Phase = "menstrual"
	PhaseFollicular Phase = "follicular"
	PhaseOvulatory  Phase = "ovulatory"
	PhaseLuteal     Phase = "luteal"
	PhaseUnknown    Phase = "unknown"
)

// ParsePhase maps raw predictor output onto the five known phases. Anything
// unrecognized becomes PhaseUnknown.
func ParsePhase(raw string) Phase {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "menstrual", "menstruation", "period":
		return PhaseMenstrual
	case "follicular":
		return PhaseFollicular
	case "ovulatory", "ovulation":
		return PhaseOvulatory
	case "luteal":
		return PhaseLuteal
	default:
		return PhaseUnknown
	}
}

type PhaseRecord struct {
	Date       DateKey
	Phase      Phase
	Confidence float64
}

type CycleEvent struct {
	Date DateKey
	Type string
}

type BleedingFlow string

const (
	FlowNone     BleedingFlow = "none"
	FlowSpotting BleedingFlow = "spotting"
	FlowLight    BleedingFlow = "light"
	FlowMedium   BleedingFlow = "medium"
	FlowHeavy    BleedingFlow = "heavy"
)

func (f BleedingFlow) Valid() bool {
	switch f {
	case "", FlowNone, FlowSpotting, FlowLight, FlowMedium, FlowHeavy:
		return true
	default:
		return false
	}
}

// SymptomRecord is one day's symptom log. Nil pointers mean "not logged".
type SymptomRecord struct {
	Date DateKey

	Mood     *int
	Energy   *int
	Sleep    *int
	Cramps   *int
	Bloating *int

	Headache         bool
	BreastTenderness bool
	Nausea           bool
	Gas              bool
	ToiletIssues     bool
	HotFlushes       bool
	Chills           bool
	StressHeadache   bool
	Dizziness        bool
	Ovulation        bool

	BleedingFlow BleedingFlow
	CravingTypes []string
	MoodStates   []string
	Notes        string
}

func (s SymptomRecord) Validate() error {
	if err := checkScale("mood", s.Mood, 1, 5); err != nil {
		return err
	}
	if err := checkScale("energy", s.Energy, 1, 5); err != nil {
		return err
	}
	if err := checkScale("sleep", s.Sleep, 1, 5); err != nil {
		return err
	}
	if err := checkScale("cramps", s.Cramps, 1, 4); err != nil {
		return err
	}
	if err := checkScale("bloating", s.Bloating, 1, 4); err != nil {
		return err
	}
	if !s.BleedingFlow.Valid() {
		return fmt.Errorf("symptom log %s: unknown bleeding flow %q", s.Date, s.BleedingFlow)
	}
	return nil
}

// Bleeding reports whether the log records any flow.
func (s SymptomRecord) Bleeding() bool {
	return s.BleedingFlow != "" && s.BleedingFlow != FlowNone
}

// HasDataBesidesMood reports whether anything other than mood was logged.
func (s SymptomRecord) HasDataBesidesMood() bool {
	if s.Energy != nil || s.Sleep != nil || s.Cramps != nil || s.Bloating != nil {
		return true
	}
	if s.Headache || s.BreastTenderness || s.Nausea || s.Gas || s.ToiletIssues ||
		s.HotFlushes || s.Chills || s.StressHeadache || s.Dizziness || s.Ovulation {
		return true
	}
	if s.BleedingFlow != "" || len(s.CravingTypes) > 0 || len(s.MoodStates) > 0 {
		return true
	}
	return strings.TrimSpace(s.Notes) != ""
}

type TrainingLoad string

const (
	LoadRest     TrainingLoad = "rest"
	LoadEasy     TrainingLoad = "easy"
	LoadModerate TrainingLoad = "moderate"
	LoadHard     TrainingLoad = "hard"
)

func (l TrainingLoad) Valid() bool {
	switch l {
	case "", LoadRest, LoadEasy, LoadModerate, LoadHard:
		return true
	default:
		return false
	}
}

type TrainingRecord struct {
	Date         DateKey
	TrainingLoad TrainingLoad
	Soreness     *int
	Fatigue      *int
	WorkoutTypes []string
	PBType       string
	PBValue      string
	Notes        string
}

func (t TrainingRecord) Validate() error {
	if !t.TrainingLoad.Valid() {
		return fmt.Errorf("training log %s: unknown training load %q", t.Date, t.TrainingLoad)
	}
	if err := checkScale("soreness", t.Soreness, 1, 3); err != nil {
		return err
	}
	return checkScale("fatigue", t.Fatigue, 1, 3)
}

type ReminderStatus string

const (
	ReminderTaken     ReminderStatus = "taken"
	ReminderSkipped   ReminderStatus = "skipped"
	ReminderMissed    ReminderStatus = "missed"
	ReminderScheduled ReminderStatus = "scheduled"
)

// ReminderEvent is a single reminder occurrence. It carries an instant, not a
// date; Date truncates it in the viewer's zone.
type ReminderEvent struct {
	OccurredAt time.Time
	Status     ReminderStatus
	Channel    string
}

func (r ReminderEvent) Date(loc *time.Location) DateKey {
	return Today(r.OccurredAt, loc)
}

func checkScale(name string, v *int, lo, hi int) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%s %d out of range %d..%d", name, *v, lo, hi)
	}
	return nil
}

// Sources holds one range's worth of rows from each record source.
type Sources struct {
	Phases    []PhaseRecord
	Events    []CycleEvent
	Symptoms  []SymptomRecord
	Training  []TrainingRecord
	Reminders []ReminderEvent
}
