package calendar

import (
	"reflect"
	"testing"
)

func TestIndicatorsForOrder(t *testing.T) {
	m := DayViewModel{
		Date:          "2024-03-10",
		HasEvent:      true,
		Symptom:       &SymptomRecord{Date: "2024-03-10", Mood: intPtr(5)},
		Training:      &TrainingRecord{Date: "2024-03-10", WorkoutTypes: []string{"strength"}},
		ReminderTaken: true,
	}
	want := []Indicator{IndicatorPeriod, IndicatorMoodPositive, IndicatorTraining, IndicatorSupplement}
	if got := IndicatorsFor(m); !reflect.DeepEqual(got, want) {
		t.Fatalf("IndicatorsFor() = %v, want %v", got, want)
	}
}

func TestIndicatorsForMood(t *testing.T) {
	tests := []struct {
		name    string
		symptom *SymptomRecord
		want    []Indicator
	}{
		{name: "no symptom", symptom: nil, want: []Indicator{}},
		{name: "mood 4", symptom: &SymptomRecord{Mood: intPtr(4)}, want: []Indicator{IndicatorMoodPositive}},
		{name: "mood 3", symptom: &SymptomRecord{Mood: intPtr(3)}, want: []Indicator{IndicatorMoodNeutral}},
		{name: "mood 1", symptom: &SymptomRecord{Mood: intPtr(1)}, want: []Indicator{IndicatorMoodNegative}},
		{name: "no mood but headache", symptom: &SymptomRecord{Headache: true}, want: []Indicator{IndicatorLogged}},
		{name: "no mood but notes", symptom: &SymptomRecord{Notes: "tired"}, want: []Indicator{IndicatorLogged}},
		{name: "empty log", symptom: &SymptomRecord{}, want: []Indicator{}},
		{name: "flow only", symptom: &SymptomRecord{BleedingFlow: FlowLight}, want: []Indicator{IndicatorPeriod, IndicatorLogged}},
		{name: "flow none", symptom: &SymptomRecord{BleedingFlow: FlowNone, Mood: intPtr(3)}, want: []Indicator{IndicatorMoodNeutral}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := IndicatorsFor(DayViewModel{Symptom: tc.symptom})
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("IndicatorsFor() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTrainingIndicatorNeedsWorkouts(t *testing.T) {
	m := DayViewModel{Training: &TrainingRecord{TrainingLoad: LoadRest}}
	if got := IndicatorsFor(m); len(got) != 0 {
		t.Fatalf("IndicatorsFor() = %v, want none", got)
	}
}

func TestPhaseColorClassIsTotal(t *testing.T) {
	tests := map[Phase]PhaseColor{
		PhaseMenstrual:  ColorMenstrual,
		PhaseFollicular: ColorFollicular,
		PhaseOvulatory:  ColorOvulatory,
		PhaseLuteal:     ColorLuteal,
		PhaseUnknown:    ColorNeutral,
		"ovulation":     ColorOvulatory,
		"LUTEAL":        ColorLuteal,
		"mystery":       ColorNeutral,
		"":              ColorNeutral,
	}
	for phase, want := range tests {
		m := DayViewModel{Phase: &PhaseRecord{Phase: phase}}
		if got := PhaseColorClass(m); got != want {
			t.Fatalf("PhaseColorClass(%q) = %q, want %q", phase, got, want)
		}
	}
}

func TestSymptomValidate(t *testing.T) {
	if err := (SymptomRecord{Mood: intPtr(5), Cramps: intPtr(4)}).Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if err := (SymptomRecord{Cramps: intPtr(5)}).Validate(); err == nil {
		t.Fatalf("Validate() expected error for cramps 5")
	}
	if err := (SymptomRecord{BleedingFlow: "torrential"}).Validate(); err == nil {
		t.Fatalf("Validate() expected error for unknown flow")
	}
	if err := (TrainingRecord{Fatigue: intPtr(4)}).Validate(); err == nil {
		t.Fatalf("Validate() expected error for fatigue 4")
	}
}
