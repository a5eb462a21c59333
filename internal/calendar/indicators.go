package calendar

type Indicator string

const (
	IndicatorPeriod       Indicator = "period"
	IndicatorMoodPositive Indicator = "mood-positive"
	IndicatorMoodNeutral  Indicator = "mood-neutral"
	IndicatorMoodNegative Indicator = "mood-negative"
	IndicatorLogged       Indicator = "logged"
	IndicatorTraining     Indicator = "training"
	IndicatorSupplement   Indicator = "supplement"
)

// IndicatorsFor returns the day's badges in display order: period, mood,
// training, supplement. Phase is not a badge; see PhaseColorClass.
func IndicatorsFor(m DayViewModel) []Indicator {
	out := make([]Indicator, 0, 4)
	if m.HasEvent || (m.Symptom != nil && m.Symptom.Bleeding()) {
		out = append(out, IndicatorPeriod)
	}
	if m.Symptom != nil {
		if mood, ok := moodIndicator(*m.Symptom); ok {
			out = append(out, mood)
		}
	}
	if m.Training != nil && len(m.Training.WorkoutTypes) > 0 {
		out = append(out, IndicatorTraining)
	}
	if m.ReminderTaken {
		out = append(out, IndicatorSupplement)
	}
	return out
}

func moodIndicator(s SymptomRecord) (Indicator, bool) {
	switch {
	case s.Mood == nil:
		if s.HasDataBesidesMood() {
			return IndicatorLogged, true
		}
		return "", false
	case *s.Mood >= 4:
		return IndicatorMoodPositive, true
	case *s.Mood == 3:
		return IndicatorMoodNeutral, true
	default:
		return IndicatorMoodNegative, true
	}
}

type PhaseColor string

const (
	ColorMenstrual  PhaseColor = "menstrual"
	ColorFollicular PhaseColor = "follicular"
	ColorOvulatory  PhaseColor = "ovulatory"
	ColorLuteal     PhaseColor = "luteal"
	ColorNeutral    PhaseColor = "neutral"
)

// PhaseColorClass buckets the day's phase. It is total: a missing or
// unrecognized phase is ColorNeutral.
func PhaseColorClass(m DayViewModel) PhaseColor {
	if m.Phase == nil {
		return ColorNeutral
	}
	switch ParsePhase(string(m.Phase.Phase)) {
	case PhaseMenstrual:
		return ColorMenstrual
	case PhaseFollicular:
		return ColorFollicular
	case PhaseOvulatory:
		return ColorOvulatory
	case PhaseLuteal:
		return ColorLuteal
	default:
		return ColorNeutral
	}
}
