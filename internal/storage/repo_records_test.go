package storage

import (
	"context"
	"testing"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

func intPtr(v int) *int { return &v }

func TestRecordsRepoPhaseForecastsReplaceRange(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo(openTestDB(t), time.UTC)
	fetched := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.ReplacePhaseForecasts(ctx, "u1", "2024-03-01", "2024-03-31", []calendar.PhaseRecord{
		{Date: "2024-03-02", Phase: calendar.PhaseMenstrual, Confidence: 0.9},
		{Date: "2024-03-02", Phase: calendar.PhaseLuteal},
		{Date: "2024-03-20", Phase: calendar.PhaseFollicular},
	}, fetched); err != nil {
		t.Fatalf("ReplacePhaseForecasts() unexpected error: %v", err)
	}
	if err := repo.ReplacePhaseForecasts(ctx, "u2", "2024-03-01", "2024-03-31", []calendar.PhaseRecord{
		{Date: "2024-03-05", Phase: calendar.PhaseLuteal},
	}, fetched); err != nil {
		t.Fatalf("ReplacePhaseForecasts(u2) unexpected error: %v", err)
	}

	got, err := repo.PhaseForecasts(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("PhaseForecasts() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(PhaseForecasts()) = %d, want 2", len(got))
	}
	if got[0].Date != "2024-03-02" || got[0].Phase != calendar.PhaseMenstrual || got[0].Confidence != 0.9 {
		t.Fatalf("PhaseForecasts()[0] = %+v, want first-seen menstrual row", got[0])
	}

	// Replacing a narrower window leaves rows outside it alone.
	if err := repo.ReplacePhaseForecasts(ctx, "u1", "2024-03-15", "2024-03-31", nil, fetched); err != nil {
		t.Fatalf("ReplacePhaseForecasts(empty) unexpected error: %v", err)
	}
	got, err = repo.PhaseForecasts(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("PhaseForecasts() unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2024-03-02" {
		t.Fatalf("PhaseForecasts() after narrow replace = %+v", got)
	}
}

func TestRecordsRepoRejectsOutOfRangeRows(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo(openTestDB(t), time.UTC)

	err := repo.ReplaceCycleEvents(ctx, "u1", "2024-03-01", "2024-03-31", []calendar.CycleEvent{
		{Date: "2024-03-04", Type: "period_start"},
		{Date: "2024-04-01", Type: "period_start"},
	}, time.Now())
	if err == nil {
		t.Fatal("ReplaceCycleEvents() error = nil, want out-of-range error")
	}

	got, err := repo.CycleEvents(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("CycleEvents() unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("failed replace left %d rows behind", len(got))
	}
}

func TestRecordsRepoSymptomLogsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo(openTestDB(t), time.UTC)

	want := calendar.SymptomRecord{
		Date:         "2024-03-10",
		Mood:         intPtr(2),
		Cramps:       intPtr(3),
		Headache:     true,
		Ovulation:    true,
		BleedingFlow: calendar.FlowLight,
		CravingTypes: []string{"sweet", "salty"},
		MoodStates:   []string{"irritable"},
		Notes:        "long day",
	}
	if err := repo.ReplaceSymptomLogs(ctx, "u1", "2024-03-01", "2024-03-31", []calendar.SymptomRecord{want}, time.Now()); err != nil {
		t.Fatalf("ReplaceSymptomLogs() unexpected error: %v", err)
	}

	got, err := repo.SymptomLogs(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("SymptomLogs() unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(SymptomLogs()) = %d, want 1", len(got))
	}
	rec := got[0]
	if rec.Mood == nil || *rec.Mood != 2 || rec.Energy != nil || rec.Cramps == nil || *rec.Cramps != 3 {
		t.Fatalf("scales = mood %v energy %v cramps %v", rec.Mood, rec.Energy, rec.Cramps)
	}
	if !rec.Headache || !rec.Ovulation || rec.Nausea {
		t.Fatalf("flags = %+v", rec)
	}
	if rec.BleedingFlow != calendar.FlowLight || !rec.Bleeding() {
		t.Fatalf("BleedingFlow = %q, want light", rec.BleedingFlow)
	}
	if len(rec.CravingTypes) != 2 || rec.CravingTypes[1] != "salty" || len(rec.MoodStates) != 1 {
		t.Fatalf("lists = %v / %v", rec.CravingTypes, rec.MoodStates)
	}
	if rec.Notes != "long day" {
		t.Fatalf("Notes = %q", rec.Notes)
	}
}

func TestRecordsRepoSymptomLogsValidateScales(t *testing.T) {
	repo := NewRecordsRepo(openTestDB(t), time.UTC)
	err := repo.ReplaceSymptomLogs(context.Background(), "u1", "2024-03-01", "2024-03-31", []calendar.SymptomRecord{
		{Date: "2024-03-10", Cramps: intPtr(5)},
	}, time.Now())
	if err == nil {
		t.Fatal("ReplaceSymptomLogs() error = nil, want scale error")
	}
}

func TestRecordsRepoTrainingLogsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo(openTestDB(t), time.UTC)

	if err := repo.ReplaceTrainingLogs(ctx, "u1", "2024-03-01", "2024-03-31", []calendar.TrainingRecord{
		{Date: "2024-03-12", TrainingLoad: calendar.LoadHard, Fatigue: intPtr(3), WorkoutTypes: []string{"run"}, PBType: "5k", PBValue: "21:30"},
	}, time.Now()); err != nil {
		t.Fatalf("ReplaceTrainingLogs() unexpected error: %v", err)
	}

	got, err := repo.TrainingLogs(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("TrainingLogs() unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(TrainingLogs()) = %d, want 1", len(got))
	}
	rec := got[0]
	if rec.TrainingLoad != calendar.LoadHard || rec.Soreness != nil || rec.Fatigue == nil || *rec.Fatigue != 3 {
		t.Fatalf("TrainingLogs()[0] = %+v", rec)
	}
	if len(rec.WorkoutTypes) != 1 || rec.WorkoutTypes[0] != "run" || rec.PBValue != "21:30" {
		t.Fatalf("TrainingLogs()[0] details = %+v", rec)
	}
}

func TestRecordsRepoReminderEventsUseLocalDays(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("AEST", 10*60*60)
	repo := NewRecordsRepo(openTestDB(t), loc)

	events := []calendar.ReminderEvent{
		// 2024-03-10 08:00 local
		{OccurredAt: time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC), Status: calendar.ReminderTaken, Channel: "push"},
		// 2024-03-10 23:30 local
		{OccurredAt: time.Date(2024, 3, 10, 13, 30, 0, 0, time.UTC), Status: calendar.ReminderSkipped},
		// 2024-03-11 09:00 local
		{OccurredAt: time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC), Status: calendar.ReminderTaken},
	}
	if err := repo.ReplaceReminderEvents(ctx, "u1", "2024-03-01", "2024-03-31", events, time.Now()); err != nil {
		t.Fatalf("ReplaceReminderEvents() unexpected error: %v", err)
	}

	got, err := repo.ReminderEvents(ctx, "u1", "2024-03-10", "2024-03-10", "")
	if err != nil {
		t.Fatalf("ReminderEvents() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(ReminderEvents(all)) = %d, want 2", len(got))
	}
	if !got[0].OccurredAt.Equal(events[0].OccurredAt) || got[0].Channel != "push" {
		t.Fatalf("ReminderEvents()[0] = %+v", got[0])
	}

	taken, err := repo.ReminderEvents(ctx, "u1", "2024-03-10", "2024-03-11", calendar.ReminderTaken)
	if err != nil {
		t.Fatalf("ReminderEvents(taken) unexpected error: %v", err)
	}
	if len(taken) != 2 {
		t.Fatalf("len(ReminderEvents(taken)) = %d, want 2", len(taken))
	}
	for _, ev := range taken {
		if ev.Status != calendar.ReminderTaken {
			t.Fatalf("status filter leaked %q", ev.Status)
		}
	}
}

func TestRecordsRepoFeedsDayIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordsRepo(openTestDB(t), time.UTC)
	if err := repo.ReplacePhaseForecasts(ctx, "u1", "2024-03-01", "2024-03-31", []calendar.PhaseRecord{
		{Date: "2024-03-03", Phase: calendar.PhaseMenstrual},
	}, time.Now()); err != nil {
		t.Fatalf("ReplacePhaseForecasts() unexpected error: %v", err)
	}

	phases, err := repo.PhaseForecasts(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("PhaseForecasts() unexpected error: %v", err)
	}
	idx := calendar.IndexSources(calendar.Sources{Phases: phases}, time.UTC)
	vm := calendar.BuildDayViewModel("2024-03-03", "2024-03-20", "2024-03-20", idx)
	if vm.Phase == nil || calendar.PhaseColorClass(vm) != calendar.ColorMenstrual {
		t.Fatalf("BuildDayViewModel() phase = %+v", vm.Phase)
	}
}
