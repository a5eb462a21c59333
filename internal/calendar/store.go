package calendar

import "context"

// RecordStore is a read-only, range-queryable source of a user's records.
// from and to are inclusive. Implementations: storage.RecordsRepo (local
// cache) and wellapi.Client (remote).
type RecordStore interface {
	PhaseForecasts(ctx context.Context, userID string, from, to DateKey) ([]PhaseRecord, error)
	CycleEvents(ctx context.Context, userID string, from, to DateKey) ([]CycleEvent, error)
	SymptomLogs(ctx context.Context, userID string, from, to DateKey) ([]SymptomRecord, error)
	TrainingLogs(ctx context.Context, userID string, from, to DateKey) ([]TrainingRecord, error)
	ReminderEvents(ctx context.Context, userID string, from, to DateKey, status ReminderStatus) ([]ReminderEvent, error)
}
