package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
	appLog "github.com/lachiem1/cyclecal/internal/log"
	"github.com/lachiem1/cyclecal/internal/storage"
)

// RecordSyncer copies one record source for a window from a remote store into
// the local cache. Each source keeps its own sync_state row, so sources
// succeed and fail independently.
type RecordSyncer[T any] struct {
	source    calendar.SourceName
	userID    string
	fetch     func(ctx context.Context, userID string, from, to calendar.DateKey) ([]T, error)
	replace   func(ctx context.Context, userID string, from, to calendar.DateKey, records []T, fetchedAt time.Time) error
	syncState *storage.SyncStateRepo
	now       func() time.Time
}

func (s *RecordSyncer[T]) Source() string {
	return string(s.source)
}

func (s *RecordSyncer[T]) Fresh(ctx context.Context, w Window, staleTTL time.Duration) (bool, error) {
	state, ok, err := s.syncState.Get(ctx, s.Source())
	if err != nil {
		return false, err
	}
	if !ok || !state.Covers(w.From, w.To) {
		return false, nil
	}
	return s.now().Sub(state.LastSuccess.UTC()) <= staleTTL, nil
}

func (s *RecordSyncer[T]) Sync(ctx context.Context, w Window) error {
	return runSyncAttempt(ctx, s.syncState, s.Source(), w, func(runCtx context.Context) (time.Time, error) {
		records, err := s.fetch(runCtx, s.userID, w.From, w.To)
		if err != nil {
			return time.Time{}, fmt.Errorf("fetch %s %s: %w", s.source, w, err)
		}

		fetchedAt := s.now().UTC()
		if err := s.replace(runCtx, s.userID, w.From, w.To, records, fetchedAt); err != nil {
			return time.Time{}, fmt.Errorf("cache %s %s: %w", s.source, w, err)
		}
		appLog.Debug("source synced", "source", s.source, "window", w.String(), "rows", len(records))
		return fetchedAt, nil
	})
}

// NewCalendarSyncers builds one syncer per calendar source, in SourceOrder.
// Reminders are cached for every status; the calendar filters on read.
func NewCalendarSyncers(
	remote calendar.RecordStore,
	local *storage.RecordsRepo,
	syncState *storage.SyncStateRepo,
	userID string,
) []Syncer {
	now := time.Now
	return []Syncer{
		&RecordSyncer[calendar.PhaseRecord]{
			source: calendar.SourcePhases, userID: userID, syncState: syncState, now: now,
			fetch:   remote.PhaseForecasts,
			replace: local.ReplacePhaseForecasts,
		},
		&RecordSyncer[calendar.CycleEvent]{
			source: calendar.SourceEvents, userID: userID, syncState: syncState, now: now,
			fetch:   remote.CycleEvents,
			replace: local.ReplaceCycleEvents,
		},
		&RecordSyncer[calendar.SymptomRecord]{
			source: calendar.SourceSymptoms, userID: userID, syncState: syncState, now: now,
			fetch:   remote.SymptomLogs,
			replace: local.ReplaceSymptomLogs,
		},
		&RecordSyncer[calendar.TrainingRecord]{
			source: calendar.SourceTraining, userID: userID, syncState: syncState, now: now,
			fetch:   remote.TrainingLogs,
			replace: local.ReplaceTrainingLogs,
		},
		&RecordSyncer[calendar.ReminderEvent]{
			source: calendar.SourceReminders, userID: userID, syncState: syncState, now: now,
			fetch: func(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.ReminderEvent, error) {
				return remote.ReminderEvents(ctx, userID, from, to, "")
			},
			replace: local.ReplaceReminderEvents,
		},
	}
}
