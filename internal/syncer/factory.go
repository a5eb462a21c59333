package syncer

import (
	"database/sql"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
	"github.com/lachiem1/cyclecal/internal/storage"
)

type ServiceOptions struct {
	UserID       string
	Location     *time.Location
	StaleTTL     time.Duration
	PollInterval time.Duration
	Backoff      time.Duration
	OnEvent      func(Event)
}

// NewCalendarService wires the remote store to the local cache in db.
func NewCalendarService(db *sql.DB, remote calendar.RecordStore, opts ServiceOptions) (*Service, error) {
	records := storage.NewRecordsRepo(db, opts.Location)
	syncStateRepo := storage.NewSyncStateRepo(db)

	engine, err := New(
		Config{
			StaleTTL:     opts.StaleTTL,
			PollInterval: opts.PollInterval,
			Backoff:      backoffSteps(opts.Backoff),
		},
		NewCalendarSyncers(remote, records, syncStateRepo, opts.UserID),
		opts.OnEvent,
	)
	if err != nil {
		return nil, err
	}
	return NewService(engine), nil
}

// backoffSteps ramps up to ceiling, or returns nil for the engine default.
func backoffSteps(ceiling time.Duration) []time.Duration {
	if ceiling <= 0 {
		return nil
	}
	steps := []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second}
	out := make([]time.Duration, 0, len(steps)+1)
	for _, d := range steps {
		if d < ceiling {
			out = append(out, d)
		}
	}
	return append(out, ceiling)
}
