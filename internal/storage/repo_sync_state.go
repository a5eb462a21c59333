package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

// SyncState is the cache bookkeeping for one record source. WindowFrom and
// WindowTo are the range of the last successful sync.
type SyncState struct {
	Source       string
	WindowFrom   calendar.DateKey
	WindowTo     calendar.DateKey
	LastSuccess  *time.Time
	LastAttempt  *time.Time
	LastErrorMsg string
}

// Covers reports whether the last successful sync included [from, to].
func (s SyncState) Covers(from, to calendar.DateKey) bool {
	if s.LastSuccess == nil || s.WindowFrom == "" || s.WindowTo == "" {
		return false
	}
	return !from.Before(s.WindowFrom) && !to.After(s.WindowTo)
}

type SyncStateRepo struct {
	db *sql.DB
}

func NewSyncStateRepo(db *sql.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

func (r *SyncStateRepo) Get(ctx context.Context, source string) (SyncState, bool, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT source, COALESCE(window_from, ''), COALESCE(window_to, ''),
		        last_success_at, last_attempt_at, COALESCE(last_error, '')
		 FROM sync_state WHERE source = ?`,
		source,
	)

	var state SyncState
	var windowFrom, windowTo string
	var lastSuccess sql.NullString
	var lastAttempt sql.NullString
	if err := row.Scan(&state.Source, &windowFrom, &windowTo, &lastSuccess, &lastAttempt, &state.LastErrorMsg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SyncState{}, false, nil
		}
		return SyncState{}, false, fmt.Errorf("query sync state for %q: %w", source, err)
	}

	state.WindowFrom = calendar.DateKey(windowFrom)
	state.WindowTo = calendar.DateKey(windowTo)
	var err error
	if state.LastSuccess, err = parseOptionalTime(lastSuccess); err != nil {
		return SyncState{}, false, fmt.Errorf("parse last_success_at for %q: %w", source, err)
	}
	if state.LastAttempt, err = parseOptionalTime(lastAttempt); err != nil {
		return SyncState{}, false, fmt.Errorf("parse last_attempt_at for %q: %w", source, err)
	}
	return state, true, nil
}

func (r *SyncStateRepo) RecordAttempt(ctx context.Context, source string, at time.Time) error {
	// Clear previous error at the start of a new attempt.
	msg := ""
	return r.upsert(ctx, source, at, nil, nil, &msg)
}

func (r *SyncStateRepo) RecordSuccess(ctx context.Context, source string, at time.Time, from, to calendar.DateKey) error {
	msg := ""
	window := [2]string{string(from), string(to)}
	return r.upsert(ctx, source, at, &at, &window, &msg)
}

func (r *SyncStateRepo) RecordError(ctx context.Context, source string, at time.Time, syncErr error) error {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	return r.upsert(ctx, source, at, nil, nil, &msg)
}

func (r *SyncStateRepo) upsert(
	ctx context.Context,
	source string,
	attemptAt time.Time,
	successAt *time.Time,
	window *[2]string,
	errorMsg *string,
) error {
	attemptValue := attemptAt.UTC().Format(time.RFC3339Nano)
	var successValue any
	if successAt != nil {
		successValue = successAt.UTC().Format(time.RFC3339Nano)
	}
	var fromValue, toValue any
	if window != nil {
		fromValue, toValue = window[0], window[1]
	}
	var errorValue any
	if errorMsg != nil {
		errorValue = *errorMsg
	}

	const q = `
INSERT INTO sync_state (source, window_from, window_to, last_attempt_at, last_success_at, last_error)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(source) DO UPDATE SET
  window_from = COALESCE(excluded.window_from, sync_state.window_from),
  window_to = COALESCE(excluded.window_to, sync_state.window_to),
  last_attempt_at = excluded.last_attempt_at,
  last_success_at = COALESCE(excluded.last_success_at, sync_state.last_success_at),
  last_error = CASE
    WHEN excluded.last_error IS NULL THEN sync_state.last_error
    ELSE excluded.last_error
  END
`
	if _, err := r.db.ExecContext(ctx, q, source, fromValue, toValue, attemptValue, successValue, errorValue); err != nil {
		return fmt.Errorf("upsert sync state for %q: %w", source, err)
	}
	return nil
}

func parseOptionalTime(v sql.NullString) (*time.Time, error) {
	if strings.TrimSpace(v.String) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
