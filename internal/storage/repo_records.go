package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

// instantLayout is fixed-width so stored instants sort lexically.
const instantLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordsRepo is the local cache of a user's records. It implements
// calendar.RecordStore so the calendar can render offline.
type RecordsRepo struct {
	db  *sql.DB
	loc *time.Location
}

var _ calendar.RecordStore = (*RecordsRepo)(nil)

// NewRecordsRepo returns a repo whose reminder queries use loc's day bounds.
func NewRecordsRepo(db *sql.DB, loc *time.Location) *RecordsRepo {
	if loc == nil {
		loc = time.Local
	}
	return &RecordsRepo{db: db, loc: loc}
}

func (r *RecordsRepo) PhaseForecasts(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.PhaseRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT date, phase, confidence FROM phase_forecasts
		 WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date`,
		userID, string(from), string(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query phase forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]calendar.PhaseRecord, 0)
	for rows.Next() {
		var date, phase string
		var rec calendar.PhaseRecord
		if err := rows.Scan(&date, &phase, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("scan phase forecast: %w", err)
		}
		if rec.Date, err = calendar.ParseDateKey(date); err != nil {
			return nil, err
		}
		rec.Phase = calendar.ParsePhase(phase)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read phase forecast rows: %w", err)
	}
	return out, nil
}

func (r *RecordsRepo) CycleEvents(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.CycleEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT date, event_type FROM cycle_events
		 WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date, id`,
		userID, string(from), string(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query cycle events: %w", err)
	}
	defer rows.Close()

	out := make([]calendar.CycleEvent, 0)
	for rows.Next() {
		var date string
		var rec calendar.CycleEvent
		if err := rows.Scan(&date, &rec.Type); err != nil {
			return nil, fmt.Errorf("scan cycle event: %w", err)
		}
		if rec.Date, err = calendar.ParseDateKey(date); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cycle event rows: %w", err)
	}
	return out, nil
}

func (r *RecordsRepo) SymptomLogs(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.SymptomRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT date, mood, energy, sleep, cramps, bloating,
		        headache, breast_tenderness, nausea, gas, toilet_issues,
		        hot_flushes, chills, stress_headache, dizziness, ovulation,
		        bleeding_flow, craving_types, mood_states, notes
		 FROM symptom_logs
		 WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date`,
		userID, string(from), string(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query symptom logs: %w", err)
	}
	defer rows.Close()

	out := make([]calendar.SymptomRecord, 0)
	for rows.Next() {
		var (
			date                                  string
			mood, energy, sleep, cramps, bloating sql.NullInt64
			flow, cravings, moodStates            string
			rec                                   calendar.SymptomRecord
		)
		if err := rows.Scan(
			&date, &mood, &energy, &sleep, &cramps, &bloating,
			&rec.Headache, &rec.BreastTenderness, &rec.Nausea, &rec.Gas, &rec.ToiletIssues,
			&rec.HotFlushes, &rec.Chills, &rec.StressHeadache, &rec.Dizziness, &rec.Ovulation,
			&flow, &cravings, &moodStates, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan symptom log: %w", err)
		}
		if rec.Date, err = calendar.ParseDateKey(date); err != nil {
			return nil, err
		}
		rec.Mood = nullIntPtr(mood)
		rec.Energy = nullIntPtr(energy)
		rec.Sleep = nullIntPtr(sleep)
		rec.Cramps = nullIntPtr(cramps)
		rec.Bloating = nullIntPtr(bloating)
		rec.BleedingFlow = calendar.BleedingFlow(flow)
		if rec.CravingTypes, err = decodeStrings(cravings); err != nil {
			return nil, fmt.Errorf("decode craving_types for %s: %w", date, err)
		}
		if rec.MoodStates, err = decodeStrings(moodStates); err != nil {
			return nil, fmt.Errorf("decode mood_states for %s: %w", date, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read symptom log rows: %w", err)
	}
	return out, nil
}

func (r *RecordsRepo) TrainingLogs(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.TrainingRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT date, training_load, soreness, fatigue, workout_types, pb_type, pb_value, notes
		 FROM training_logs
		 WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date`,
		userID, string(from), string(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query training logs: %w", err)
	}
	defer rows.Close()

	out := make([]calendar.TrainingRecord, 0)
	for rows.Next() {
		var (
			date, load, workouts string
			soreness, fatigue    sql.NullInt64
			rec                  calendar.TrainingRecord
		)
		if err := rows.Scan(&date, &load, &soreness, &fatigue, &workouts, &rec.PBType, &rec.PBValue, &rec.Notes); err != nil {
			return nil, fmt.Errorf("scan training log: %w", err)
		}
		if rec.Date, err = calendar.ParseDateKey(date); err != nil {
			return nil, err
		}
		rec.TrainingLoad = calendar.TrainingLoad(load)
		rec.Soreness = nullIntPtr(soreness)
		rec.Fatigue = nullIntPtr(fatigue)
		if rec.WorkoutTypes, err = decodeStrings(workouts); err != nil {
			return nil, fmt.Errorf("decode workout_types for %s: %w", date, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read training log rows: %w", err)
	}
	return out, nil
}

// ReminderEvents returns reminders whose instant falls on a local day in
// [from, to]. An empty status matches every status.
func (r *RecordsRepo) ReminderEvents(
	ctx context.Context,
	userID string,
	from, to calendar.DateKey,
	status calendar.ReminderStatus,
) ([]calendar.ReminderEvent, error) {
	lo, hi := r.instantBounds(from, to)
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT occurred_at, status, channel FROM reminder_events
		 WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		   AND (? = '' OR status = ?)
		 ORDER BY occurred_at, id`,
		userID, lo, hi, string(status), string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query reminder events: %w", err)
	}
	defer rows.Close()

	out := make([]calendar.ReminderEvent, 0)
	for rows.Next() {
		var occurred, st string
		var rec calendar.ReminderEvent
		if err := rows.Scan(&occurred, &st, &rec.Channel); err != nil {
			return nil, fmt.Errorf("scan reminder event: %w", err)
		}
		if rec.OccurredAt, err = time.Parse(instantLayout, occurred); err != nil {
			return nil, fmt.Errorf("parse reminder occurred_at %q: %w", occurred, err)
		}
		rec.Status = calendar.ReminderStatus(st)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read reminder event rows: %w", err)
	}
	return out, nil
}

// ReplacePhaseForecasts swaps the cached forecasts in [from, to] for rows.
// The first row for a date wins.
func (r *RecordsRepo) ReplacePhaseForecasts(
	ctx context.Context,
	userID string,
	from, to calendar.DateKey,
	records []calendar.PhaseRecord,
	fetchedAt time.Time,
) error {
	fetched := fetchedAt.UTC().Format(time.RFC3339Nano)
	return r.replaceRange(ctx, "phase forecasts",
		"DELETE FROM phase_forecasts WHERE user_id = ? AND date BETWEEN ? AND ?",
		[]any{userID, string(from), string(to)},
		`INSERT OR IGNORE INTO phase_forecasts (user_id, date, phase, confidence, last_fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		len(records),
		func(i int) ([]any, error) {
			rec := records[i]
			if err := checkInRange(rec.Date, from, to); err != nil {
				return nil, err
			}
			return []any{userID, string(rec.Date), string(rec.Phase), rec.Confidence, fetched}, nil
		},
	)
}

func (r *RecordsRepo) ReplaceCycleEvents(
	ctx context.Context,
	userID string,
	from, to calendar.DateKey,
	records []calendar.CycleEvent,
	fetchedAt time.Time,
) error {
	fetched := fetchedAt.UTC().Format(time.RFC3339Nano)
	return r.replaceRange(ctx, "cycle events",
		"DELETE FROM cycle_events WHERE user_id = ? AND date BETWEEN ? AND ?",
		[]any{userID, string(from), string(to)},
		"INSERT INTO cycle_events (user_id, date, event_type, last_fetched_at) VALUES (?, ?, ?, ?)",
		len(records),
		func(i int) ([]any, error) {
			rec := records[i]
			if err := checkInRange(rec.Date, from, to); err != nil {
				return nil, err
			}
			return []any{userID, string(rec.Date), rec.Type, fetched}, nil
		},
	)
}

func (r *RecordsRepo) ReplaceSymptomLogs(
	ctx context.Context,
	userID string,
	from, to calendar.DateKey,
	records []calendar.SymptomRecord,
	fetchedAt time.Time,
) error {
	fetched := fetchedAt.UTC().Format(time.RFC3339Nano)
	return r.replaceRange(ctx, "symptom logs",
		"DELETE FROM symptom_logs WHERE user_id = ? AND date BETWEEN ? AND ?",
		[]any{userID, string(from), string(to)},
		`INSERT OR IGNORE INTO symptom_logs (
		   user_id, date, mood, energy, sleep, cramps, bloating,
		   headache, breast_tenderness, nausea, gas, toilet_issues,
		   hot_flushes, chills, stress_headache, dizziness, ovulation,
		   bleeding_flow, craving_types, mood_states, notes, last_fetched_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records),
		func(i int) ([]any, error) {
			rec := records[i]
			if err := checkInRange(rec.Date, from, to); err != nil {
				return nil, err
			}
			if err := rec.Validate(); err != nil {
				return nil, err
			}
			cravings, err := encodeStrings(rec.CravingTypes)
			if err != nil {
				return nil, err
			}
			moodStates, err := encodeStrings(rec.MoodStates)
			if err != nil {
				return nil, err
			}
			return []any{
				userID, string(rec.Date),
				ptrInt(rec.Mood), ptrInt(rec.Energy), ptrInt(rec.Sleep), ptrInt(rec.Cramps), ptrInt(rec.Bloating),
				rec.Headache, rec.BreastTenderness, rec.Nausea, rec.Gas, rec.ToiletIssues,
				rec.HotFlushes, rec.Chills, rec.StressHeadache, rec.Dizziness, rec.Ovulation,
				string(rec.BleedingFlow), cravings, moodStates, rec.Notes, fetched,
			}, nil
		},
	)
}

func (r *RecordsRepo) ReplaceTrainingLogs(
	ctx context.Context,
	userID string,
	from, to calendar.DateKey,
	records []calendar.TrainingRecord,
	fetchedAt time.Time,
) error {
	fetched := fetchedAt.UTC().Format(time.RFC3339Nano)
	return r.replaceRange(ctx, "training logs",
		"DELETE FROM training_logs WHERE user_id = ? AND date BETWEEN ? AND ?",
		[]any{userID, string(from), string(to)},
		`INSERT OR IGNORE INTO training_logs (
		   user_id, date, training_load, soreness, fatigue, workout_types,
		   pb_type, pb_value, notes, last_fetched_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records),
		func(i int) ([]any, error) {
			rec := records[i]
			if err := checkInRange(rec.Date, from, to); err != nil {
				return nil, err
			}
			if err := rec.Validate(); err != nil {
				return nil, err
			}
			workouts, err := encodeStrings(rec.WorkoutTypes)
			if err != nil {
				return nil, err
			}
			return []any{
				userID, string(rec.Date), string(rec.TrainingLoad),
				ptrInt(rec.Soreness), ptrInt(rec.Fatigue), workouts,
				rec.PBType, rec.PBValue, rec.Notes, fetched,
			}, nil
		},
	)
}

// ReplaceReminderEvents swaps cached reminders whose instant falls on a local
// day in [from, to].
func (r *RecordsRepo) ReplaceReminderEvents(
	ctx context.Context,
	userID string,
	from, to calendar.DateKey,
	records []calendar.ReminderEvent,
	fetchedAt time.Time,
) error {
	fetched := fetchedAt.UTC().Format(time.RFC3339Nano)
	lo, hi := r.instantBounds(from, to)
	return r.replaceRange(ctx, "reminder events",
		"DELETE FROM reminder_events WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?",
		[]any{userID, lo, hi},
		"INSERT INTO reminder_events (user_id, occurred_at, status, channel, last_fetched_at) VALUES (?, ?, ?, ?, ?)",
		len(records),
		func(i int) ([]any, error) {
			rec := records[i]
			if err := checkInRange(rec.Date(r.loc), from, to); err != nil {
				return nil, err
			}
			return []any{userID, rec.OccurredAt.UTC().Format(instantLayout), string(rec.Status), rec.Channel, fetched}, nil
		},
	)
}

func (r *RecordsRepo) replaceRange(
	ctx context.Context,
	label string,
	deleteSQL string,
	deleteArgs []any,
	insertSQL string,
	n int,
	argsAt func(i int) ([]any, error),
) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s replace transaction: %w", label, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteSQL, deleteArgs...); err != nil {
		return fmt.Errorf("clear cached %s: %w", label, err)
	}

	if n > 0 {
		stmt, prepErr := tx.PrepareContext(ctx, insertSQL)
		if prepErr != nil {
			err = prepErr
			return fmt.Errorf("prepare %s insert: %w", label, err)
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			args, argErr := argsAt(i)
			if argErr != nil {
				err = argErr
				return fmt.Errorf("cache %s row %d: %w", label, i, err)
			}
			if _, err = stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", label, i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s replace transaction: %w", label, err)
	}
	return nil
}

// instantBounds converts a local date range to [start, end) stored instants.
func (r *RecordsRepo) instantBounds(from, to calendar.DateKey) (string, string) {
	lo := from.In(r.loc).UTC().Format(instantLayout)
	hi := to.AddDays(1).In(r.loc).UTC().Format(instantLayout)
	return lo, hi
}

func checkInRange(date, from, to calendar.DateKey) error {
	if !calendar.InRange(date, from, to) {
		return fmt.Errorf("date %s outside %s..%s", date, from, to)
	}
	return nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func ptrInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func encodeStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStrings(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
