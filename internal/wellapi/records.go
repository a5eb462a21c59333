package wellapi

import (
	"context"
	"net/url"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

const (
	tablePhaseForecasts = "phase_forecasts"
	tableCycleEvents    = "cycle_events"
	tableSymptomLogs    = "symptom_logs"
	tableTrainingLogs   = "training_logs"
	tableReminderEvents = "reminder_events"
)

var _ calendar.RecordStore = (*Client)(nil)

// PhaseForecasts calls GET /rest/v1/phase_forecasts for [from, to].
func (c *Client) PhaseForecasts(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.PhaseRecord, error) {
	rows, err := listAll[phaseRow](ctx, c, tablePhaseForecasts, dateRangeQuery(userID, from, to))
	if err != nil {
		return nil, err
	}
	return mapRows(rows, phaseRow.record)
}

// CycleEvents calls GET /rest/v1/cycle_events for [from, to].
func (c *Client) CycleEvents(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.CycleEvent, error) {
	rows, err := listAll[cycleEventRow](ctx, c, tableCycleEvents, dateRangeQuery(userID, from, to))
	if err != nil {
		return nil, err
	}
	return mapRows(rows, cycleEventRow.record)
}

// SymptomLogs calls GET /rest/v1/symptom_logs for [from, to].
func (c *Client) SymptomLogs(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.SymptomRecord, error) {
	rows, err := listAll[symptomRow](ctx, c, tableSymptomLogs, dateRangeQuery(userID, from, to))
	if err != nil {
		return nil, err
	}
	return mapRows(rows, symptomRow.record)
}

// TrainingLogs calls GET /rest/v1/training_logs for [from, to].
func (c *Client) TrainingLogs(ctx context.Context, userID string, from, to calendar.DateKey) ([]calendar.TrainingRecord, error) {
	rows, err := listAll[trainingRow](ctx, c, tableTrainingLogs, dateRangeQuery(userID, from, to))
	if err != nil {
		return nil, err
	}
	return mapRows(rows, trainingRow.record)
}

// ReminderEvents calls GET /rest/v1/reminder_events. Reminders are stored
// by instant, so [from, to] becomes [local midnight of from, local midnight
// after to) in the client's zone.
func (c *Client) ReminderEvents(
	ctx context.Context,
	userID string,
	from, to calendar.DateKey,
	status calendar.ReminderStatus,
) ([]calendar.ReminderEvent, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("user_id", "eq."+userID)
	query.Add("occurred_at", "gte."+from.In(c.loc).Format(time.RFC3339))
	query.Add("occurred_at", "lt."+to.AddDays(1).In(c.loc).Format(time.RFC3339))
	if status != "" {
		query.Set("status", "eq."+string(status))
	}
	query.Set("order", "occurred_at.asc")

	rows, err := listAll[reminderRow](ctx, c, tableReminderEvents, query)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, reminderRow.record)
}

func dateRangeQuery(userID string, from, to calendar.DateKey) url.Values {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("user_id", "eq."+userID)
	query.Add("date", "gte."+string(from))
	query.Add("date", "lte."+string(to))
	query.Set("order", "date.asc")
	return query
}

func mapRows[R, T any](rows []R, convert func(R) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := convert(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
