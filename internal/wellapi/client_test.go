package wellapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubClient(loc *time.Location, fn func(*http.Request) (int, string)) *Client {
	client := NewWithBaseURL("test-token", "https://example.test", loc)
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			status, body := fn(req)
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
			}, nil
		}),
	}
	return client
}

func TestPingSendsBothAuthHeaders(t *testing.T) {
	var seenReq *http.Request
	client := stubClient(time.UTC, func(req *http.Request) (int, string) {
		seenReq = req
		return http.StatusOK, `{}`
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() unexpected error: %v", err)
	}
	if seenReq.URL.Path != "/rest/v1/" {
		t.Fatalf("path = %q, want %q", seenReq.URL.Path, "/rest/v1/")
	}
	if seenReq.Header.Get("Authorization") != "Bearer test-token" {
		t.Fatalf("Authorization header = %q", seenReq.Header.Get("Authorization"))
	}
	if seenReq.Header.Get("apikey") != "test-token" {
		t.Fatalf("apikey header = %q", seenReq.Header.Get("apikey"))
	}
}

func TestPingNon200Fails(t *testing.T) {
	client := stubClient(time.UTC, func(*http.Request) (int, string) {
		return http.StatusUnauthorized, `{}`
	})
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("Ping() error = nil, want non-nil")
	}
}

func TestDateRangeRoutes(t *testing.T) {
	tests := []struct {
		name string
		call func(context.Context, *Client) error
		path string
	}{
		{
			name: "phase forecasts",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.PhaseForecasts(ctx, "u1", "2024-03-01", "2024-03-31")
				return err
			},
			path: "/rest/v1/phase_forecasts",
		},
		{
			name: "cycle events",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.CycleEvents(ctx, "u1", "2024-03-01", "2024-03-31")
				return err
			},
			path: "/rest/v1/cycle_events",
		},
		{
			name: "symptom logs",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.SymptomLogs(ctx, "u1", "2024-03-01", "2024-03-31")
				return err
			},
			path: "/rest/v1/symptom_logs",
		},
		{
			name: "training logs",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.TrainingLogs(ctx, "u1", "2024-03-01", "2024-03-31")
				return err
			},
			path: "/rest/v1/training_logs",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seenReq *http.Request
			client := stubClient(time.UTC, func(req *http.Request) (int, string) {
				seenReq = req
				return http.StatusOK, `[]`
			})

			if err := tc.call(context.Background(), client); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seenReq.URL.Path != tc.path {
				t.Fatalf("path = %q, want %q", seenReq.URL.Path, tc.path)
			}
			q := seenReq.URL.Query()
			if q.Get("user_id") != "eq.u1" {
				t.Fatalf("user_id = %q, want %q", q.Get("user_id"), "eq.u1")
			}
			dates := q["date"]
			if len(dates) != 2 || dates[0] != "gte.2024-03-01" || dates[1] != "lte.2024-03-31" {
				t.Fatalf("date filters = %v", dates)
			}
			if q.Get("limit") != "500" || q.Get("offset") != "0" {
				t.Fatalf("limit/offset = %q/%q", q.Get("limit"), q.Get("offset"))
			}
		})
	}
}

func TestReminderEventsUseLocalDayBounds(t *testing.T) {
	east := time.FixedZone("UTC+10", 10*3600)
	var seenReq *http.Request
	client := stubClient(east, func(req *http.Request) (int, string) {
		seenReq = req
		return http.StatusOK, `[{"occurred_at":"2024-03-09T22:30:00Z","status":"taken","channel":"push"}]`
	})

	events, err := client.ReminderEvents(context.Background(), "u1", "2024-03-10", "2024-03-16", calendar.ReminderTaken)
	if err != nil {
		t.Fatalf("ReminderEvents() unexpected error: %v", err)
	}

	q := seenReq.URL.Query()
	bounds := q["occurred_at"]
	if len(bounds) != 2 || bounds[0] != "gte.2024-03-10T00:00:00+10:00" || bounds[1] != "lt.2024-03-17T00:00:00+10:00" {
		t.Fatalf("occurred_at filters = %v", bounds)
	}
	if q.Get("status") != "eq.taken" {
		t.Fatalf("status = %q, want eq.taken", q.Get("status"))
	}
	if len(events) != 1 || events[0].Date(east) != "2024-03-10" {
		t.Fatalf("events = %+v, want one on 2024-03-10 local", events)
	}
}

func TestSymptomLogsDecodeAndValidate(t *testing.T) {
	client := stubClient(time.UTC, func(*http.Request) (int, string) {
		return http.StatusOK, `[{"date":"2024-03-10","mood":5,"cramps":2,"headache":true,"bleeding_flow":"Light","craving_types":["sweet"],"notes":null}]`
	})

	logs, err := client.SymptomLogs(context.Background(), "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("SymptomLogs() unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	got := logs[0]
	if got.Date != "2024-03-10" || got.Mood == nil || *got.Mood != 5 || !got.Headache {
		t.Fatalf("log = %+v", got)
	}
	if got.BleedingFlow != calendar.FlowLight || got.Energy != nil {
		t.Fatalf("BleedingFlow/Energy = %q/%v", got.BleedingFlow, got.Energy)
	}
}

func TestMalformedRowsAreErrors(t *testing.T) {
	tests := map[string]func(*Client) error{
		"bad date": func(c *Client) error {
			_, err := c.PhaseForecasts(context.Background(), "u1", "2024-03-01", "2024-03-31")
			return err
		},
		"padded date": func(c *Client) error {
			_, err := c.CycleEvents(context.Background(), "u1", "2024-03-01", "2024-03-31")
			return err
		},
		"mood out of range": func(c *Client) error {
			_, err := c.SymptomLogs(context.Background(), "u1", "2024-03-01", "2024-03-31")
			return err
		},
	}
	bodies := map[string]string{
		"bad date":          `[{"date":"10/03/2024","phase":"luteal"}]`,
		"padded date":       `[{"date":" 2024-03-10","event_type":"period_start"}]`,
		"mood out of range": `[{"date":"2024-03-10","mood":9}]`,
	}
	for name, call := range tests {
		t.Run(name, func(t *testing.T) {
			client := stubClient(time.UTC, func(*http.Request) (int, string) {
				return http.StatusOK, bodies[name]
			})
			if err := call(client); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStatusErrorCarriesStatus(t *testing.T) {
	client := stubClient(time.UTC, func(*http.Request) (int, string) {
		return http.StatusUnauthorized, `{"message":"JWT expired"}`
	})

	_, err := client.TrainingLogs(context.Background(), "u1", "2024-03-01", "2024-03-31")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if !statusErr.Unauthorized() || !strings.Contains(err.Error(), "JWT expired") {
		t.Fatalf("StatusError = %+v", statusErr)
	}
}

func TestListAllFollowsOffsets(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		w.Header().Set("Content-Type", "application/json")
		if offset == "0" {
			rows := make([]string, pageSize)
			for i := range rows {
				rows[i] = fmt.Sprintf(`{"date":"2024-03-01","event_type":"e%d"}`, i)
			}
			fmt.Fprint(w, "["+strings.Join(rows, ",")+"]")
			return
		}
		fmt.Fprint(w, `[{"date":"2024-03-02","event_type":"last"}]`)
	}))
	defer server.Close()

	client := NewWithBaseURL("test-token", server.URL, time.UTC)
	events, err := client.CycleEvents(context.Background(), "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("CycleEvents() unexpected error: %v", err)
	}
	if len(events) != pageSize+1 {
		t.Fatalf("len(events) = %d, want %d", len(events), pageSize+1)
	}
	if len(offsets) != 2 || offsets[1] != "500" {
		t.Fatalf("offsets = %v, want [0 500]", offsets)
	}
}
