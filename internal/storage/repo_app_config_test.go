package storage

import (
	"context"
	"testing"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

func TestCalendarPrefsDefaultsWhenUnset(t *testing.T) {
	repo := NewAppConfigRepo(openTestDB(t))
	defaults := CalendarPrefs{Granularity: calendar.Week, Layout: calendar.LayoutCompact}

	got, err := repo.LoadCalendarPrefs(context.Background(), defaults)
	if err != nil {
		t.Fatalf("LoadCalendarPrefs() unexpected error: %v", err)
	}
	if got != defaults {
		t.Fatalf("LoadCalendarPrefs() = %+v, want %+v", got, defaults)
	}
}

func TestCalendarPrefsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewAppConfigRepo(openTestDB(t))

	want := CalendarPrefs{Granularity: calendar.TwoWeek, Layout: calendar.LayoutWide}
	if err := repo.SaveCalendarPrefs(ctx, want); err != nil {
		t.Fatalf("SaveCalendarPrefs() unexpected error: %v", err)
	}
	got, err := repo.LoadCalendarPrefs(ctx, CalendarPrefs{Granularity: calendar.Month, Layout: calendar.LayoutCompact})
	if err != nil {
		t.Fatalf("LoadCalendarPrefs() unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("LoadCalendarPrefs() = %+v, want %+v", got, want)
	}
}

func TestCalendarPrefsIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	repo := NewAppConfigRepo(openTestDB(t))
	if err := repo.UpsertMany(ctx, map[string]string{
		configKeyGranularity: "quarter",
		configKeyLayout:      "compact",
	}); err != nil {
		t.Fatalf("UpsertMany() unexpected error: %v", err)
	}

	got, err := repo.LoadCalendarPrefs(ctx, CalendarPrefs{Granularity: calendar.Month, Layout: calendar.LayoutWide})
	if err != nil {
		t.Fatalf("LoadCalendarPrefs() unexpected error: %v", err)
	}
	if got.Granularity != calendar.Month || got.Layout != calendar.LayoutCompact {
		t.Fatalf("LoadCalendarPrefs() = %+v, want month/compact", got)
	}

	raw, ok, err := repo.Get(ctx, configKeyGranularity)
	if err != nil || !ok || raw != "quarter" {
		t.Fatalf("Get() = (%q, %v, %v)", raw, ok, err)
	}
}
