package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSyncer struct {
	source string

	mu      sync.Mutex
	fresh   bool
	failN   int
	windows []Window
}

func (f *fakeSyncer) Source() string { return f.source }

func (f *fakeSyncer) Fresh(context.Context, Window, time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fresh, nil
}

func (f *fakeSyncer) Sync(_ context.Context, w Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, w)
	if f.failN > 0 {
		f.failN--
		return errors.New("upstream unavailable")
	}
	return nil
}

func (f *fakeSyncer) syncedWindows() []Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Window(nil), f.windows...)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(evt Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

func (l *eventLog) done() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, evt := range l.events {
		if evt.Type == EventSyncDone {
			out = append(out, evt)
		}
	}
	return out
}

var march = Window{From: "2024-03-01", To: "2024-03-31"}

func TestNewRejectsDuplicateSources(t *testing.T) {
	_, err := New(Config{}, []Syncer{&fakeSyncer{source: "a"}, &fakeSyncer{source: "a"}}, nil)
	if err == nil {
		t.Fatal("New() error = nil, want duplicate source error")
	}
	if _, err := New(Config{}, nil, nil); err == nil {
		t.Fatal("New() error = nil, want empty registry error")
	}
}

func TestEnterViewSyncsStaleSourcesOnly(t *testing.T) {
	stale := &fakeSyncer{source: "phases"}
	fresh := &fakeSyncer{source: "events", fresh: true}
	log := &eventLog{}

	engine, err := New(Config{PollInterval: time.Hour}, []Syncer{stale, fresh}, log.record)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	defer engine.LeaveView()

	if err := engine.EnterView(context.Background(), march); err != nil {
		t.Fatalf("EnterView() unexpected error: %v", err)
	}
	waitForCondition(t, 2*time.Second, func() bool { return len(log.done()) == 1 })

	if got := stale.syncedWindows(); len(got) != 1 || got[0] != march {
		t.Fatalf("stale source synced %v, want [%v]", got, march)
	}
	if got := fresh.syncedWindows(); len(got) != 0 {
		t.Fatalf("fresh source synced %v", got)
	}
}

func TestFailingSourceDoesNotBlockOthers(t *testing.T) {
	bad := &fakeSyncer{source: "symptoms", failN: 1}
	good := &fakeSyncer{source: "phases"}
	log := &eventLog{}

	engine, err := New(Config{
		PollInterval: time.Hour,
		Backoff:      []time.Duration{10 * time.Millisecond},
	}, []Syncer{good, bad}, log.record)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	defer engine.LeaveView()

	if err := engine.EnterView(context.Background(), march); err != nil {
		t.Fatalf("EnterView() unexpected error: %v", err)
	}
	waitForCondition(t, 2*time.Second, func() bool { return len(log.done()) >= 2 })

	done := log.done()
	if len(done[0].Failed) != 1 || done[0].Failed[0] != "symptoms" || done[0].RetryIn != 10*time.Millisecond {
		t.Fatalf("first batch = %+v, want symptoms failed with retry", done[0])
	}
	if len(done[1].Failed) != 0 {
		t.Fatalf("retry batch failed = %v", done[1].Failed)
	}
	if got := good.syncedWindows(); len(got) != 1 {
		t.Fatalf("healthy source synced %d times, want 1 (retry only failed sources)", len(got))
	}
	if got := bad.syncedWindows(); len(got) != 2 {
		t.Fatalf("failing source synced %d times, want 2", len(got))
	}
}

func TestSetWindowFollowsNavigation(t *testing.T) {
	s := &fakeSyncer{source: "phases"}
	log := &eventLog{}
	engine, err := New(Config{PollInterval: time.Hour}, []Syncer{s}, log.record)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	defer engine.LeaveView()

	if err := engine.SetWindow(march); err == nil {
		t.Fatal("SetWindow() without active view succeeded")
	}
	if err := engine.EnterView(context.Background(), march); err != nil {
		t.Fatalf("EnterView() unexpected error: %v", err)
	}
	waitForCondition(t, 2*time.Second, func() bool { return len(log.done()) == 1 })

	april := Window{From: "2024-04-01", To: "2024-04-30"}
	if err := engine.SetWindow(april); err != nil {
		t.Fatalf("SetWindow() unexpected error: %v", err)
	}
	if err := engine.SetWindow(april); err != nil {
		t.Fatalf("SetWindow(same) unexpected error: %v", err)
	}
	waitForCondition(t, 2*time.Second, func() bool { return len(log.done()) == 2 })

	got := s.syncedWindows()
	if len(got) != 2 || got[1] != april {
		t.Fatalf("synced windows = %v, want second %v", got, april)
	}
	if w, ok := engine.ActiveWindow(); !ok || w != april {
		t.Fatalf("ActiveWindow() = (%v, %v)", w, ok)
	}

	if err := engine.SetWindow(Window{From: "2024-04-30", To: "2024-04-01"}); err == nil {
		t.Fatal("SetWindow(reversed) succeeded")
	}
}

func TestManualRefreshSyncsFreshSources(t *testing.T) {
	s := &fakeSyncer{source: "phases", fresh: true}
	log := &eventLog{}
	engine, err := New(Config{PollInterval: time.Hour}, []Syncer{s}, log.record)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	defer engine.LeaveView()

	if err := engine.ManualRefresh(); err == nil {
		t.Fatal("ManualRefresh() without active view succeeded")
	}
	if err := engine.EnterView(context.Background(), march); err != nil {
		t.Fatalf("EnterView() unexpected error: %v", err)
	}
	if err := engine.ManualRefresh(); err != nil {
		t.Fatalf("ManualRefresh() unexpected error: %v", err)
	}
	waitForCondition(t, 2*time.Second, func() bool { return len(s.syncedWindows()) == 1 })
}

func TestScheduleRetryClampsToLastStep(t *testing.T) {
	backoff := []time.Duration{time.Hour, 2 * time.Hour}
	timer, _, delay, next := scheduleRetry(nil, backoff, 5)
	defer timer.Stop()
	if delay != 2*time.Hour || next != 1 {
		t.Fatalf("scheduleRetry() = (%v, %d), want (2h, 1)", delay, next)
	}
}

func TestSettleAllCollectsEveryError(t *testing.T) {
	boom := errors.New("boom")
	errs := settleAll(context.Background(), []string{"a", "b", "c"}, 2, func(_ context.Context, key string) error {
		if key == "b" {
			return boom
		}
		return nil
	})
	if len(errs) != 3 {
		t.Fatalf("len(errs) = %d, want 3", len(errs))
	}
	if errs["a"] != nil || errs["c"] != nil || !errors.Is(errs["b"], boom) {
		t.Fatalf("errs = %v", errs)
	}
}

func TestBackoffSteps(t *testing.T) {
	got := backoffSteps(30 * time.Second)
	want := []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second, 30 * time.Second}
	if len(got) != len(want) {
		t.Fatalf("backoffSteps() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("backoffSteps()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if backoffSteps(0) != nil {
		t.Fatal("backoffSteps(0) != nil")
	}
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
