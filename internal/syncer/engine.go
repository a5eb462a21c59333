package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

// Window is the inclusive local date range the calendar is showing.
type Window struct {
	From calendar.DateKey
	To   calendar.DateKey
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.From, w.To)
}

type Syncer interface {
	Source() string
	// Fresh reports whether the cache already holds a recent enough copy of w.
	Fresh(ctx context.Context, w Window, staleTTL time.Duration) (bool, error)
	Sync(ctx context.Context, w Window) error
}

type EventType string

const (
	EventSyncStarted EventType = "sync_started"
	EventSyncOK      EventType = "sync_ok"
	EventSyncFailed  EventType = "sync_failed"
	// EventSyncDone closes a batch. Failed lists the sources that did not
	// sync and RetryIn when they will be tried again.
	EventSyncDone EventType = "sync_done"
)

type Event struct {
	Type    EventType
	Source  string
	Window  Window
	At      time.Time
	Err     error
	Failed  []string
	RetryIn time.Duration
}

type Config struct {
	StaleTTL     time.Duration
	PollInterval time.Duration
	Backoff      []time.Duration
	// Workers bounds concurrent source syncs within a batch.
	Workers int
}

type Engine struct {
	cfg     Config
	order   []string
	syncer  map[string]Syncer
	onEvent func(Event)

	mu     sync.Mutex
	active *activeRun
}

type activeRun struct {
	cancel  context.CancelFunc
	manual  chan struct{}
	windows chan Window
	done    chan struct{}
	window  Window
}

func New(cfg Config, syncers []Syncer, onEvent func(Event)) (*Engine, error) {
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = 5 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Minute
	}
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second, 60 * time.Second}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = len(syncers)
	}

	registry := make(map[string]Syncer, len(syncers))
	order := make([]string, 0, len(syncers))
	for _, s := range syncers {
		if s == nil {
			continue
		}
		source := s.Source()
		if source == "" {
			return nil, errors.New("syncer has empty source")
		}
		if _, exists := registry[source]; exists {
			return nil, fmt.Errorf("duplicate syncer for source %q", source)
		}
		registry[source] = s
		order = append(order, source)
	}
	if len(registry) == 0 {
		return nil, errors.New("at least one syncer is required")
	}

	return &Engine{cfg: cfg, order: order, syncer: registry, onEvent: onEvent}, nil
}

// EnterView starts background syncing of w, replacing any active run.
func (e *Engine) EnterView(ctx context.Context, w Window) error {
	if err := validateWindow(w); err != nil {
		return err
	}

	e.mu.Lock()
	prev := e.active
	runCtx, cancel := context.WithCancel(ctx)
	state := &activeRun{
		cancel:  cancel,
		manual:  make(chan struct{}, 1),
		windows: make(chan Window, 1),
		done:    make(chan struct{}),
		window:  w,
	}
	e.active = state
	e.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	go e.runLoop(runCtx, state)
	return nil
}

func (e *Engine) LeaveView() {
	e.mu.Lock()
	state := e.active
	e.active = nil
	e.mu.Unlock()

	if state != nil {
		state.cancel()
		<-state.done
	}
}

// SetWindow moves the active run to w. Only the latest pending window is kept.
func (e *Engine) SetWindow(w Window) error {
	if err := validateWindow(w); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return errors.New("no active view")
	}
	if e.active.window == w {
		return nil
	}
	e.active.window = w

	select {
	case <-e.active.windows:
	default:
	}
	e.active.windows <- w
	return nil
}

func (e *Engine) ManualRefresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return errors.New("no active view")
	}
	select {
	case e.active.manual <- struct{}{}:
	default:
	}
	return nil
}

// ActiveWindow returns the window of the active run, if any.
func (e *Engine) ActiveWindow() (Window, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Window{}, false
	}
	return e.active.window, true
}

func (e *Engine) runLoop(ctx context.Context, state *activeRun) {
	defer close(state.done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	var retryTimer *time.Timer
	var retryC <-chan time.Time
	var failed []string
	backoffIdx := 0

	window := state.window
	settle := func(sources []string) {
		if retryTimer != nil {
			retryTimer.Stop()
			retryTimer, retryC = nil, nil
		}
		if len(sources) == 0 {
			failed = nil
			return
		}
		failed = e.syncBatch(ctx, window, sources)
		if ctx.Err() != nil {
			return
		}
		done := Event{Type: EventSyncDone, Window: window, At: time.Now().UTC(), Failed: failed}
		if len(failed) == 0 {
			backoffIdx = 0
		} else {
			retryTimer, retryC, done.RetryIn, backoffIdx = scheduleRetry(retryTimer, e.cfg.Backoff, backoffIdx)
		}
		e.emit(done)
	}

	settle(e.dueSources(ctx, window))

	for {
		select {
		case <-ctx.Done():
			if retryTimer != nil {
				retryTimer.Stop()
			}
			return
		case w := <-state.windows:
			window = w
			backoffIdx = 0
			settle(e.dueSources(ctx, window))
		case <-state.manual:
			settle(e.order)
		case <-ticker.C:
			if retryC != nil {
				continue
			}
			settle(e.order)
		case <-retryC:
			retryTimer, retryC = nil, nil
			settle(failed)
		}
	}
}

func scheduleRetry(current *time.Timer, backoff []time.Duration, index int) (*time.Timer, <-chan time.Time, time.Duration, int) {
	if current != nil {
		current.Stop()
	}
	if index >= len(backoff) {
		index = len(backoff) - 1
	}
	delay := backoff[index]
	t := time.NewTimer(delay)
	nextIdx := index + 1
	if nextIdx >= len(backoff) {
		nextIdx = len(backoff) - 1
	}
	return t, t.C, delay, nextIdx
}

// dueSources lists the sources whose cache does not freshly cover w. A source
// whose freshness cannot be read is synced anyway.
func (e *Engine) dueSources(ctx context.Context, w Window) []string {
	due := make([]string, 0, len(e.order))
	for _, source := range e.order {
		fresh, err := e.syncer[source].Fresh(ctx, w, e.cfg.StaleTTL)
		if err != nil {
			e.emit(Event{Type: EventSyncFailed, Source: source, Window: w, At: time.Now().UTC(), Err: err})
		}
		if err != nil || !fresh {
			due = append(due, source)
		}
	}
	return due
}

// syncBatch syncs sources independently and returns the ones that failed.
func (e *Engine) syncBatch(ctx context.Context, w Window, sources []string) []string {
	errs := settleAll(ctx, sources, e.cfg.Workers, func(runCtx context.Context, source string) error {
		return e.attemptSync(runCtx, e.syncer[source], w)
	})

	failed := make([]string, 0, len(errs))
	for _, source := range sources {
		if errs[source] != nil {
			failed = append(failed, source)
		}
	}
	return failed
}

func (e *Engine) attemptSync(ctx context.Context, s Syncer, w Window) error {
	e.emit(Event{Type: EventSyncStarted, Source: s.Source(), Window: w, At: time.Now().UTC()})
	err := s.Sync(ctx, w)
	if err != nil {
		e.emit(Event{Type: EventSyncFailed, Source: s.Source(), Window: w, At: time.Now().UTC(), Err: err})
		return err
	}
	e.emit(Event{Type: EventSyncOK, Source: s.Source(), Window: w, At: time.Now().UTC()})
	return nil
}

func (e *Engine) emit(evt Event) {
	if e.onEvent == nil {
		return
	}
	e.onEvent(evt)
}

func validateWindow(w Window) error {
	if _, err := calendar.ParseDateKey(string(w.From)); err != nil {
		return fmt.Errorf("window start: %w", err)
	}
	if _, err := calendar.ParseDateKey(string(w.To)); err != nil {
		return fmt.Errorf("window end: %w", err)
	}
	if w.To.Before(w.From) {
		return fmt.Errorf("window %s ends before it starts", w)
	}
	return nil
}
