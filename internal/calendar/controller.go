package calendar

import (
	"context"
	"strings"
	"sync"
	"time"

	appLog "github.com/lachiem1/cyclecal/internal/log"
)

type SourceName string

const (
	SourcePhases    SourceName = "phase forecasts"
	SourceEvents    SourceName = "cycle events"
	SourceSymptoms  SourceName = "symptom logs"
	SourceTraining  SourceName = "training logs"
	SourceReminders SourceName = "reminder events"
)

// SourceOrder is the fixed order sources are fetched and reported in.
var SourceOrder = []SourceName{SourcePhases, SourceEvents, SourceSymptoms, SourceTraining, SourceReminders}

type SourceError struct {
	Source SourceName
	Err    error
}

func (e SourceError) Error() string {
	return string(e.Source) + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// LoadError is the single notification raised when one or more sources fail
// to load. The remaining sources still render.
type LoadError struct {
	Failures []SourceError
}

func (e *LoadError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, string(f.Source))
	}
	return "couldn't load calendar data (" + strings.Join(names, ", ") + ")"
}

func (e *LoadError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

func (e *LoadError) Failed(source SourceName) bool {
	for _, f := range e.Failures {
		if f.Source == source {
			return true
		}
	}
	return false
}

// LoadRequest is a fetch for one visible range. Generation identifies the
// state it was issued for; results from older generations are discarded.
type LoadRequest struct {
	Generation uint64
	UserID     string
	From       DateKey
	To         DateKey
}

type LoadResult struct {
	Request LoadRequest
	Sources Sources
	// Err is nil or a *LoadError.
	Err error
}

type Options struct {
	UserID      string
	Location    *time.Location
	Granularity Granularity
	Layout      Layout
	WeekStart   time.Weekday
	Now         func() time.Time
	// OnLoadError is called once per applied result that had failures.
	OnLoadError func(error)
}

// Snapshot is a consistent read of the controller for rendering.
type Snapshot struct {
	Today         DateKey
	Granularity   Granularity
	Layout        Layout
	Anchor        DateKey
	Selected      DateKey
	From          DateKey
	To            DateKey
	WeekIndex     int
	CarouselIndex int
	Days          []DayViewModel
	Weeks         [][]DayViewModel
	Loading       bool
	Err           error
	Generation    uint64
}

// Controller owns a ViewState and the loaded data behind it. Transitions
// return a LoadRequest when the visible range changed; the host runs Load
// off its event loop and hands the result back to Apply.
type Controller struct {
	store       RecordStore
	userID      string
	loc         *time.Location
	now         func() time.Time
	onLoadError func(error)

	mu         sync.Mutex
	state      *ViewState
	today      DateKey
	generation uint64
	loading    bool
	index      *DayIndex
	days       []DayViewModel
	loadErr    error
}

func NewController(store RecordStore, opts Options) *Controller {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		store:       store,
		userID:      opts.UserID,
		loc:         loc,
		now:         now,
		onLoadError: opts.OnLoadError,
	}
	c.today = Today(now(), loc)
	c.state = NewViewState(c.today, opts.Granularity, opts.Layout, opts.WeekStart)
	c.rebuildLocked()
	return c
}

func (c *Controller) Location() *time.Location {
	return c.loc
}

// Today is the viewer's local date per the controller's clock.
func (c *Controller) Today() DateKey {
	return Today(c.now(), c.loc)
}

// RefreshToday re-reads the clock and rebuilds the day models if the local
// date rolled over. It reports whether it did.
func (c *Controller) RefreshToday() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	today := Today(c.now(), c.loc)
	if today == c.today {
		return false
	}
	c.today = today
	c.rebuildLocked()
	return true
}

// Reload issues a request for the current range without changing state.
func (c *Controller) Reload() LoadRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextRequestLocked()
}

func (c *Controller) Navigate(dir Direction) LoadRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Navigate(dir, c.todayLocked())
	c.rebuildLocked()
	return c.nextRequestLocked()
}

// SelectDate returns a request only when the selection left the visible range.
func (c *Controller) SelectDate(date DateKey) (LoadRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.state.SelectDate(date, c.todayLocked())
	c.rebuildLocked()
	if !changed {
		return LoadRequest{}, false
	}
	return c.nextRequestLocked(), true
}

func (c *Controller) JumpToToday() (LoadRequest, bool) {
	return c.SelectDate(c.Today())
}

// MoveSelection moves the selection by days, crossing ranges as needed.
func (c *Controller) MoveSelection(days int) (LoadRequest, bool) {
	c.mu.Lock()
	target := c.state.Selected().AddDays(days)
	c.mu.Unlock()
	return c.SelectDate(target)
}

func (c *Controller) CarouselScrolled(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.CarouselScrolled(i) {
		return false
	}
	c.rebuildLocked()
	return true
}

func (c *Controller) SetGranularity(g Granularity) (LoadRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.SetGranularity(g) {
		return LoadRequest{}, false
	}
	c.rebuildLocked()
	return c.nextRequestLocked(), true
}

func (c *Controller) SelectWeek(i int) (LoadRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.state.SelectWeek(i, c.todayLocked())
	c.rebuildLocked()
	if !changed {
		return LoadRequest{}, false
	}
	return c.nextRequestLocked(), true
}

func (c *Controller) SetLayout(l Layout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetLayout(l)
}

func (c *Controller) TakePendingScroll() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.TakePendingScroll()
}

// Load fetches all five sources for req concurrently and waits for every one
// to settle. A failing source leaves its slice empty and is reported in the
// result's LoadError; the others are still returned. Load does not touch
// controller state.
func (c *Controller) Load(ctx context.Context, req LoadRequest) LoadResult {
	res := LoadResult{Request: req}
	errs := make([]error, len(SourceOrder))

	var wg sync.WaitGroup
	run := func(slot int, fetch func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[slot] = fetch()
		}()
	}

	run(0, func() (err error) {
		res.Sources.Phases, err = c.store.PhaseForecasts(ctx, req.UserID, req.From, req.To)
		return err
	})
	run(1, func() (err error) {
		res.Sources.Events, err = c.store.CycleEvents(ctx, req.UserID, req.From, req.To)
		return err
	})
	run(2, func() (err error) {
		res.Sources.Symptoms, err = c.store.SymptomLogs(ctx, req.UserID, req.From, req.To)
		return err
	})
	run(3, func() (err error) {
		res.Sources.Training, err = c.store.TrainingLogs(ctx, req.UserID, req.From, req.To)
		return err
	})
	run(4, func() (err error) {
		res.Sources.Reminders, err = c.store.ReminderEvents(ctx, req.UserID, req.From, req.To, ReminderTaken)
		return err
	})
	wg.Wait()

	var failures []SourceError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, SourceError{Source: SourceOrder[i], Err: err})
		}
	}
	if len(failures) > 0 {
		res.Err = &LoadError{Failures: failures}
		appLog.Error("calendar load incomplete", res.Err, "from", req.From, "to", req.To, "generation", req.Generation)
	}
	return res
}

// Apply installs res if it belongs to the latest request and reports whether
// it did. Results from superseded requests are dropped.
func (c *Controller) Apply(res LoadResult) bool {
	c.mu.Lock()
	if res.Request.Generation != c.generation {
		c.mu.Unlock()
		appLog.Debug("dropping stale calendar load", "generation", res.Request.Generation, "current", c.generation)
		return false
	}
	c.loading = false
	c.index = IndexSources(res.Sources, c.loc)
	c.loadErr = res.Err
	c.rebuildLocked()
	notify := c.onLoadError
	c.mu.Unlock()

	if res.Err != nil && notify != nil {
		notify(res.Err)
	}
	return true
}

// Refresh reloads the current range synchronously.
func (c *Controller) Refresh(ctx context.Context) error {
	req := c.Reload()
	res := c.Load(ctx, req)
	c.Apply(res)
	return res.Err
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, to := c.state.Range()
	grid := c.state.Weeks()
	weeks := make([][]DayViewModel, len(grid))
	for i, week := range grid {
		weeks[i] = BuildDayViewModels(week, c.today, c.state.Selected(), c.index)
	}
	return Snapshot{
		Today:         c.today,
		Granularity:   c.state.Granularity(),
		Layout:        c.state.Layout(),
		Anchor:        c.state.Anchor(),
		Selected:      c.state.Selected(),
		From:          from,
		To:            to,
		WeekIndex:     c.state.WeekIndex(),
		CarouselIndex: c.state.CarouselIndex(),
		Days:          c.days,
		Weeks:         weeks,
		Loading:       c.loading,
		Err:           c.loadErr,
		Generation:    c.generation,
	}
}

func (c *Controller) todayLocked() DateKey {
	c.today = Today(c.now(), c.loc)
	return c.today
}

// nextRequestLocked starts a new generation. The previous load error
// described the superseded request, so it is cleared here.
func (c *Controller) nextRequestLocked() LoadRequest {
	c.generation++
	c.loading = true
	c.loadErr = nil
	from, to := c.state.Range()
	return LoadRequest{Generation: c.generation, UserID: c.userID, From: from, To: to}
}

// rebuildLocked replaces the visible day models. The old slice is never
// written to, so earlier snapshots stay valid.
func (c *Controller) rebuildLocked() {
	c.days = BuildDayViewModels(c.state.Days(), c.today, c.state.Selected(), c.index)
}
