package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/cyclecal/internal/auth"
	"github.com/lachiem1/cyclecal/internal/calendar"
	appLog "github.com/lachiem1/cyclecal/internal/log"
	"github.com/lachiem1/cyclecal/internal/storage"
	"github.com/lachiem1/cyclecal/internal/syncer"
)

type connectionState int

const (
	stateChecking connectionState = iota
	stateConnected
	stateDisconnected
)

type loadResultMsg struct {
	res calendar.LoadResult
}

type connectMsg struct {
	svc *syncer.Service
	err error
}

type saveTokenMsg struct {
	err error
}

type deleteTokenMsg struct {
	err error
}

type savePrefsMsg struct {
	err error
}

type syncEventMsg struct {
	evt syncer.Event
}

type clearCommandTextMsg struct {
	id int
}

// DayChangedMsg tells the calendar the local date may have rolled over.
type DayChangedMsg struct{}

// SyncEvent wraps a background sync event for delivery through Program.Send.
func SyncEvent(evt syncer.Event) tea.Msg {
	return syncEventMsg{evt: evt}
}

type commandSpec struct {
	name        string
	description string
}

type authDialogMode int

const (
	authDialogNone authDialogMode = iota
	authDialogConnect
	authDialogDisconnect
)

// ConnectFunc verifies token against the record API and returns a sync
// service bound to the local cache. The service is not started yet.
type ConnectFunc func(ctx context.Context, token string) (*syncer.Service, error)

type Options struct {
	Controller *calendar.Controller
	// Prefs persists granularity and layout; nil disables persistence.
	Prefs   *storage.AppConfigRepo
	Connect ConnectFunc
}

type model struct {
	controller *calendar.Controller
	prefs      *storage.AppConfigRepo
	connect    ConnectFunc
	sync       *syncer.Service

	width  int
	height int

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	cmd     textinput.Model
	token   textinput.Model

	status        connectionState
	statusDetail  string
	syncStatus    string
	syncing       bool
	commandText   string
	commandTextID int
	commandActive bool

	commandSuggestions     []commandSpec
	commandSuggestionIndex int

	carouselOffset int

	showHelpOverlay bool
	authDialog      authDialogMode
	connectHint     string
	quitting        bool
}

func New(opts Options) tea.Model {
	return newModel(opts)
}

func newModel(opts Options) model {
	cmd := textinput.New()
	cmd.Prompt = "> "
	cmd.Placeholder = "/help"
	cmd.Width = 48

	token := textinput.New()
	token.Prompt = "token: "
	token.Placeholder = "paste API token"
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60"))

	return model{
		controller:   opts.Controller,
		prefs:        opts.Prefs,
		connect:      opts.Connect,
		keys:         defaultKeyMap(),
		help:         help.New(),
		spinner:      sp,
		cmd:          cmd,
		token:        token,
		status:       stateChecking,
		statusDetail: "checking",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadCmd(m.controller.Reload()),
		m.connectCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.cmd.Width = max(24, msg.Width-24)
		m.token.Width = max(24, msg.Width-40)
		m.followCarousel(m.controller.Snapshot().CarouselIndex)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadResultMsg:
		m.controller.Apply(msg.res)
		return m, nil

	case DayChangedMsg:
		if m.controller.RefreshToday() {
			appLog.Info("local date changed", "today", m.controller.Today().String())
		}
		return m, nil

	case connectMsg:
		return m.handleConnect(msg)

	case syncEventMsg:
		return m.handleSyncEvent(msg.evt)

	case saveTokenMsg:
		m.closeAuthDialog()
		if msg.err != nil {
			return m.withCommandFeedback("failed to save token: " + msg.err.Error())
		}
		m.status = stateChecking
		m.statusDetail = "checking"
		next, cmd := m.withCommandFeedback("token saved to keychain.")
		return next, tea.Batch(cmd, next.(model).connectCmd())

	case deleteTokenMsg:
		m.closeAuthDialog()
		if msg.err != nil {
			return m.withCommandFeedback("failed to remove token: " + msg.err.Error())
		}
		leave := m.stopSync()
		m.status = stateDisconnected
		m.statusDetail = "not connected"
		m.syncStatus = ""
		next, cmd := m.withCommandFeedback("token removed from keychain.")
		return next, tea.Batch(cmd, leave)

	case savePrefsMsg:
		if msg.err != nil {
			appLog.Error("failed to save calendar prefs", msg.err)
		}
		return m, nil

	case clearCommandTextMsg:
		if msg.id == m.commandTextID {
			m.commandText = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelpOverlay {
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.Help):
			m.showHelpOverlay = false
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	if m.authDialog != authDialogNone {
		switch msg.String() {
		case "esc":
			m.closeAuthDialog()
			return m, nil
		case "enter":
			if m.authDialog == authDialogConnect {
				return m, saveTokenCmd(strings.TrimSpace(m.token.Value()))
			}
			return m, deleteTokenCmd
		}
		if m.authDialog == authDialogDisconnect {
			return m, nil
		}
		var cmd tea.Cmd
		m.token, cmd = m.token.Update(msg)
		return m, cmd
	}

	if m.commandActive {
		return m.handleCommandKey(msg)
	}

	snap := m.controller.Snapshot()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelpOverlay = true
		return m, nil
	case key.Matches(msg, m.keys.Command):
		m.commandActive = true
		m.cmd.SetValue("/")
		m.cmd.CursorEnd()
		m.refreshCommandSuggestions()
		return m, m.cmd.Focus()
	case key.Matches(msg, m.keys.Prev):
		return m.afterRequest(m.controller.Navigate(calendar.Backward))
	case key.Matches(msg, m.keys.Next):
		return m.afterRequest(m.controller.Navigate(calendar.Forward))
	case key.Matches(msg, m.keys.Left):
		return m.afterMove(m.controller.MoveSelection(-1))
	case key.Matches(msg, m.keys.Right):
		return m.afterMove(m.controller.MoveSelection(1))
	case key.Matches(msg, m.keys.Up):
		return m.afterMove(m.controller.MoveSelection(-7))
	case key.Matches(msg, m.keys.Down):
		return m.afterMove(m.controller.MoveSelection(7))
	case key.Matches(msg, m.keys.CarouselL):
		return m.scrollCarousel(snap.CarouselIndex - 1)
	case key.Matches(msg, m.keys.CarouselR):
		return m.scrollCarousel(snap.CarouselIndex + 1)
	case key.Matches(msg, m.keys.WeekPrev):
		return m.afterMove(m.controller.SelectWeek(snap.WeekIndex - 1))
	case key.Matches(msg, m.keys.WeekNext):
		return m.afterMove(m.controller.SelectWeek(snap.WeekIndex + 1))
	case key.Matches(msg, m.keys.Granularity):
		return m.setGranularity(snap.Granularity.Next())
	case key.Matches(msg, m.keys.Layout):
		next := calendar.LayoutCompact
		if snap.Layout == calendar.LayoutCompact {
			next = calendar.LayoutWide
		}
		return m.setLayout(next)
	case key.Matches(msg, m.keys.Today):
		return m.afterMove(m.controller.JumpToToday())
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	}
	return m, nil
}

func (m model) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.closeCommand()
		return m, nil
	case "tab", "down":
		if len(m.commandSuggestions) > 0 {
			m.commandSuggestionIndex = (m.commandSuggestionIndex + 1) % len(m.commandSuggestions)
		}
		return m, nil
	case "shift+tab", "up":
		if n := len(m.commandSuggestions); n > 0 {
			m.commandSuggestionIndex = (m.commandSuggestionIndex - 1 + n) % n
		}
		return m, nil
	case "enter":
		input := strings.ToLower(strings.TrimSpace(m.cmd.Value()))
		if len(m.commandSuggestions) > 0 && !isCommand(input) {
			input = m.commandSuggestions[m.commandSuggestionIndex].name
		}
		m.closeCommand()
		return m.runSlashCommand(input)
	}

	var cmd tea.Cmd
	m.cmd, cmd = m.cmd.Update(msg)
	if strings.TrimSpace(m.cmd.Value()) == "" {
		m.closeCommand()
		return m, nil
	}
	m.refreshCommandSuggestions()
	return m, cmd
}

func (m model) runSlashCommand(input string) (tea.Model, tea.Cmd) {
	switch input {
	case "", "/":
		return m, nil
	case "/help":
		m.showHelpOverlay = true
		return m, nil
	case "/quit":
		return m.quit()
	case "/today":
		return m.afterMove(m.controller.JumpToToday())
	case "/refresh":
		return m.refresh()
	case "/month":
		return m.setGranularity(calendar.Month)
	case "/week":
		return m.setGranularity(calendar.Week)
	case "/two-week":
		return m.setGranularity(calendar.TwoWeek)
	case "/wide":
		return m.setLayout(calendar.LayoutWide)
	case "/compact":
		return m.setLayout(calendar.LayoutCompact)
	case "/ping":
		m.status = stateChecking
		m.statusDetail = "checking"
		next, cmd := m.withCommandFeedback("checking connection...")
		return next, tea.Batch(cmd, next.(model).connectCmd())
	case "/disconnect":
		m.authDialog = authDialogDisconnect
		m.token.SetValue("")
		m.token.Blur()
		return m, nil
	case "/connect":
		m.connectHint = "Enter your API token to save it to keychain."
		if m.status == stateConnected {
			m.connectHint = "A token is already saved. Enter a new one to replace it."
		}
		m.authDialog = authDialogConnect
		m.token.SetValue("")
		return m, m.token.Focus()
	default:
		return m.withCommandFeedback(fmt.Sprintf("Unknown command: %s", input))
	}
}

func commandCatalog() []commandSpec {
	return []commandSpec{
		{name: "/help", description: "show key and command help"},
		{name: "/today", description: "jump to today"},
		{name: "/refresh", description: "reload and sync the visible range"},
		{name: "/month", description: "show a month"},
		{name: "/week", description: "show a week"},
		{name: "/two-week", description: "show two weeks"},
		{name: "/wide", description: "month grid layout"},
		{name: "/compact", description: "week strip and day carousel layout"},
		{name: "/ping", description: "check record API connectivity"},
		{name: "/connect", description: "save an API token to keychain"},
		{name: "/disconnect", description: "remove the saved API token"},
		{name: "/quit", description: "exit cyclecal"},
	}
}

func isCommand(input string) bool {
	for _, c := range commandCatalog() {
		if c.name == input {
			return true
		}
	}
	return false
}

func (m *model) refreshCommandSuggestions() {
	prefix := strings.ToLower(strings.TrimSpace(m.cmd.Value()))
	if !strings.HasPrefix(prefix, "/") {
		m.commandSuggestions = nil
		m.commandSuggestionIndex = 0
		return
	}

	all := commandCatalog()
	matches := make([]commandSpec, 0, len(all))
	for _, c := range all {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	m.commandSuggestions = matches
	if m.commandSuggestionIndex >= len(matches) {
		m.commandSuggestionIndex = max(0, len(matches)-1)
	}
}

func (m *model) closeCommand() {
	m.commandActive = false
	m.cmd.SetValue("")
	m.cmd.Blur()
	m.commandSuggestions = nil
	m.commandSuggestionIndex = 0
}

func (m *model) closeAuthDialog() {
	m.authDialog = authDialogNone
	m.token.SetValue("")
	m.token.Blur()
}

func (m model) withCommandFeedback(text string) (tea.Model, tea.Cmd) {
	m.commandText = text
	m.commandTextID++
	id := m.commandTextID
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearCommandTextMsg{id: id}
	})
}

// afterRequest starts loading a new range and points the sync window at it.
func (m model) afterRequest(req calendar.LoadRequest) (tea.Model, tea.Cmd) {
	m.followPendingScroll()
	if m.sync != nil {
		if err := m.sync.SetWindow(req.From, req.To); err != nil {
			appLog.Error("failed to move sync window", err, "from", req.From.String(), "to", req.To.String())
		}
	}
	return m, m.loadCmd(req)
}

func (m model) afterMove(req calendar.LoadRequest, reload bool) (tea.Model, tea.Cmd) {
	if reload {
		return m.afterRequest(req)
	}
	m.followPendingScroll()
	return m, nil
}

func (m model) setGranularity(g calendar.Granularity) (tea.Model, tea.Cmd) {
	req, changed := m.controller.SetGranularity(g)
	if !changed {
		return m, nil
	}
	next, load := m.afterRequest(req)
	return next, tea.Batch(load, next.(model).savePrefsCmd())
}

func (m model) setLayout(l calendar.Layout) (tea.Model, tea.Cmd) {
	if m.controller.Snapshot().Layout == l {
		return m, nil
	}
	m.controller.SetLayout(l)
	m.followPendingScroll()
	return m, m.savePrefsCmd()
}

func (m model) refresh() (tea.Model, tea.Cmd) {
	if m.sync != nil {
		if err := m.sync.Refresh(); err != nil {
			appLog.Error("manual sync refresh failed", err)
		}
	}
	return m, m.loadCmd(m.controller.Reload())
}

func (m model) scrollCarousel(i int) (tea.Model, tea.Cmd) {
	if m.controller.Snapshot().Layout != calendar.LayoutCompact {
		return m, nil
	}
	if m.controller.CarouselScrolled(i) {
		m.followCarousel(i)
	}
	return m, nil
}

// followPendingScroll applies a programmatic carousel scroll, if one is due.
func (m *model) followPendingScroll() {
	if i, ok := m.controller.TakePendingScroll(); ok {
		m.followCarousel(i)
	}
}

// followCarousel moves the carousel viewport just enough to show card i.
func (m *model) followCarousel(i int) {
	visible := m.carouselVisible()
	if i < m.carouselOffset {
		m.carouselOffset = i
	}
	if i >= m.carouselOffset+visible {
		m.carouselOffset = i - visible + 1
	}
	total := len(m.controller.Snapshot().Days)
	m.carouselOffset = max(0, min(m.carouselOffset, total-visible))
}

func (m model) carouselVisible() int {
	if m.width <= 0 {
		return 5
	}
	return max(1, min(7, (m.width-8)/carouselCardWidth))
}

func (m model) handleConnect(msg connectMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = stateDisconnected
		m.statusDetail = "not connected"
		if !errors.Is(msg.err, auth.ErrNoToken) {
			m.statusDetail = "offline"
			appLog.Error("record API connection failed", msg.err)
		}
		return m, nil
	}

	leave := m.stopSync()
	m.sync = msg.svc
	m.status = stateConnected
	m.statusDetail = "connected"

	snap := m.controller.Snapshot()
	if err := m.sync.EnterCalendarView(context.Background(), snap.From, snap.To); err != nil {
		appLog.Error("failed to start calendar sync", err)
		m.syncStatus = "sync unavailable"
	}
	return m, leave
}

func (m model) handleSyncEvent(evt syncer.Event) (tea.Model, tea.Cmd) {
	switch evt.Type {
	case syncer.EventSyncStarted:
		m.syncing = true
		return m, nil
	case syncer.EventSyncFailed:
		if evt.Err != nil {
			appLog.Error("source sync failed", evt.Err, "source", evt.Source, "window", evt.Window.String())
		}
		return m, nil
	case syncer.EventSyncDone:
		m.syncing = false
		if len(evt.Failed) > 0 {
			m.syncStatus = fmt.Sprintf("sync failed: %s", strings.Join(evt.Failed, ", "))
			if evt.RetryIn > 0 {
				m.syncStatus += fmt.Sprintf(" (retry in %s)", evt.RetryIn)
			}
		} else {
			m.syncStatus = "synced " + evt.At.In(m.controller.Location()).Format("15:04")
		}
		snap := m.controller.Snapshot()
		if evt.Window.From.After(snap.To) || evt.Window.To.Before(snap.From) {
			return m, nil
		}
		return m, m.loadCmd(m.controller.Reload())
	}
	return m, nil
}

// stopSync detaches the current sync service and returns a command that
// stops it off the event loop.
func (m *model) stopSync() tea.Cmd {
	old := m.sync
	m.sync = nil
	if old == nil {
		return nil
	}
	return func() tea.Msg {
		old.LeaveView()
		return nil
	}
}

// quit stops sync before exiting. LeaveView waits for in-flight sources,
// which still deliver events through Program.Send, so it must not block
// Update.
func (m model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Sequence(m.stopSync(), tea.Quit)
}

func (m model) loadCmd(req calendar.LoadRequest) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return loadResultMsg{res: c.Load(context.Background(), req)}
	}
}

func (m model) connectCmd() tea.Cmd {
	connect := m.connect
	if connect == nil {
		return nil
	}
	return func() tea.Msg {
		token, err := auth.LoadToken()
		if err != nil {
			return connectMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		svc, err := connect(ctx, token)
		return connectMsg{svc: svc, err: err}
	}
}

func (m model) savePrefsCmd() tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	repo := m.prefs
	snap := m.controller.Snapshot()
	prefs := storage.CalendarPrefs{Granularity: snap.Granularity, Layout: snap.Layout}
	return func() tea.Msg {
		return savePrefsMsg{err: repo.SaveCalendarPrefs(context.Background(), prefs)}
	}
}

func saveTokenCmd(token string) tea.Cmd {
	return func() tea.Msg {
		return saveTokenMsg{err: auth.SaveToken(token)}
	}
}

func deleteTokenCmd() tea.Msg {
	return deleteTokenMsg{err: auth.DeleteToken()}
}
