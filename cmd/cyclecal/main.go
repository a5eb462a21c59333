package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"golang.org/x/term"

	"github.com/lachiem1/cyclecal/internal/auth"
	"github.com/lachiem1/cyclecal/internal/calendar"
	"github.com/lachiem1/cyclecal/internal/config"
	appLog "github.com/lachiem1/cyclecal/internal/log"
	"github.com/lachiem1/cyclecal/internal/storage"
	"github.com/lachiem1/cyclecal/internal/syncer"
	"github.com/lachiem1/cyclecal/internal/tui"
	"github.com/lachiem1/cyclecal/internal/wellapi"
)

const usage = `usage:
  cyclecal              open the calendar
  cyclecal auth set     save an API token to the system credential store
  cyclecal auth delete  remove the saved API token
  cyclecal db wipe      delete the local cache`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "cyclecal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	switch strings.Join(args, " ") {
	case "":
		return runCalendar()
	case "auth set":
		if err := runAuthSet(); err != nil {
			return fmt.Errorf("auth set: %w", err)
		}
		fmt.Println("API token saved to your system credential store.")
		return nil
	case "auth delete":
		if err := auth.DeleteToken(); err != nil {
			return fmt.Errorf("auth delete: %w", err)
		}
		fmt.Println("API token removed.")
		return nil
	case "db wipe":
		cfg, err := storage.Wipe()
		if err != nil {
			return err
		}
		fmt.Printf("Local cache removed: %s\n", cfg.Path)
		return nil
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", strings.Join(args, " "), usage)
	}
}

func runCalendar() error {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.UserID == "" {
		return fmt.Errorf("user_id is not set in %s", cfgPath)
	}

	logFile, err := os.OpenFile(filepath.Join(filepath.Dir(cfgPath), "cyclecal.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	appLog.SetOutput(logFile)
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	ctx := context.Background()
	db, dbCfg, err := storage.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	appLog.Info("opened local cache", "path", dbCfg.Path, "mode", string(dbCfg.Mode))

	loc := cfg.Location()
	prefsRepo := storage.NewAppConfigRepo(db)
	defaults := storage.CalendarPrefs{Granularity: cfg.Granularity(), Layout: cfg.CalendarLayout()}
	prefs, err := prefsRepo.LoadCalendarPrefs(ctx, defaults)
	if err != nil {
		appLog.Error("failed to load calendar prefs; using config defaults", err)
		prefs = defaults
	}

	controller := calendar.NewController(storage.NewRecordsRepo(db, loc), calendar.Options{
		UserID:      cfg.UserID,
		Location:    loc,
		Granularity: prefs.Granularity,
		Layout:      prefs.Layout,
		WeekStart:   cfg.WeekStartDay(),
		OnLoadError: func(err error) {
			appLog.Error("calendar load incomplete", err)
		},
	})

	// The program is assigned before Run starts, and sync events only
	// arrive after the TUI connects from inside Run.
	var program *tea.Program
	connect := func(ctx context.Context, token string) (*syncer.Service, error) {
		client := wellapi.NewWithBaseURL(token, cfg.APIBaseURL, loc)
		if err := client.Ping(ctx); err != nil {
			return nil, err
		}
		return syncer.NewCalendarService(db, client, syncer.ServiceOptions{
			UserID:       cfg.UserID,
			Location:     loc,
			StaleTTL:     cfg.StaleAfter(),
			PollInterval: cfg.PollInterval(),
			Backoff:      cfg.Backoff(),
			OnEvent: func(evt syncer.Event) {
				program.Send(tui.SyncEvent(evt))
			},
		})
	}

	program = tea.NewProgram(
		tui.New(tui.Options{
			Controller: controller,
			Prefs:      prefsRepo,
			Connect:    connect,
		}),
		tea.WithAltScreen(),
	)

	scheduler := cron.New(cron.WithLocation(loc))
	dayChanged := func() { program.Send(tui.DayChangedMsg{}) }
	// Midnight in the viewer's zone, plus a coarse check for wake-from-sleep.
	for _, schedule := range []string{"0 0 * * *", "@every 5m"} {
		if _, err := scheduler.AddFunc(schedule, dayChanged); err != nil {
			return fmt.Errorf("schedule day rollover %q: %w", schedule, err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	_, err = program.Run()
	return err
}

func runAuthSet() error {
	fmt.Print("Enter API token: ")
	token, err := readSecret()
	if err != nil {
		return err
	}
	fmt.Println()

	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}
	return auth.SaveToken(token)
}

func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(value), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}
