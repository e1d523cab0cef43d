package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"nofusscal/internal/caldate"
	"nofusscal/internal/calendar"
	"nofusscal/internal/config"
	"nofusscal/internal/ics"
	appLog "nofusscal/internal/log"
	"nofusscal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	file       string
	month      string
	day        string
	serve      bool
	listen     string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	// CLI flags override the config file when set.
	if flags.file != "" {
		conf.CalendarPath = flags.file
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Debug("effective config",
		"calendar_path", conf.CalendarPath,
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"week_start", conf.WeekStart,
		"subscriptions", len(conf.Subscriptions),
		"serve", flags.serve,
	)

	cal := calendar.New(conf.ProductID)
	if _, err := cal.LoadFile(conf.CalendarPath); err != nil {
		appLog.Error("failed to load calendar", err, "path", conf.CalendarPath)
		os.Exit(1)
	}

	if err := run(flags, conf, cal); err != nil {
		appLog.Error("nofusscal failed", err)
		os.Exit(1)
	}
}

func run(flags flagConfig, conf *config.Config, cal *calendar.Calendar) error {
	if flags.month == "" && flags.day == "" && !flags.serve {
		flags.month = caldate.Today().Format(caldate.ISO)[:7]
	}

	if flags.month != "" {
		year, month, err := parseYearMonth(flags.month)
		if err != nil {
			return err
		}
		entries, err := cal.Month(year, month)
		if err != nil {
			return err
		}
		printMonth(os.Stdout, conf, year, month, entries)
	}

	if flags.day != "" {
		d, err := caldate.ParseISO(flags.day)
		if err != nil {
			return err
		}
		events, err := cal.Day(d.Year(), d.Month(), d.Day())
		if err != nil {
			return err
		}
		printDay(os.Stdout, conf, d, events)
	}

	if flags.serve {
		return serve(conf, cal)
	}
	return nil
}

// serve runs the HTTP API with a cron-driven refresh until SIGINT/SIGTERM.
func serve(conf *config.Config, cal *calendar.Calendar) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	fetcher := ics.NewFetcher(conf.CacheDir, 0)
	sources := conf.Sources()
	// The local file is only read at startup; edits are saved as they happen.
	refresh := func(ctx context.Context) error {
		return cal.RefreshSubscriptions(ctx, fetcher, sources)
	}

	if err := refresh(ctx); err != nil {
		appLog.Error("initial refresh incomplete", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() {
		appLog.Debug("scheduled refresh")
		if err := refresh(ctx); err != nil {
			appLog.Error("scheduled refresh incomplete", err)
		}
	}); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", conf.RefreshCron, err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	appLog.Info("nofusscal serving", "listen", conf.Listen, "events", cal.Len(), "subscriptions", len(sources))
	return web.NewServer(conf, cal, refresh).Run(ctx)
}

func parseYearMonth(s string) (int, int, error) {
	d, err := caldate.ParseISO(s + "-01")
	if err != nil {
		return 0, 0, fmt.Errorf("-month %q, want YYYY-MM: %w", s, err)
	}
	return d.Year(), d.Month(), nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./nofusscal.yaml", "Path to config file")
	flag.StringVar(&cfg.file, "file", "", "Calendar file (overrides config if set)")
	flag.StringVar(&cfg.month, "month", "", "Print the events of a month, YYYY-MM")
	flag.StringVar(&cfg.day, "day", "", "Print the events of a day, YYYY-MM-DD")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve the HTTP API and refresh on schedule")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")

	flag.Parse()

	cfg.month = strings.TrimSpace(cfg.month)
	cfg.day = strings.TrimSpace(cfg.day)
	return cfg
}
