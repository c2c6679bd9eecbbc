package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/empirica-legal/expediente-tracker/internal/cache"
	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/checker"
	"github.com/empirica-legal/expediente-tracker/internal/config"
	"github.com/empirica-legal/expediente-tracker/internal/courts"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/fetch"
	"github.com/empirica-legal/expediente-tracker/internal/reconcile"
	"github.com/empirica-legal/expediente-tracker/internal/scheduler"
	"github.com/empirica-legal/expediente-tracker/internal/server"
	"github.com/empirica-legal/expediente-tracker/pkg/logger"
)

func main() {
	var migrate bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	if migrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
		log.Info("Database migrations completed successfully")
		return
	}

	store := database.NewStore(db)
	catalog := courts.NewCatalog()

	// Static rule parts are validated once at startup; the snapshot handed
	// to each cycle re-reads the user-configured exception dates.
	recesses, err := calendar.ParseRecessSpec(cfg.RecessIntervals)
	if err != nil {
		log.Fatal("Invalid recess configuration", "error", err)
	}
	holidays := calendar.MexicanStatutoryHolidays()
	if cfg.FixedHolidays != "" {
		holidays, err = calendar.ParseHolidaySpec(cfg.FixedHolidays)
		if err != nil {
			log.Fatal("Invalid holiday configuration", "error", err)
		}
	}
	if _, err := calendar.NewClassifier(holidays, recesses, nil, cfg.MaxLookaheadDays); err != nil {
		log.Fatal("Invalid calendar configuration", "error", err)
	}
	classifierFn := func() (*calendar.Classifier, error) {
		return checker.LoadCalendar(store, holidays, recesses, cfg.MaxLookaheadDays)
	}

	var sources []fetch.Source
	var shutdown []func() error
	if cfg.EnableDirect {
		sources = append(sources, fetch.NewDirectSource(cfg.SourceTimeout, cfg.UserAgent))
	}
	if cfg.EnableProxy && cfg.ProxyURL != "" {
		sources = append(sources, fetch.NewProxySource(cfg.ProxyURL, cfg.SourceTimeout, cfg.UserAgent))
	}
	if cfg.EnableBrowser {
		browserSource, err := fetch.NewBrowserSource(fetch.BrowserOptions{
			Headless:    cfg.HeadlessMode,
			UserAgent:   cfg.UserAgent,
			BrowserPath: cfg.BrowserPath,
			Devtools:    cfg.LogLevel == "debug",
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize browser source", "error", err)
		}
		sources = append(sources, browserSource)
		shutdown = append(shutdown, browserSource.Close)
	}

	merger := reconcile.NewMerger(cfg.PartyPrefixLen)
	chk := checker.New(store, catalog, classifierFn, cfg.PartyPrefixLen, merger, sources,
		cfg.CourtBaseURL, cfg.SourceTimeout, log)

	cacheService := cache.NewCache(cfg.CacheSize, cfg.CacheTTL)

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(chk, store, classifierFn, cfg.CheckCronSpec, cfg.MaxConcurrentChecks, log)
	}

	srv := server.New(cfg, store, cacheService, chk, catalog, classifierFn, sched, log, shutdown...)

	log.Info("Starting expediente tracker",
		"host", cfg.Host,
		"port", cfg.Port,
		"court", cfg.CourtName,
		"sources", len(sources),
	)

	if err := srv.Run(); err != nil {
		log.Fatal("Server failed to start", "error", err)
	}
}
