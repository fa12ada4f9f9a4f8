package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/cache"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/config"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/geoip"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/handler"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/logging"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/scheduler"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/session"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Dismine SMP - Whitelist Application Server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_DB_PATH           SQLite database path (default: ./data/dismine.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_OWNER_EMAIL       Bootstrap owner account email (default: owner@dismine.com)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_OWNER_PASSWORD    Bootstrap owner account password\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DISMINE_GEOIP_DB_PATH     GeoLite2-Country.mmdb path (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("dismine %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Publish build-time injected values
	version.Version = appVersion
	version.GitCommit = appGitCommit
	version.BuildTime = appBuildTime

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	queries := store.New(db)

	// Seed demo data if demo mode is enabled
	if cfg.DoSeed {
		if err := queries.SeedDemoData(ctx); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		slog.Info("demo data seeded")
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize cache
	appCache := cache.New(cfg)
	defer func() {
		if err := appCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	// Initialize GeoIP lookup when a database is configured
	var geo *geoip.Lookup
	if cfg.GeoIPEnabled() {
		geo = geoip.NewLookup()
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip disabled", "path", cfg.GeoIPDBPath, "error", err)
			geo = nil
		} else {
			defer func() {
				if err := geo.Close(); err != nil {
					slog.Error("error closing geoip database", "error", err)
				}
			}()
			slog.Info("geoip lookup enabled", "path", cfg.GeoIPDBPath)
		}
	}

	// Wire services
	events := service.NewEventService(db)
	accounts := service.NewAccountService(db, events, cfg.OwnerEmail, cfg.OwnerPassword)
	applications := service.NewApplicationService(db, events)
	intake := service.NewIntakeService(db, events)
	content := service.NewContentService(db, appCache, events)

	// Create the owner account up front so the instance is usable
	// before the first sign-in attempt.
	if err := accounts.EnsureOwner(ctx); err != nil {
		return fmt.Errorf("ensuring owner account: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	h := handler.New(handler.Deps{
		DB:              db,
		SessionManager:  sessionManager,
		Accounts:        accounts,
		Applications:    applications,
		Intake:          intake,
		Content:         content,
		Events:          events,
		LoginProtection: loginProtection,
		Geo:             geo,
	})

	routes := h.Routes(handler.RouterConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		SessionSecret:     []byte(cfg.SessionSecret),
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	// Start background jobs
	sched := scheduler.New(intake, events, geo, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           routes,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("server starting",
			"addr", cfg.ServerAddr(),
			"env", cfg.Env,
			"version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
