// cmd/server/main.go
// This is the entry point for the golf tournaments API server.
// The "cmd/server" directory follows a common Go convention: the cmd/ folder holds executable
// binaries, and internal/ holds packages that are not meant to be imported by other projects.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	// fiber is a fast HTTP web framework inspired by Express.js
	"github.com/gofiber/fiber/v2"
	// cors handles Cross-Origin Resource Sharing so the web app can call the API from
	// another origin
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration)
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trentd187/golf-tournaments/internal/advisor"
	"github.com/trentd187/golf-tournaments/internal/changefeed"
	"github.com/trentd187/golf-tournaments/internal/changefeed/pgnotify"
	"github.com/trentd187/golf-tournaments/internal/changefeed/realtime"
	"github.com/trentd187/golf-tournaments/internal/config"
	"github.com/trentd187/golf-tournaments/internal/database"
	"github.com/trentd187/golf-tournaments/internal/handlers"
	"github.com/trentd187/golf-tournaments/internal/metrics"
	"github.com/trentd187/golf-tournaments/internal/poller"
	"github.com/trentd187/golf-tournaments/internal/store"
)

func main() {
	// Load configuration from environment variables (and optionally .env / CONFIG_FILE).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	logger := cfg.NewLogger()

	// ctx is cancelled on Ctrl-C or SIGTERM, which starts the graceful shutdown below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", "err", err)
	}

	// Run any pending SQL migrations so the schema always matches the code.
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		logger.Fatal("failed to run migrations", "err", err)
	}

	st := store.New(db)
	reg := prometheus.NewRegistry()
	m := metrics.NewService(reg)

	// The broker fans score changes out to open leaderboards. It is started in its own
	// goroutine and stops when ctx is cancelled.
	broker := changefeed.NewBroker(changefeed.WithBrokerLogger(logger.WithPrefix("changefeed")))
	go broker.Run(ctx)

	// Where changes come from depends on the feed driver. With "broker" the API reports
	// its own writes; the other drivers follow the database, which also sees writes made
	// by other instances or tools.
	var publisher handlers.Publisher
	switch cfg.FeedDriver {
	case config.FeedBroker:
		publisher = broker
	case config.FeedPostgres:
		l := pgnotify.New(cfg.DatabaseURL, broker, pgnotify.WithLogger(logger.WithPrefix("pgnotify")))
		go func() {
			if err := l.Run(ctx); err != nil {
				logger.Error("postgres listener stopped", "err", err)
			}
		}()
	case config.FeedRealtime:
		rc := realtime.New(cfg.RealtimeURL, cfg.RealtimeAPIKey, broker, realtime.WithLogger(logger.WithPrefix("realtime")))
		go func() {
			if err := rc.Run(ctx); err != nil {
				logger.Error("realtime client stopped", "err", err)
			}
		}()
	}

	// Sessions whose change feed is down fall back to polling on this scheduler.
	poll, err := poller.New(cfg.FallbackPollInterval, logger.WithPrefix("poller"))
	if err != nil {
		logger.Fatal("failed to start poller", "err", err)
	}

	adv := advisor.New(st, advisor.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}, logger.WithPrefix("advisor"))

	app := fiber.New(fiber.Config{
		AppName:      "Golf Tournaments API",
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Global middleware ---
	app.Use(fiberlogger.New())
	// cors.New() allows requests from any origin. In production, lock this down to your domain.
	app.Use(cors.New())

	handlers.Register(app, handlers.Deps{
		Config:  cfg,
		Store:   st,
		Advisor: adv,
		Live: handlers.Live{
			Feed:      broker,
			Refresher: poll,
			Metrics:   m,
			Logger:    logger.WithPrefix("leaderboard"),
			Retries:   cfg.FetchRetries,
			RetryBase: cfg.FetchRetryBase,
		},
		Publisher: publisher,
		Gatherer:  reg,
		Logger:    logger,
	})

	go func() {
		logger.Info("starting server", "port", cfg.Port, "feed", cfg.FeedDriver, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	if err := poll.Shutdown(); err != nil {
		logger.Error("poller shutdown", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
