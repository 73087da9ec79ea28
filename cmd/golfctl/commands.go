package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/trentd187/golf-tournaments/internal/changefeed"
	"github.com/trentd187/golf-tournaments/internal/changefeed/pgnotify"
	"github.com/trentd187/golf-tournaments/internal/config"
	"github.com/trentd187/golf-tournaments/internal/database"
	"github.com/trentd187/golf-tournaments/internal/leaderboard"
	"github.com/trentd187/golf-tournaments/internal/models"
	"github.com/trentd187/golf-tournaments/internal/poller"
	"github.com/trentd187/golf-tournaments/internal/store"
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(grantRoleCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back SQL migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(cfg.DatabaseURL, migrationsFrom(cfg)); err != nil {
			return err
		}
		return printVersion(cmd, cfg)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(cfg.DatabaseURL, migrationsFrom(cfg)); err != nil {
			return err
		}
		return printVersion(cmd, cfg)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return printVersion(cmd, cfg)
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings <tournament>",
	Short: "Print the standings of a tournament (id or slug)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, logger, err := open()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		t, err := st.GetTournament(ctx, args[0])
		if err != nil {
			return err
		}
		rows, err := st.FetchScores(ctx, t.ID.String())
		if err != nil {
			return err
		}
		logger.Debug("scores loaded", "rows", len(rows))
		fmt.Fprintln(cmd.OutOrStdout(), renderSnapshot(leaderboard.Snapshot{
			TournamentID:   t.ID.String(),
			TournamentName: t.Name,
			State:          leaderboard.StateLive,
			Standings:      leaderboard.ComputeStandings(rows),
			Live:           true,
		}))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <tournament>",
	Short: "Follow the standings of a tournament live until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, logger, err := open()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		t, err := st.GetTournament(ctx, args[0])
		if err != nil {
			return err
		}

		// Outside the API server no writes go through a broker, so changes always come
		// from Postgres.
		broker := changefeed.NewBroker(changefeed.WithBrokerLogger(logger))
		go broker.Run(ctx)
		listener := pgnotify.New(cfg.DatabaseURL, broker, pgnotify.WithLogger(logger))
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Error("postgres listener stopped", "err", err)
			}
		}()

		poll, err := poller.New(cfg.FallbackPollInterval, logger)
		if err != nil {
			return err
		}
		defer poll.Shutdown()

		session := leaderboard.NewSession(t.ID.String(), st, broker,
			leaderboard.WithLogger(logger),
			leaderboard.WithRetry(cfg.FetchRetries, cfg.FetchRetryBase),
			leaderboard.WithRefresher(poll),
		)
		done := make(chan error, 1)
		go func() { done <- session.Run(ctx) }()

		out := cmd.OutOrStdout()
		for {
			select {
			case snap := <-session.Updates():
				if snap.State == leaderboard.StateIdle {
					continue
				}
				fmt.Fprint(out, "\033[H\033[2J")
				fmt.Fprintln(out, renderSnapshot(snap))
			case err := <-done:
				return err
			}
		}
	},
}

var grantRoleCmd = &cobra.Command{
	Use:   "grant-role <user-id> <admin|user>",
	Short: "Grant a global role to an auth user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		st, _, _, err := open()
		if err != nil {
			return err
		}
		if err := st.GrantRole(cmd.Context(), userID, models.AppRole(args[1])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", args[1], userID)
		return nil
	},
}

func migrationsFrom(cfg *config.Config) string {
	if migrationsDir != "" {
		return migrationsDir
	}
	return cfg.MigrationsDir
}

func printVersion(cmd *cobra.Command, cfg *config.Config) error {
	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL, migrationsFrom(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}

// open loads the configuration and connects to the database.
func open() (*store.Store, *config.Config, *log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cfg.NewLogger()
	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return store.New(db), cfg, logger, nil
}
