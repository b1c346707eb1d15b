// Command ingest is the Podium Data pipeline CLI.
//
// Usage:
//
//	podium-ingest run
//	podium-ingest backfill --athlete 3 --days 365
//	podium-ingest fetch --athlete 3 --days 7
//	podium-ingest baselines --athlete 3
//	podium-ingest roster sync
//	podium-ingest auth url
//	podium-ingest auth exchange --athlete 3 --code <code>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhigh13/podium-data/internal/auth"
	"github.com/jhigh13/podium-data/internal/baseline"
	"github.com/jhigh13/podium-data/internal/config"
	"github.com/jhigh13/podium-data/internal/db"
	"github.com/jhigh13/podium-data/internal/ingest"
	"github.com/jhigh13/podium-data/internal/provider/tp"
	"github.com/jhigh13/podium-data/internal/roster"
	"github.com/jhigh13/podium-data/internal/runner"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "podium-ingest",
		Short: "Podium Data pipeline CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(baselinesCmd())
	root.AddCommand(rosterCmd())
	root.AddCommand(authCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full daily pipeline once (ingest, baselines, evaluate, dispatch)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				deps := runner.NewDeps(pool.Pool, cfg, logger)
				result, err := runner.Run(ctx, deps, runner.OptionsFromConfig(cfg), logger)
				if err != nil {
					return err
				}
				logger.Info("Pipeline finished", "summary", result.Summary())
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// backfill / fetch commands
// --------------------------------------------------------------------------

func backfillCmd() *cobra.Command {
	var athleteID int64
	var days, chunk int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill historical metric records for one athlete",
		RunE: func(cmd *cobra.Command, args []string) error {
			if athleteID == 0 {
				return fmt.Errorf("--athlete is required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				ath, svc, err := athleteService(ctx, cfg, pool, athleteID)
				if err != nil {
					return err
				}
				start := time.Now()
				result, err := svc.Backfill(ctx, ath, days, chunk)
				if err != nil {
					return err
				}
				logger.Info("Backfill finished",
					"athlete_id", athleteID,
					"duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("backfill chunk error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&athleteID, "athlete", 0, "Athlete ID")
	cmd.Flags().IntVar(&days, "days", 365, "Days of history to fetch")
	cmd.Flags().IntVar(&chunk, "chunk", 30, "Chunk size in days")
	return cmd
}

func fetchCmd() *cobra.Command {
	var athleteID int64
	var days int
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch recent metric records for one athlete",
		RunE: func(cmd *cobra.Command, args []string) error {
			if athleteID == 0 {
				return fmt.Errorf("--athlete is required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				ath, svc, err := athleteService(ctx, cfg, pool, athleteID)
				if err != nil {
					return err
				}
				end := time.Now().In(ath.Location())
				result, err := svc.Range(ctx, ath, end.AddDate(0, 0, -(days-1)), end)
				if err != nil {
					return err
				}
				logger.Info("Fetch finished", "athlete_id", athleteID, "summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&athleteID, "athlete", 0, "Athlete ID")
	cmd.Flags().IntVar(&days, "days", 7, "Trailing days to fetch")
	return cmd
}

// --------------------------------------------------------------------------
// baselines command
// --------------------------------------------------------------------------

func baselinesCmd() *cobra.Command {
	var athleteID int64
	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "Recompute rolling baselines for one athlete",
		RunE: func(cmd *cobra.Command, args []string) error {
			if athleteID == 0 {
				return fmt.Errorf("--athlete is required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				ath, err := roster.GetByID(ctx, pool.Pool, athleteID)
				if err != nil {
					return err
				}
				if ath == nil {
					return fmt.Errorf("athlete %d not found", athleteID)
				}
				minima := baseline.Minimums{
					Short:  cfg.BaselineMinShort,
					Medium: cfg.BaselineMinMedium,
					Long:   cfg.BaselineMinLong,
				}
				now := time.Now().In(ath.Location())
				asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, ath.Location())
				stats, err := baseline.Refresh(ctx, pool.Pool, athleteID, asOf, minima)
				if err != nil {
					return err
				}
				logger.Info("Baselines recomputed", "athlete_id", athleteID, "stats", len(stats))
				for _, s := range stats {
					logger.Info("baseline",
						"metric", s.MetricName, "window", s.Window,
						"mean", fmt.Sprintf("%.2f", s.Mean),
						"std_dev", fmt.Sprintf("%.2f", s.StdDev),
						"samples", s.SampleCount)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&athleteID, "athlete", 0, "Athlete ID")
	return cmd
}

// --------------------------------------------------------------------------
// roster command
// --------------------------------------------------------------------------

func rosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the athlete roster",
	}
	cmd.AddCommand(rosterSyncCmd())
	return cmd
}

func rosterSyncCmd() *cobra.Command {
	var authAthleteID int64
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the roster from the provider's coach endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				client := buildClient(cfg, pool)
				result, err := roster.Sync(ctx, pool.Pool, client, authAthleteID, logger)
				if err != nil {
					return err
				}
				logger.Info("Roster sync finished", "summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&authAthleteID, "auth-athlete", 0, "Athlete whose credential authenticates the call (0 = any coach-scoped credential)")
	return cmd
}

// --------------------------------------------------------------------------
// auth command
// --------------------------------------------------------------------------

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider account linking",
	}
	cmd.AddCommand(authURLCmd())
	cmd.AddCommand(authExchangeCmd())
	return cmd
}

func authURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the provider authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			oauth := auth.NewOAuthClient(cfg.TPAuthBase, cfg.TPClientID, cfg.TPClientSecret,
				cfg.TPRedirectURI, cfg.TPScope, logger)
			fmt.Println(oauth.AuthorizationURL("cli"))
			return nil
		},
	}
}

func authExchangeCmd() *cobra.Command {
	var athleteID int64
	var code string
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code and store the credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if athleteID == 0 || code == "" {
				return fmt.Errorf("--athlete and --code are required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				oauth := auth.NewOAuthClient(cfg.TPAuthBase, cfg.TPClientID, cfg.TPClientSecret,
					cfg.TPRedirectURI, cfg.TPScope, logger)
				refresher := auth.NewRefresher(auth.NewPGStore(pool.Pool), oauth, cfg.TokenSafetyMargin, logger)
				cred, err := refresher.ExchangeCode(ctx, athleteID, code)
				if err != nil {
					return err
				}
				logger.Info("Credential stored",
					"athlete_id", athleteID,
					"expires_at", cred.ExpiresAt.UTC().Format(time.RFC3339),
					"scope", cred.Scope)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&athleteID, "athlete", 0, "Athlete ID")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent flow")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func buildClient(cfg *config.Config, pool *db.Pool) *tp.Client {
	oauth := auth.NewOAuthClient(cfg.TPAuthBase, cfg.TPClientID, cfg.TPClientSecret,
		cfg.TPRedirectURI, cfg.TPScope, logger)
	refresher := auth.NewRefresher(auth.NewPGStore(pool.Pool), oauth, cfg.TokenSafetyMargin, logger)
	return tp.NewClient(cfg.TPAPIBase, refresher, cfg.TPRequestsPerMinute, logger)
}

func athleteService(ctx context.Context, cfg *config.Config, pool *db.Pool, athleteID int64) (*roster.Athlete, *ingest.Service, error) {
	ath, err := roster.GetByID(ctx, pool.Pool, athleteID)
	if err != nil {
		return nil, nil, err
	}
	if ath == nil {
		return nil, nil, fmt.Errorf("athlete %d not found", athleteID)
	}
	return ath, ingest.NewService(pool.Pool, buildClient(cfg, pool), logger), nil
}

// withPool handles config loading, DB connection, and context cancellation.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
