// Command slotpool provides utilities for managing a PostgreSQL-backed slot
// store.
//
// Usage:
//
//	slotpool <command>
//
// Commands:
//
//	setup       Create the slot store schema
//	status      Report identifier and payload counts
//	teardown    Drop the slot store schema
//
// The command respects standard PostgreSQL environment variables:
//   - DATABASE_URL: Full connection string (overrides all other variables)
//   - PGHOST: Database host (default: localhost)
//   - PGPORT: Database port (default: 5432)
//   - PGUSER: Database user (default: postgres)
//   - PGPASSWORD: Database password (default: postgres)
//   - PGDATABASE: Database name (default: postgres)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/scratchspace/slotpool/internal"
	"github.com/scratchspace/slotpool/pgstore"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "slotpool",
	Short: "Utilities for managing a PostgreSQL-backed slot store.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFormatter(&log.TextFormatter{
			ForceColors: term.IsTerminal(int(os.Stderr.Fd())),
		})
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the slot store schema.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			if err := pgstore.Setup(ctx, pool); err != nil {
				return err
			}
			fmt.Println("Setup completed successfully")
			return nil
		})
	},
}

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Drop the slot store schema.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			if err := pgstore.Teardown(ctx, pool); err != nil {
				return err
			}
			fmt.Println("Teardown completed successfully")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report identifier and payload counts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")

		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			store := pgstore.New(pool)
			if !watch {
				return printStats(ctx, store)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			limiter := rate.NewLimiter(rate.Every(interval), 1)
			for {
				if err := limiter.Wait(ctx); err != nil {
					return nil // interrupted
				}
				if err := printStats(ctx, store); err != nil {
					return err
				}
			}
		})
	},
}

func printStats(ctx context.Context, store *pgstore.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("reserved=%d dirty=%d clean=%d\n",
		stats.Reserved, stats.Dirty, stats.Reserved-stats.Dirty)
	return nil
}

func withPool(ctx context.Context, fn func(context.Context, *pgxpool.Pool) error) error {
	pool, err := internal.GetPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	statusCmd.Flags().Bool("watch", false, "poll the store until interrupted")
	statusCmd.Flags().Duration("interval", 2*time.Second, "polling interval for --watch")
	rootCmd.AddCommand(setupCmd, teardownCmd, statusCmd)
	rootCmd.SilenceUsage = true
}
