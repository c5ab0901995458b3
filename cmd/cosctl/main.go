package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Emmanuelamanga/cos-platform/internal/config"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
)

var (
	configPath string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "cosctl",
	Short:         "Operator tasks for the Citizen Observatory platform",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	defaultConfig := os.Getenv("APP_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to the service config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(newHashPasswordCmd())
	rootCmd.AddCommand(newGrantRoleCmd())
	rootCmd.AddCommand(newSeedReferenceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withPool loads the config and hands fn a pool that is closed afterwards.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := pgrepo.NewPool(ctx, pgrepo.PoolConfig{
		DSN:      cfg.Postgres.DSN,
		MaxConns: 2,
		AppName:  "cosctl",
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return fn(ctx, pool)
}
