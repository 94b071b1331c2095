package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xela07ax/claims-ledger/internal/app"
	"github.com/xela07ax/claims-ledger/internal/events"
	"github.com/xela07ax/claims-ledger/internal/infra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "claims",
		Short:         "Insurance claims ledger: policyholders, policies and claims",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ./config.yaml or ./configs/config.yaml)")

	root.AddCommand(newServeCmd(&configPath), newSchemaCmd(&configPath), newWatchCmd(&configPath))
	return root
}

// bootstrap - общая часть команд: конфиг + логгер.
func bootstrap(configPath string) (*infra.Config, *zap.Logger, error) {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			// Контекст живет до SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.Run(ctx, cfg, logger)
		},
	}
}

func newSchemaCmd(configPath *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create tables or indexes for the configured storage backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			backend, err := app.OpenBackend(ctx, cfg, nil, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := backend.Migrate(ctx); err != nil {
				return fmt.Errorf("schema migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready for %s\n", cfg.Storage.Driver)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "migration timeout")
	return cmd
}

func newWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print ledger change notifications from Redis as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Redis.Addr == "" {
				return errors.New("redis.addr is not configured")
			}
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			events.Listen(ctx, rdb, logger, infra.RedisChanLedgerEvents, events.ListenOptions{}, func(e events.Event) {
				enc.Encode(e)
			})
			return nil
		},
	}
}
