package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/app/apiapp"
	"github.com/Emmanuelamanga/cos-platform/internal/config"
	"github.com/Emmanuelamanga/cos-platform/internal/infra/logger"
)

func main() {
	defaultConfig := os.Getenv("APP_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	cfgPath := flag.String("config", defaultConfig, "path to the service config file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "cos-api:", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := apiapp.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create api app: %w", err)
	}
	log.Info("config loaded",
		zap.String("env", cfg.Env),
		zap.String("config", cfgPath),
		zap.String("gate_failure_policy", cfg.Auth.GateFailurePolicy),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown requested", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api app: %w", err)
	}
	return <-errCh
}
