package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voxform/voxform/pkg/logging"
	"github.com/voxform/voxform/pkg/runner"
	"github.com/voxform/voxform/pkg/voxform"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := voxform.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger := logging.InitLogger(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	engine, err := voxform.NewEngine(cfg, logger)
	if err != nil {
		logger.Error("engine_init_failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The session runs beside the lifecycle; when it ends, for any
	// reason, the lifecycle drains and the process exits.
	var runErr error
	life := runner.NewLifecycle(engine, runner.Hooks{
		OnServing: func() {
			go func() {
				runErr = engine.Run(ctx)
				cancel()
			}()
		},
	}, logger, 10*time.Second)

	haltErr := life.Run(ctx)
	if runErr != nil {
		logger.Error("session_failed", "error", runErr)
	}
	if haltErr != nil {
		logger.Error("shutdown_error", "error", haltErr)
	}
	if runErr != nil || haltErr != nil {
		os.Exit(1)
	}
	logger.Info("shutdown_complete")
}
