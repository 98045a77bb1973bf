package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chirodesk/voicebot/pkg/logging"
	"github.com/chirodesk/voicebot/pkg/redact"
	"github.com/chirodesk/voicebot/pkg/runner"
	"github.com/chirodesk/voicebot/pkg/voicebot"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := voicebot.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config_load_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	redact.SetEnabled(cfg.Privacy.RedactPII)

	app, err := voicebot.NewApp(cfg, voicebot.DefaultRegistry(), logger)
	if err != nil {
		logger.Error("app_build_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run := runner.NewLifecycleRunner(app, runner.Hooks{
		OnStart: func() {
			if err := app.Start(ctx); err != nil {
				logger.Error("app_start_failed", slog.String("error", err.Error()))
				cancel()
			}
		},
		OnStop: func() {
			_ = app.Stop()
		},
	}, 10*time.Second)

	if err := run.Run(ctx); err != nil {
		logger.Error("run_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
