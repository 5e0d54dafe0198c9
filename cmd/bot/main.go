package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"droidBot/internal/app/runtime"
	"droidBot/internal/infrastructure/config"
	"droidBot/internal/infrastructure/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaultsPath := pflag.String("defaults", "defaults.yml", "base configuration file")
	configPath := pflag.String("config", "config.yml", "site configuration file, overrides defaults")
	envFile := pflag.String("env", ".env", "dotenv file loaded before reading the environment")
	console := pflag.Bool("console", false, "read commands from stdin with a => prompt")
	pflag.Parse()

	cfg, err := config.Load(config.Options{
		DefaultsPath: *defaultsPath,
		ConfigPath:   *configPath,
		EnvFile:      *envFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "droidbot: %v\n", err)
		return 1
	}
	if pflag.CommandLine.Changed("console") {
		cfg.Bot.Console = *console
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "droidbot: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := runtime.Start(ctx, runtime.Options{Config: cfg, Logger: log})
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return 1
	}

	rt.Wait()

	if err := rt.Stop(); err != nil {
		log.Error("shutdown failed", zap.Error(err))
		return 1
	}
	return 0
}
