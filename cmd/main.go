// Command krakendca runs one dollar-cost-averaging pass against Kraken: it checks the
// exchange status and fiat balance, then buys every configured pair for its fiat amount.
// Schedule it with cron or a systemd timer.
//
// Usage:
//
//	krakendca -config config.yaml
//	krakendca -setup            (interactive wizard writing the config file)
//	krakendca -history          (print the recorded run history as JSON lines)
//
// Environment variables (also read from .env, used when the config file leaves them blank):
//
//	KRAKEN_API_KEY, KRAKEN_API_SECRET, KRAKEN_API_BASE, DISCORD_WEBHOOK_URL
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal"
	"github.com/vadiminshakov/krakendca/internal/setup"
	"github.com/vadiminshakov/krakendca/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if flags.Setup {
		if err := setup.RunTUI(flags.ConfigPath); err != nil {
			fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
			return 1
		}
		return 0
	}

	if err := config.LoadEnv(flags.EnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		return 1
	}

	conf, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	console := os.Stdout
	if flags.History {
		// stdout carries the dump
		console = os.Stderr
	}
	l, closeLog, err := logger.New(logger.Config{Level: conf.Logging.Level, File: conf.Logging.File}, console)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer closeLog()

	if flags.History {
		if err := internal.DumpHistory(conf, os.Stdout, l); err != nil {
			l.Error("failed to dump run history", zap.Error(err))
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := internal.NewServices(conf, l)
	if err != nil {
		l.Error("failed to initialize services", zap.Error(err))
		return 1
	}
	defer func() {
		if err := services.Close(); err != nil {
			l.Error("failed to close services", zap.Error(err))
		}
	}()

	bot := services.NewTradingBotFromConfig(conf, l)
	if _, err := bot.Run(ctx); err != nil {
		l.Error("DCA run aborted", zap.Error(err))
		return 1
	}
	return 0
}
