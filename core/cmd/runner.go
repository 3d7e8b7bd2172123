// Package cmd wires configuration, bootstrap and the Telegram runtime into
// a process entry point.
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/trainbot/core/config"
	"github.com/m3rciful/trainbot/core/logger"
	coretelegram "github.com/m3rciful/trainbot/core/telegram"
)

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
	Close() error
}

// Options describe how to load configuration, bootstrap the app and run the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(ctx context.Context, cfg *coreconfig.Config) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
	// Signals default to SIGINT and SIGTERM.
	Signals []os.Signal
}

// Run loads configuration, bootstraps the app and serves updates until a
// shutdown signal arrives.
func Run(opts Options) error {
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = coreconfig.Load
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := signal.NotifyContext(context.Background(), signals...)
	defer cancel()

	startedAt := time.Now()
	application, err := opts.Bootstrap(ctx, cfg)

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	if err != nil {
		logger.Error(ctx, logger.CompApp, "bootstrap", slog.Any("err", err))
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn(context.Background(), logger.CompApp, "close", slog.Any("err", err))
		}
	}()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}

	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, logger.CompApp, "ready",
			slog.Duration("startup_duration", time.Since(startedAt)),
		)
		return nil
	}

	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, logger.CompApp, "shutdown",
			slog.Uint64("sent", rt.Dispatcher.SentCount()),
			slog.Uint64("send_errors", rt.Dispatcher.ErrorCount()),
		)
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}
