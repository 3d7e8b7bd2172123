// Package bootstrap prepares shared infrastructure before the bot starts.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/trainbot/core/config"
	coredatabase "github.com/m3rciful/trainbot/core/database"
	"github.com/m3rciful/trainbot/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks use the defaults.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config)
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.DatabaseConfig) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is set only when the postgres search backend is selected.
	DB *sqlx.DB
}

// Close releases the opened infrastructure.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, for the postgres search backend, connects
// to the database and applies migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.Init
	}
	loggerInit(cfg)

	res := &Result{}
	if cfg.Search.Backend != coreconfig.SearchBackendPostgres {
		return res, nil
	}

	start := time.Now()
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	res.DB = db

	logger.Info(ctx, logger.CompApp, "bootstrap.database",
		slog.String("host", cfg.Database.Host),
		slog.String("name", cfg.Database.Name),
		slog.Duration("duration", time.Since(start)),
	)
	return res, nil
}
