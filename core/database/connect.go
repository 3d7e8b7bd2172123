// Package database opens the postgres pool backing the timetable searcher
// and applies its schema migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/trainbot/core/config"
	"github.com/m3rciful/trainbot/core/logger"
)

const connectTimeout = 5 * time.Second

// DSN returns the lib/pq keyword/value connection string.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// MigrateURL returns the postgres:// URL form expected by golang-migrate.
func MigrateURL(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect opens the pool, verifies connectivity and sizes the pool.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	attrs := []slog.Attr{
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	took := logger.Took(start)
	if err != nil {
		logger.Error(ctx, "db", "db.connect", append(attrs,
			slog.String("status", "fail"),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.Info(ctx, "db", "db.connect", append(attrs,
		slog.String("status", "ok"),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", took),
	)...)
	return db, nil
}

// Ping reports whether the pool can reach the server.
func Ping(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("db ping: no pool")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}
