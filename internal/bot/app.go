// Package bot assembles the train-search bot: session storage, the search
// collaborator, the dialogue controller and the Telegram routes.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/trainbot/core/bootstrap"
	coreconfig "github.com/m3rciful/trainbot/core/config"
	coredatabase "github.com/m3rciful/trainbot/core/database"
	"github.com/m3rciful/trainbot/core/logger"
	"github.com/m3rciful/trainbot/core/ops"
	tg "github.com/m3rciful/trainbot/core/telegram"
	"github.com/m3rciful/trainbot/core/telegram/router"
	tgsender "github.com/m3rciful/trainbot/core/telegram/sender"
	"github.com/m3rciful/trainbot/internal/affiliate"
	"github.com/m3rciful/trainbot/internal/dialogue"
	"github.com/m3rciful/trainbot/internal/search"
	"github.com/m3rciful/trainbot/internal/session"
)

// App is the assembled bot.
type App struct {
	cfg        *coreconfig.Config
	infra      *bootstrap.Result
	redis      *redis.Client
	controller *dialogue.Controller
	registry   *tg.Registry
	ops        *ops.Server
}

// New bootstraps shared infrastructure and assembles the bot.
func New(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	app, err := assemble(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return app, nil
}

func assemble(ctx context.Context, cfg *coreconfig.Config, infra *bootstrap.Result) (*App, error) {
	app := &App{cfg: cfg, infra: infra, registry: tg.NewRegistry()}
	checks := map[string]ops.Check{}

	store, err := app.sessionStore(ctx, checks)
	if err != nil {
		return nil, err
	}
	searcher, err := app.searcher(checks)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.controller, err = dialogue.NewController(store, searcher,
		affiliate.NewBuilder(cfg.Affiliate.BaseURL, cfg.Affiliate.ID),
		dialogue.WithSearchTimeout(cfg.Search.Timeout),
		dialogue.WithBackendName(cfg.Search.Backend),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if cfg.Ops.Listen != "" {
		app.ops = ops.New(cfg.Ops.Listen, checks)
	}
	app.registerCommands(app.registry)

	logger.Info(ctx, logger.CompApp, "assembled",
		slog.String("backend", cfg.Search.Backend),
		slog.String("session_backend", cfg.Session.Backend),
		slog.Bool("ops", app.ops != nil),
	)
	return app, nil
}

func (a *App) sessionStore(ctx context.Context, checks map[string]ops.Check) (session.Store, error) {
	sc := a.cfg.Session
	if sc.Backend != coreconfig.SessionBackendRedis {
		return session.NewMemoryStore(sc.TTL), nil
	}
	client, err := session.NewRedisClient(ctx, session.RedisOptions{
		Addr:     sc.Redis.Addr,
		Password: sc.Redis.Password,
		DB:       sc.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("bot: session store: %w", err)
	}
	a.redis = client
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return session.NewRedisStore(client, sc.Redis.KeyPrefix, sc.TTL), nil
}

func (a *App) searcher(checks map[string]ops.Check) (search.Searcher, error) {
	switch a.cfg.Search.Backend {
	case coreconfig.SearchBackendPostgres:
		if a.infra == nil || a.infra.DB == nil {
			return nil, errors.New("bot: postgres search backend without database")
		}
		db := a.infra.DB
		checks["postgres"] = func(ctx context.Context) error { return coredatabase.Ping(ctx, db) }
		return search.NewPostgresSearcher(db), nil
	default:
		s, err := search.NewHTTPSearcher(a.cfg.Search.BaseURL, a.cfg.Search.Timeout)
		if err != nil {
			return nil, fmt.Errorf("bot: searcher: %w", err)
		}
		return s, nil
	}
}

// TelegramRunOptions returns the routes, middleware and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.TextRoutes(conversation{app: a}, a.registry, router.TextOptions{})...)

	return tg.RunOptions{
		Config:            a.cfg,
		Registry:          a.registry,
		DispatcherOptions: tgsender.Options{Workers: 4, MaxRetries: 2},
		Middlewares:       tg.DefaultMiddlewares(),
		Routes:            routes,
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			if a.ops == nil {
				return nil
			}
			return a.ops.Start(ctx)
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			if a.ops == nil {
				return nil
			}
			return a.ops.Shutdown(ctx)
		},
	}, nil
}

// Close releases the redis client and the database.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.infra.Close())
	return errors.Join(errs...)
}
