// Package router turns registry entries into telebot routes with a
// handler.handled summary line per update.
package router

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	tg "github.com/m3rciful/trainbot/core/telegram"
	"github.com/m3rciful/trainbot/core/telegram/middleware"
)

// CommandRoutes wraps every registered command with recovery, logging and
// the handler summary.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		name := normalizeHandlerName(cmd)
		h := def.Handler
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(func(c tele.Context) error {
				return handleWithSummary(c, name, time.Now(), "", h)
			})),
		})
	}

	logger.Info(context.Background(), logger.CompWire, "complete",
		slog.Int("commands", len(routes)),
	)
	return routes
}
