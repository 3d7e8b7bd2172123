// Package middleware holds the telebot middleware shared by all routes.
package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	tghelpers "github.com/m3rciful/trainbot/core/telegram/helpers"
)

const dedupWindow = 10 * time.Second

// recentUpdates remembers update IDs already logged so nested middleware
// chains write one receipt line per update.
var recentUpdates = struct {
	sync.Mutex
	seen map[int]time.Time
}{seen: make(map[int]time.Time)}

func alreadyLogged(updateID int, now time.Time) bool {
	recentUpdates.Lock()
	defer recentUpdates.Unlock()
	for id, ts := range recentUpdates.seen {
		if now.Sub(ts) > dedupWindow {
			delete(recentUpdates.seen, id)
		}
	}
	if _, ok := recentUpdates.seen[updateID]; ok {
		return true
	}
	recentUpdates.seen[updateID] = now
	return false
}

// LoggerMiddleware sets the rid, stores the logging context and writes a
// sampled update.received line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user, chat := c.Sender(), c.Chat()

		var chatID, userID int64
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithRID(context.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component(logger.CompTG))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && !alreadyLogged(upd.ID, time.Now()) {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user != nil && user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
			logger.Debug(ctx, logger.CompTG, "update.received", attrs...)
		}
		return next(c)
	}
}
