package router

import (
	"context"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/trainbot/core/telegram"
	tghelpers "github.com/m3rciful/trainbot/core/telegram/helpers"
	"github.com/m3rciful/trainbot/core/telegram/middleware"
)

// FSM is a conversation manager that owns text while a dialogue is open.
type FSM interface {
	InProgress(ctx context.Context, userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the OnText handler. Text resolving to a registered
// command or alias wins, then an open dialogue, then the registry fallback.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if reg != nil && strings.HasPrefix(text, "/") {
			word, _, _ := strings.Cut(text, " ")
			if key, cmd, ok := reg.LookupCommand(word); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", cmd.Handler)
			}
		}

		if fsm != nil && c.Sender() != nil && fsm.InProgress(tghelpers.BuildContext(c), c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, "", fsm.ManagerHandler)
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", fb)
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", opts.UnknownText)
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
