// Package helpers carries request context and outbound sends for telebot handlers.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
)

const (
	contextKey  = "logger_ctx"
	messagesKey = "messages"
	keyboardKey = "kb"
)

// StoreContext attaches ctx to c for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the stored context or builds one carrying the rid
// and update, user and chat identifiers.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component(logger.CompTG))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler records the handler name in the stored context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// ResetCounters clears the per-update send counters.
func ResetCounters(c tele.Context) {
	c.Set(messagesKey, 0)
	c.Set(keyboardKey, false)
}

// Counters reports how many messages were sent for the update and whether
// any carried reply markup.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}

func countSent(c tele.Context, withMarkup bool) {
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if withMarkup {
		c.Set(keyboardKey, true)
	}
}
