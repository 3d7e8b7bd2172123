package router

import (
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	tghelpers "github.com/m3rciful/trainbot/core/telegram/helpers"
	"github.com/m3rciful/trainbot/core/telegram/middleware"
)

func handleWithSummary(c tele.Context, handlerName string, start time.Time, outcome string, fn tele.HandlerFunc) error {
	tghelpers.WithHandler(c, handlerName)
	err := fn(c)
	logHandlerSummary(c, handlerName, start, outcome, err)
	return err
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, outcome string, err error) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	status := logger.Status(err)
	if outcome == "" {
		outcome = status
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	logger.Info(ctx, logger.CompTG, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// deriveErrorCode prefers an error's Code method and falls back to its type name.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
