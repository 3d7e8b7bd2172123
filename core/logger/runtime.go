package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type contextKey string

const (
	ctxRID      contextKey = "rid"
	ctxUpdateID contextKey = "update_id"
	ctxUserID   contextKey = "user_id"
	ctxChatID   contextKey = "chat_id"
	ctxLogger   contextKey = "logger"
	ctxHandler  contextKey = "handler"
)

func withValue(ctx context.Context, key contextKey, val any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, val)
}

func valueFrom[T any](ctx context.Context, key contextKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	if v, ok := ctx.Value(key).(T); ok {
		return v
	}
	return zero
}

// WithLogger stores log in ctx for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withValue(ctx, ctxLogger, log)
}

// FromContext returns the context logger or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l := valueFrom[*slog.Logger](ctx, ctxLogger); l != nil {
		return l
	}
	return L
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withValue(ctx, ctxRID, rid)
}

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string {
	return valueFrom[string](ctx, ctxRID)
}

// WithUpdateMeta attaches Telegram update, user and chat identifiers.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = withValue(ctx, ctxUpdateID, updateID)
	ctx = withValue(ctx, ctxUserID, userID)
	return withValue(ctx, ctxChatID, chatID)
}

// WithHandler records the handler name serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withValue(ctx, ctxHandler, handler)
}

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string {
	return valueFrom[string](ctx, ctxHandler)
}

// UserIDFrom returns the Telegram user ID, if any.
func UserIDFrom(ctx context.Context) int64 {
	return valueFrom[int64](ctx, ctxUserID)
}

// ChatIDFrom returns the chat ID, if any.
func ChatIDFrom(ctx context.Context) int64 {
	return valueFrom[int64](ctx, ctxChatID)
}

// UpdateIDFrom returns the update ID, if any.
func UpdateIDFrom(ctx context.Context) int {
	return valueFrom[int](ctx, ctxUpdateID)
}

// Sanitize drops control and format runes except tab and newline.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit applies Sanitize and caps the result at max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max])
}

// BuildRID returns a correlation identifier updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID renders a BuildRID value as dot-separated base36 segments.
// Other inputs are returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
