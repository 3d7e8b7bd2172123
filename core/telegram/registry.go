package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	"github.com/m3rciful/trainbot/core/telegram/commands"
)

// Registry holds bot commands and the handler for everything else.
type Registry struct {
	commands     map[string]commands.Command
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// RegisterCommand adds a new command. Names must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	ctx := context.Background()
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.Warn(ctx, logger.CompWire, "register.command.skip",
			slog.String("name", name), slog.String("reason", "invalid"))
		return
	}
	if name[0] != '/' {
		logger.Warn(ctx, logger.CompWire, "register.command.skip",
			slog.String("name", name), slog.String("reason", "no_slash_prefix"))
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.Warn(ctx, logger.CompWire, "register.command.duplicate", slog.String("name", name))
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the Telegram menu entries, optionally skipping hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for name, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a command or alias, ignoring a trailing @botname,
// and returns the canonical key.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name, _, _ = strings.Cut(strings.TrimSpace(name), "@")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// SetTextFallback sets the handler for text that is not a registered command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

type commandSetter interface {
	SetCommands(opts ...any) error
}

// SetupCommands publishes the visible commands to the Telegram command menu.
func SetupCommands(ctx context.Context, bot commandSetter, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, logger.CompWire, "register.commands.set_failed", slog.Any("err", err))
		return
	}
	logger.Info(ctx, logger.CompWire, "register.commands", slog.Int("count", len(list)))
}
