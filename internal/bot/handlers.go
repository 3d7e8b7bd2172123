package bot

import (
	"context"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	tg "github.com/m3rciful/trainbot/core/telegram"
	"github.com/m3rciful/trainbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/trainbot/core/telegram/helpers"
	"github.com/m3rciful/trainbot/core/telegram/keyboard"
	"github.com/m3rciful/trainbot/internal/dialogue"
	"github.com/m3rciful/trainbot/internal/render"
)

// registerCommands adds the slash commands and routes all other text into
// the dialogue.
func (a *App) registerCommands(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.inputHandler(dialogue.InputStart),
		Description: "Start searching for trains",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.inputHandler(dialogue.InputCancel),
		Description: "Cancel current search",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.inputHandler(dialogue.InputHelp),
		Description: "Show help",
	})
	reg.SetTextFallback(a.handleText)
}

func (a *App) inputHandler(kind dialogue.InputKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.dispatch(c, dialogue.Input{Kind: kind, Text: c.Text()})
	}
}

func (a *App) handleText(c tele.Context) error {
	return a.dispatch(c, inputFromText(c.Text()))
}

// inputFromText classifies a message that is not a registered command.
func inputFromText(text string) dialogue.Input {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return dialogue.Input{Kind: dialogue.InputUnknownCommand, Text: text}
	}
	return dialogue.Input{Kind: dialogue.InputText, Text: text}
}

func (a *App) dispatch(c tele.Context, in dialogue.Input) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	if in.FirstName == "" {
		in.FirstName = user.FirstName
	}
	ctx := tghelpers.BuildContext(c)

	outcome, err := a.controller.Handle(ctx, user.ID, in, chatReplier{c: c})
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.CompDialogue, "turn",
			slog.String("input", in.Kind.String()),
			slog.String("state_from", string(outcome.From)),
			slog.String("state_to", string(outcome.To)),
			slog.String("result", string(outcome.Result)),
		)
	}
	return err
}

// chatReplier sends dialogue replies to the chat of the current update.
type chatReplier struct {
	c tele.Context
}

func (r chatReplier) Reply(_ context.Context, reply render.Reply) error {
	return tghelpers.Send(r.c, reply.Text, sendOptions(reply))
}

func sendOptions(r render.Reply) *tele.SendOptions {
	opts := &tele.SendOptions{DisableWebPagePreview: r.NoPreview}
	if r.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	if r.RemoveKeyboard {
		opts.ReplyMarkup = keyboard.RemoveKeyboard()
	}
	return opts
}

// conversation exposes the dialogue to the text router.
type conversation struct {
	app *App
}

func (c conversation) InProgress(ctx context.Context, userID int64) bool {
	active, err := c.app.controller.Active(ctx, userID)
	if err != nil {
		logger.Warn(ctx, logger.CompSession, "session.lookup", slog.Any("err", err))
		return false
	}
	return active
}

func (c conversation) ManagerHandler(tc tele.Context) error {
	return c.app.handleText(tc)
}
