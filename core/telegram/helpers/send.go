package helpers

import (
	"log/slog"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	"github.com/m3rciful/trainbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// A nil dispatcher makes sends synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// enqueueWait bounds how long a send waits for room in its chat's queue.
// Sends never bypass the queue so one chat's messages keep their order.
const enqueueWait = 5 * time.Second

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.EnqueueWait(ctx, enqueueWait, action, endpoint, run)
	if err != nil {
		logger.Warn(ctx, logger.CompSender, "send.dropped",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.Any("err", err),
		)
	}
	return err
}

// Send delivers text to the current chat with the given options.
func Send(c tele.Context, text string, opts *tele.SendOptions) error {
	withMarkup := opts != nil && opts.ReplyMarkup != nil
	err := sendAsync(c, "send.text", "sendMessage", func() error {
		if opts != nil {
			return c.Send(text, opts)
		}
		return c.Send(text)
	})
	if err == nil {
		countSent(c, withMarkup)
	}
	return err
}
