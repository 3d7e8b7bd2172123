package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	tghelpers "github.com/m3rciful/trainbot/core/telegram/helpers"
)

// RecoverMiddleware turns handler panics into errors so one update cannot
// stop the bot.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
				logger.Error(tghelpers.BuildContext(c), logger.CompTG, "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
