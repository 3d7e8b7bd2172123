package middleware

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/trainbot/core/telegram/helpers"
)

// MessageMetricsMiddleware resets the per-update send counters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.ResetCounters(c)
		return next(c)
	}
}

// GetCounters reads the message count and keyboard flag for the update.
func GetCounters(c tele.Context) (int, bool) {
	return tghelpers.Counters(c)
}
