package telegram

import (
	"net"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/trainbot/core/config"
)

const defaultLongPollTimeout = 10 * time.Second

// BuildPoller returns a webhook or long poller for the configured run mode.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: longPollTimeout(cfg)}
}

func longPollTimeout(cfg *coreconfig.Config) time.Duration {
	if cfg.Telegram.LongPollTimeoutSeconds > 0 {
		return time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	}
	return defaultLongPollTimeout
}
