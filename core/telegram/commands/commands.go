// Package commands describes slash commands exposed by the bot.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden commands work but are not listed in the Telegram menu.
	Hidden  bool
	Aliases []string
}
