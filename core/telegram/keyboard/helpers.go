// Package keyboard builds reply markup.
package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard hides any custom reply keyboard shown to the user.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
