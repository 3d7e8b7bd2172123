// Package format escapes user text for Telegram parse modes.
package format

import "regexp"

var mdRe = regexp.MustCompile("([_*`\\[])")

// MD escapes user supplied text for legacy Markdown messages.
func MD(text string) string {
	return mdRe.ReplaceAllString(text, `\$1`)
}
