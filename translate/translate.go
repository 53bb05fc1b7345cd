// Package translate formats user visible messages in the user's locale.
package translate

import (
	"github.com/charmbracelet/log"
	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Debug("locale lookup failed", "error", err)
	}

	Use(locales...)
}

// Use selects the best match of the locales for all messages,
// falling back to en-US.
func Use(locales ...string) language.Tag {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	tag := message.MatchLanguage(locales...)
	printer = message.NewPrinter(tag)

	return tag
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
