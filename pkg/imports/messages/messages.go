// Package messages holds the user-facing message catalog for import validation.
//
// Messages are keyed by their English text and rendered through
// golang.org/x/text/message, so a printer for an unsupported language falls
// back to the English key.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Every key is also the English translation.
const (
	CannotParseTag  = `Cannot parse XML tag "%s": %s.`
	TagMissing      = `the tag "%s" is missing`
	StringExpected  = `incorrect value for tag "%s": a character string is expected`
	ArrayExpected   = "an array is expected"
	UnexpectedTag   = `unexpected tag "%s"`
	InvalidDateTime = "Incorrect date and time format: YYYY-MM-DDThh:mm:ssZ is expected."
)

var translations = map[language.Tag]map[string]string{
	language.German: {
		CannotParseTag:  `XML-Tag "%s" kann nicht verarbeitet werden: %s.`,
		TagMissing:      `das Tag "%s" fehlt`,
		StringExpected:  `falscher Wert für Tag "%s": eine Zeichenkette wird erwartet`,
		ArrayExpected:   "ein Array wird erwartet",
		UnexpectedTag:   `unerwartetes Tag "%s"`,
		InvalidDateTime: "Falsches Datums- und Zeitformat: JJJJ-MM-TTThh:mm:ssZ wird erwartet.",
	},
}

var (
	cat       *catalog.Builder
	supported []language.Tag
	matcher   language.Matcher
	english   *Printer
)

func init() {
	cat = catalog.NewBuilder(catalog.Fallback(language.English))

	for _, key := range []string{CannotParseTag, TagMissing, StringExpected, ArrayExpected, UnexpectedTag, InvalidDateTime} {
		_ = cat.SetString(language.English, key, key)
	}
	for tag, msgs := range translations {
		for key, msg := range msgs {
			_ = cat.SetString(tag, key, msg)
		}
	}

	supported = cat.Languages()
	matcher = language.NewMatcher(supported)

	// Requires matcher.
	english = NewPrinter("en")
}

// Printer renders catalog messages for one language.
// A Printer is safe for concurrent use.
type Printer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewPrinter returns a printer for the best catalog match of lang
// (a BCP 47 tag such as "en" or "de-AT"). Unknown or empty tags yield English.
func NewPrinter(lang string) *Printer {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		if _, idx, conf := matcher.Match(parsed); conf != language.No {
			tag = supported[idx]
		}
	}
	return &Printer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Language returns the language the printer renders.
func (p *Printer) Language() string {
	base, _ := p.tag.Base()
	return base.String()
}

// Sprintf renders the message identified by key with args.
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.printer.Sprintf(key, args...)
}

// Languages returns the languages the catalog provides.
func Languages() []string {
	tags := cat.Languages()
	langs := make([]string, 0, len(tags))
	for _, tag := range tags {
		base, _ := tag.Base()
		langs = append(langs, base.String())
	}
	return langs
}

// Sprintf renders the message identified by key in English.
func Sprintf(key string, args ...any) string {
	return english.Sprintf(key, args...)
}
