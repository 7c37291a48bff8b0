// Package locale resolves the configured language and holds the translated
// user-facing messages stored in the selection state.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the catalog key.
const (
	MsgSearchFailed = "Failed to search location"
	MsgMarkFailed   = "Failed to look up the location on the map"
	MsgNothingFound = "Nothing found"
	MsgSearching    = "searching..."
	MsgLocating     = "locating..."
)

var supported = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.English: {
		MsgSearchFailed: MsgSearchFailed,
		MsgMarkFailed:   MsgMarkFailed,
		MsgNothingFound: MsgNothingFound,
		MsgSearching:    MsgSearching,
		MsgLocating:     MsgLocating,
	},
	language.BrazilianPortuguese: {
		MsgSearchFailed: "Falha ao buscar localização",
		MsgMarkFailed:   "Erro ao buscar localização pelo mapa",
		MsgNothingFound: "Nada encontrado",
		MsgSearching:    "buscando...",
		MsgLocating:     "localizando...",
	},
}

var messages = mustCatalog(translations)

// newCatalog stores every text as a literal: the printer treats catalog
// entries as format strings, so '%' is escaped.
func newCatalog(entries map[language.Tag]map[string]string) (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, texts := range entries {
		for key, text := range texts {
			if err := b.SetString(tag, key, strings.ReplaceAll(text, "%", "%%")); err != nil {
				return nil, fmt.Errorf("locale %s: message %q: %w", tag, key, err)
			}
		}
	}
	return b, nil
}

func mustCatalog(entries map[language.Tag]map[string]string) *catalog.Builder {
	b, err := newCatalog(entries)
	if err != nil {
		panic(err)
	}
	return b
}

// Locale carries the resolved language tag and a printer for it
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// New resolves a BCP 47 tag such as "pt-BR" against the supported languages.
// Unknown or malformed tags fall back to English.
func New(tag string) *Locale {
	parsed, err := language.Parse(tag)
	if err != nil {
		parsed = language.English
	}
	matched, _, _ := matcher.Match(parsed)
	resolved := language.English
	if base, _ := matched.Base(); base.String() == "pt" {
		resolved = language.BrazilianPortuguese
	}
	return &Locale{tag: resolved, printer: message.NewPrinter(resolved, message.Catalog(messages))}
}

// Tag returns the resolved language tag
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// AcceptLanguage returns the value for the geocoder's Accept-Language header
func (l *Locale) AcceptLanguage() string {
	return l.tag.String()
}

// Text returns the translation of a message key
func (l *Locale) Text(key string) string {
	return l.printer.Sprintf(key)
}
