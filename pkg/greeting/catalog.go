// Package greeting holds the static greeting tables shared by the extensions.
package greeting

type Style string

const (
	StyleCasual       Style = "casual"
	StyleFormal       Style = "formal"
	StyleEnthusiastic Style = "enthusiastic"
	StyleMultilingual Style = "multilingual"
)

type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageSpanish  Language = "es"
	LanguageFrench   Language = "fr"
	LanguageGerman   Language = "de"
	LanguageJapanese Language = "ja"
)

const (
	DefaultStyle    = StyleCasual
	DefaultLanguage = LanguageEnglish
)

var (
	styles    = []Style{StyleCasual, StyleFormal, StyleEnthusiastic, StyleMultilingual}
	languages = []Language{LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman, LanguageJapanese}
)

// Styles returns the supported styles in catalog order.
func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

// Languages returns the supported language codes in catalog order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// StyleNames is Styles as plain strings.
func StyleNames() []string {
	out := make([]string, len(styles))
	for i, s := range styles {
		out[i] = string(s)
	}
	return out
}

func LanguageNames() []string {
	out := make([]string, len(languages))
	for i, l := range languages {
		out[i] = string(l)
	}
	return out
}

func ValidStyle(s Style) bool {
	for _, v := range styles {
		if v == s {
			return true
		}
	}
	return false
}

func ValidLanguage(l Language) bool {
	for _, v := range languages {
		if v == l {
			return true
		}
	}
	return false
}

// Catalog maps a (style, language) pair to greeting text. A Catalog is never
// mutated after package initialization.
type Catalog struct {
	entries map[Style]map[Language]string
}

// Lookup returns the greeting for the pair, or the default pair's greeting when
// the pair is not in the catalog.
func (c Catalog) Lookup(style Style, lang Language) string {
	if text, ok := c.entries[style][lang]; ok {
		return text
	}
	return c.entries[DefaultStyle][DefaultLanguage]
}

// Has reports whether the pair is present.
func (c Catalog) Has(style Style, lang Language) bool {
	_, ok := c.entries[style][lang]
	return ok
}

const multilingualFull = "Hello (English) • Hola (Español) • Bonjour (Français) • Hallo (Deutsch) • こんにちは (日本語)"

const multilingualShort = "Hello • Hola • Bonjour • Hallo • こんにちは"

// Styled is the table served by the greeting style extension.
var Styled = Catalog{entries: map[Style]map[Language]string{
	StyleCasual: {
		LanguageEnglish:  "Hey there! 👋",
		LanguageSpanish:  "¡Hola! 👋",
		LanguageFrench:   "Salut! 👋",
		LanguageGerman:   "Hallo! 👋",
		LanguageJapanese: "こんにちは！ 👋",
	},
	StyleFormal: {
		LanguageEnglish:  "Good day. I am pleased to make your acquaintance.",
		LanguageSpanish:  "Buenos días. Es un placer conocerle.",
		LanguageFrench:   "Bonjour. Je suis ravi de faire votre connaissance.",
		LanguageGerman:   "Guten Tag. Es freut mich, Sie kennenzulernen.",
		LanguageJapanese: "こんにちは。お会いできて光栄です。",
	},
	StyleEnthusiastic: {
		LanguageEnglish:  "HELLO THERE!!! 🎉✨ Welcome to the amazing world of A2A!",
		LanguageSpanish:  "¡¡¡HOLA!!! 🎉✨ ¡Bienvenido al increíble mundo de A2A!",
		LanguageFrench:   "BONJOUR!!! 🎉✨ Bienvenue dans le monde merveilleux d'A2A!",
		LanguageGerman:   "HALLO!!! 🎉✨ Willkommen in der fantastischen Welt von A2A!",
		LanguageJapanese: "こんにちは！！！ 🎉✨ A2Aの素晴らしい世界へようこそ！",
	},
	StyleMultilingual: {
		LanguageEnglish:  multilingualFull,
		LanguageSpanish:  multilingualFull,
		LanguageFrench:   multilingualFull,
		LanguageGerman:   multilingualFull,
		LanguageJapanese: multilingualFull,
	},
}}

// Random is the table drawn from by the message/random method.
var Random = Catalog{entries: map[Style]map[Language]string{
	StyleCasual: {
		LanguageEnglish:  "Hey there! 👋",
		LanguageSpanish:  "¡Hola! 👋",
		LanguageFrench:   "Salut! 👋",
		LanguageGerman:   "Hallo! 👋",
		LanguageJapanese: "やあ! 👋",
	},
	StyleFormal: {
		LanguageEnglish:  "Good day. I am pleased to make your acquaintance.",
		LanguageSpanish:  "Buenos días. Es un placer conocerle.",
		LanguageFrench:   "Bonjour. Je suis ravi de faire votre connaissance.",
		LanguageGerman:   "Guten Tag. Es freut mich, Sie kennenzulernen.",
		LanguageJapanese: "こんにちは。お会いできて光栄です。",
	},
	StyleEnthusiastic: {
		LanguageEnglish:  "HELLO THERE!!! 🎉✨ Welcome to the amazing world of A2A!",
		LanguageSpanish:  "¡¡¡HOLA!!! 🎉✨ ¡Bienvenido al increíble mundo de A2A!",
		LanguageFrench:   "BONJOUR!!! 🎉✨ Bienvenue dans le monde fantastique d'A2A!",
		LanguageGerman:   "HALLO!!! 🎉✨ Willkommen in der erstaunlichen Welt von A2A!",
		LanguageJapanese: "HELLO THERE!!! 🎉✨ A2Aの素晴らしい世界へようこそ！",
	},
	StyleMultilingual: {
		LanguageEnglish:  multilingualShort,
		LanguageSpanish:  multilingualShort,
		LanguageFrench:   multilingualShort,
		LanguageGerman:   multilingualShort,
		LanguageJapanese: multilingualShort,
	},
}}
