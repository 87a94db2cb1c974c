// Package greetingstyle is a data extension that lets a caller choose the
// style and language of the agent's greeting.
package greetingstyle

import (
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
	"github.com/igorsilveira/helloext/pkg/greeting"
)

const (
	URI  = "http://localhost:8080/extensions/greeting-style/v1"
	Slug = "greeting-style"
)

var keywords = extension.Keywords{
	"formal", "enthusiastic", "multilingual", "casual",
	"spanish", "french", "german", "japanese",
}

var styleRules = []extension.Mapping{
	{Keyword: "formal", Value: string(greeting.StyleFormal)},
	{Keyword: "enthusiastic", Value: string(greeting.StyleEnthusiastic)},
	{Keyword: "multilingual", Value: string(greeting.StyleMultilingual)},
}

var languageRules = []extension.Mapping{
	{Keyword: "spanish", Value: "es"},
	{Keyword: "español", Value: "es"},
	{Keyword: "french", Value: "fr"},
	{Keyword: "français", Value: "fr"},
	{Keyword: "german", Value: "de"},
	{Keyword: "deutsch", Value: "de"},
	{Keyword: "japanese", Value: "ja"},
	{Keyword: "日本語", Value: "ja"},
}

type Params struct {
	Style    greeting.Style
	Language greeting.Language
}

type Extension struct {
	desc    extension.Descriptor
	matcher extension.Matcher
}

type Option func(*Extension)

// WithMatcher replaces the keyword matcher deciding implicit activation.
func WithMatcher(m extension.Matcher) Option {
	return func(e *Extension) { e.matcher = m }
}

func New(opts ...Option) *Extension {
	e := &Extension{matcher: keywords, desc: extension.NewDescriptor(extension.Spec{
		URI:         URI,
		Name:        "Greeting Style Extension",
		Description: "Customize greeting styles and languages",
		Version:     "1.0.0",
		Kind:        extension.KindData,
		Metadata: map[string]any{
			"name":                "Greeting Style Extension",
			"description":         "Customize greeting styles and languages",
			"version":             "1.0.0",
			"supported_styles":    greeting.StyleNames(),
			"supported_languages": greeting.LanguageNames(),
			"default_style":       string(greeting.DefaultStyle),
			"default_language":    string(greeting.DefaultLanguage),
			"examples": []map[string]any{
				{"style": "casual", "language": "en"},
				{"style": "formal", "language": "fr"},
				{"style": "enthusiastic", "language": "ja"},
				{"style": "multilingual", "language": "en"},
			},
		},
	})}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extension) Descriptor() extension.Descriptor { return e.desc }
func (e *Extension) ExtensionURI() string             { return URI }
func (e *Extension) Metadata() map[string]any         { return e.desc.Metadata() }

// Activation reports whether and how the extension applies to a request.
func (e *Extension) Activation(active a2a.ExtensionSet, text string) extension.Mode {
	return extension.Resolve(active, text, URI, e.matcher)
}

// Greeting returns the greeting for style and language. Each unsupported
// value is replaced by its default on its own axis.
func (e *Extension) Greeting(style greeting.Style, lang greeting.Language) string {
	if !greeting.ValidStyle(style) {
		style = greeting.DefaultStyle
	}
	if !greeting.ValidLanguage(lang) {
		lang = greeting.DefaultLanguage
	}
	return greeting.Styled.Lookup(style, lang)
}

// Resolve picks the parameters for a request. Structured parameters win
// outright; otherwise style and language are read from the text.
func Resolve(structured map[string]any, present bool, text string) Params {
	p := Params{Style: greeting.DefaultStyle, Language: greeting.DefaultLanguage}
	if present {
		if s, ok := structured["style"].(string); ok && s != "" {
			p.Style = greeting.Style(s)
		}
		if l, ok := structured["language"].(string); ok && l != "" {
			p.Language = greeting.Language(l)
		}
		return p
	}

	text = strings.ToLower(text)
	if s, ok := extension.FirstMatch(text, styleRules); ok {
		p.Style = greeting.Style(s)
	}
	if l, ok := extension.FirstMatch(text, languageRules); ok {
		p.Language = greeting.Language(l)
	}
	return p
}

func (e *Extension) Documentation() extension.Documentation {
	return extension.Documentation{
		Slug:     Slug,
		Title:    "Greeting Style Extension",
		Summary:  "A2A extension for customizing greeting styles and languages in agent responses.",
		Keywords: []string(keywords),
		Parameters: []extension.Parameter{
			{Name: "style", Type: "enum", Default: `"casual"`, Description: "casual, formal, enthusiastic or multilingual"},
			{Name: "language", Type: "enum", Default: `"en"`, Description: "en, es, fr, de or ja"},
		},
		Examples: []extension.Example{{
			Title:    "Formal French greeting",
			Request:  `{"metadata":{"extensions":{"` + URI + `":{"style":"formal","language":"fr"}}}}`,
			Response: greeting.Styled.Lookup(greeting.StyleFormal, greeting.LanguageFrench),
		}},
		Changelog: extension.Changelog{
			Version: "1.0.0",
			Date:    "2024-08-26",
			Changes: []extension.Change{{
				Type:        "initial",
				Description: "Initial release of Greeting Style Extension",
				Details: []string{
					"Support for 4 greeting styles: casual, formal, enthusiastic, multilingual",
					"Support for 5 languages: English, Spanish, French, German, Japanese",
					"Data extension for agent card metadata",
					"Profile extension for message parameter validation",
					"Comprehensive documentation and examples",
				},
			}},
		},
		Schema: &jsonschema.Schema{
			Schema: extension.SchemaDraft,
			Title:  "Greeting Style Extension Parameters",
			Type:   "object",
			Properties: map[string]*jsonschema.Schema{
				"style":    extension.WithDefault(extension.EnumSchema("The greeting style to use", greeting.StyleNames()), "casual"),
				"language": extension.WithDefault(extension.EnumSchema("The language code for the greeting", greeting.LanguageNames()), "en"),
			},
			AdditionalProperties: extension.Forbidden(),
			PropertyOrder:        []string{"style", "language"},
			Examples: []any{
				map[string]any{"style": "casual", "language": "en"},
				map[string]any{"style": "formal", "language": "fr"},
				map[string]any{"style": "enthusiastic", "language": "ja"},
			},
		},
	}
}
