// Package randomgreeting is a method extension adding message/random, which
// returns a greeting in a randomly drawn style and language.
package randomgreeting

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
	"github.com/igorsilveira/helloext/pkg/greeting"
)

const (
	URI    = "http://localhost:8080/extensions/random-greeting-method/v1"
	Slug   = "random-greeting-method"
	Method = "message/random"
)

var keywords = extension.Keywords{"random greeting", "surprise me", "random hello", "generate random"}

// Params are the message/random parameters other than id.
type Params struct {
	ExcludeStyles    []string `json:"excludeStyles,omitempty"`
	ExcludeLanguages []string `json:"excludeLanguages,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
}

type Selection struct {
	Style    greeting.Style
	Language greeting.Language
	Seed     *int64
}

type Result struct {
	MessageID string
	Text      string
	Selection Selection
}

// Message renders the result as the agent message message/random returns.
func (r Result) Message() *a2a.Message {
	return &a2a.Message{
		Kind:      a2a.KindMessage,
		MessageID: r.MessageID,
		Role:      a2a.RoleAgent,
		Parts:     []a2a.Part{a2a.TextPart(r.Text)},
		Metadata: map[string]any{
			"randomSelection": selectionMap(r.Selection),
		},
	}
}

// Summary is the greeting followed by the drawn style and language.
func (r Result) Summary() string {
	return fmt.Sprintf("%s [Style: %s, Language: %s]", r.Text, r.Selection.Style, r.Selection.Language)
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
		Name:        "Random Greeting Method Extension",
		Description: "Adds message/random method for generating random greetings",
		Version:     "1.0.0",
		Kind:        extension.KindMethod,
		Methods:     []string{Method},
		Metadata: map[string]any{
			"uri":         URI,
			"name":        "Random Greeting Method Extension",
			"version":     "1.0.0",
			"type":        "method",
			"methods":     []string{Method},
			"description": "Adds message/random method for generating random greetings",
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
func (e *Extension) Methods() []string                { return e.desc.Methods() }

func (e *Extension) Activation(active a2a.ExtensionSet, text string) extension.Mode {
	return extension.Resolve(active, text, URI, e.matcher)
}

// Invoke serves message/random.
func (e *Extension) Invoke(_ context.Context, method string, raw json.RawMessage) (any, *a2a.JSONRPCError) {
	if method != Method {
		return nil, a2a.Errorf(a2a.ErrCodeNotFound, "method %q not found", method)
	}
	params, rpcErr := extension.DecodeParams(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	res, rpcErr := e.Generate(params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return res.Message(), nil
}

// Generate draws a style and then a language, each uniformly and
// independently from what the exclusions leave. A seed makes the draw
// reproducible.
func (e *Extension) Generate(params map[string]any) (*Result, *a2a.JSONRPCError) {
	if _, ok := extension.RequestID(params); !ok {
		return nil, extension.MissingID()
	}
	var p Params
	if rpcErr := extension.Bind(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	styles := available(greeting.Styles(), p.ExcludeStyles)
	langs := available(greeting.Languages(), p.ExcludeLanguages)
	if len(styles) == 0 || len(langs) == 0 {
		return nil, a2a.Errorf(extension.CodeNoValidCombination, "No valid style/language combinations available")
	}

	r := newRand(p.Seed)
	sel := Selection{
		Style:    styles[r.IntN(len(styles))],
		Language: langs[r.IntN(len(langs))],
		Seed:     p.Seed,
	}
	if !greeting.Random.Has(sel.Style, sel.Language) {
		return nil, a2a.Errorf(extension.CodeGenerationFailed, "Random generation failed: no greeting for %s/%s", sel.Style, sel.Language)
	}

	return &Result{
		MessageID: "msg-random-" + uuid.NewString()[:8],
		Text:      greeting.Random.Lookup(sel.Style, sel.Language),
		Selection: sel,
	}, nil
}

// Resolve builds message/random params for an agent request. Structured
// parameters are merged onto {id}; otherwise exclusions come from "no X" or
// "not X" phrases in the text.
func Resolve(structured map[string]any, present bool, text, requestID string) map[string]any {
	if present {
		return extension.WithID(requestID, structured)
	}
	text = strings.ToLower(text)
	params := map[string]any{"id": requestID}
	var styles, langs []string
	for _, x := range styleExclusions {
		if excluded(text, x.Keyword) {
			styles = append(styles, x.Value)
		}
	}
	for _, x := range languageExclusions {
		if excluded(text, x.Keyword) {
			langs = append(langs, x.Value)
		}
	}
	if len(styles) > 0 {
		params["excludeStyles"] = styles
	}
	if len(langs) > 0 {
		params["excludeLanguages"] = langs
	}
	return params
}

var styleExclusions = []extension.Mapping{
	{Keyword: "formal", Value: "formal"},
	{Keyword: "enthusiastic", Value: "enthusiastic"},
	{Keyword: "casual", Value: "casual"},
	{Keyword: "multilingual", Value: "multilingual"},
}

var languageExclusions = []extension.Mapping{
	{Keyword: "english", Value: "en"},
	{Keyword: "spanish", Value: "es"},
	{Keyword: "french", Value: "fr"},
	{Keyword: "german", Value: "de"},
	{Keyword: "japanese", Value: "ja"},
}

func excluded(text, word string) bool {
	return extension.ContainsAny(text, "no "+word, "not "+word)
}

func available[T ~string](all []T, exclude []string) []T {
	return slices.DeleteFunc(all, func(v T) bool {
		return slices.Contains(exclude, string(v))
	})
}

func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		s := uint64(*seed)
		return rand.New(rand.NewPCG(s, s))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func selectionMap(s Selection) map[string]any {
	m := map[string]any{
		"style":    string(s.Style),
		"language": string(s.Language),
	}
	if s.Seed != nil {
		m["seed"] = *s.Seed
	}
	return m
}

func (e *Extension) Documentation() extension.Documentation {
	return extension.Documentation{
		Slug:     Slug,
		Title:    "Random Greeting Method Extension",
		Summary:  "A2A method extension adding message/random, which returns a greeting in a random style and language.",
		Keywords: []string(keywords),
		Parameters: []extension.Parameter{
			{Name: "id", Type: "string", Description: "Unique identifier for the request"},
			{Name: "excludeStyles", Type: "array", Default: "[]", Description: "Styles to exclude from random selection"},
			{Name: "excludeLanguages", Type: "array", Default: "[]", Description: "Languages to exclude from random selection"},
			{Name: "seed", Type: "integer", Description: "Random seed for reproducible results"},
		},
		Examples: []extension.Example{
			{
				Title:   "Basic random greeting",
				Request: `{"jsonrpc":"2.0","id":"random-test-1","method":"message/random","params":{"id":"task-random-1"}}`,
			},
			{
				Title:   "With exclusions",
				Request: `{"jsonrpc":"2.0","id":"random-test-2","method":"message/random","params":{"id":"task-random-2","excludeStyles":["enthusiastic"],"excludeLanguages":["ja","de"]}}`,
			},
		},
		Changelog: extension.Changelog{
			Version: "1.0.0",
			Date:    "2024-08-26",
			Changes: []extension.Change{{
				Type:        "initial",
				Description: "Initial release of Random Greeting Method Extension",
				Details: []string{
					"Added message/random JSON-RPC method",
					"Support for random style and language selection",
					"Exclusion filters for styles and languages",
					"Reproducible results with optional seed parameter",
					"Complete A2A method extension implementation",
				},
			}},
		},
		Schema: &jsonschema.Schema{
			Schema: extension.SchemaDraft,
			Title:  "Random Greeting Method Parameters",
			Type:   "object",
			Properties: map[string]*jsonschema.Schema{
				"id":               {Type: "string", Description: "Unique identifier for the request"},
				"excludeStyles":    extension.EnumArraySchema("List of styles to exclude from random selection", greeting.StyleNames()),
				"excludeLanguages": extension.EnumArraySchema("List of languages to exclude from random selection", greeting.LanguageNames()),
				"seed":             {Type: "integer", Minimum: jsonschema.Ptr(0.0), Description: "Optional random seed for reproducible results"},
			},
			PropertyOrder:        []string{"id", "excludeStyles", "excludeLanguages", "seed"},
			Required:             []string{"id"},
			AdditionalProperties: extension.Forbidden(),
		},
	}
}
