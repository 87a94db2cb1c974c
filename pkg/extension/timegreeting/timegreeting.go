// Package timegreeting is a method extension adding greeting/time-based,
// which greets according to the time of day in a requested zone.
package timegreeting

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
	"github.com/igorsilveira/helloext/pkg/greeting"
)

const (
	URI    = "http://localhost:8080/extensions/time-greeting/v1"
	Slug   = "time-greeting"
	Method = "greeting/time-based"
)

var keywords = extension.Keywords{
	"time greeting", "good morning", "good afternoon", "good evening",
	"what time is it", "current time greeting", "greet me based on time",
	"time based greeting", "greeting with time",
}

var supportedTimezones = []string{
	"UTC", "local", "GMT",
	"America/New_York", "America/Los_Angeles", "America/Chicago", "America/Denver",
	"Europe/London", "Europe/Paris", "Europe/Berlin", "Europe/Rome",
	"Asia/Tokyo", "Asia/Shanghai", "Asia/Mumbai", "Asia/Dubai",
	"Australia/Sydney", "Pacific/Auckland",
}

// SupportedTimezones returns the zones advertised in the agent card.
func SupportedTimezones() []string {
	return slices.Clone(supportedTimezones)
}

// Params are the greeting/time-based parameters other than id. Omitted
// fields take their defaults.
type Params struct {
	Timezone    string            `json:"timezone,omitempty"`
	Format      Format            `json:"format,omitempty"`
	IncludeTime *bool             `json:"includeTime,omitempty"`
	Style       Style             `json:"style,omitempty"`
	Language    greeting.Language `json:"language,omitempty"`
}

type TimeContext struct {
	CurrentTime string
	Timezone    string
	Period      Period
	Hour        int
	Style       Style
	Language    greeting.Language
	Warning     string
}

type Result struct {
	MessageID string
	Text      string
	Context   TimeContext
}

// Message renders the result as the agent message greeting/time-based
// returns.
func (r Result) Message() *a2a.Message {
	tc := map[string]any{
		"currentTime": r.Context.CurrentTime,
		"timezone":    r.Context.Timezone,
		"timePeriod":  string(r.Context.Period),
		"hour":        r.Context.Hour,
		"style":       string(r.Context.Style),
		"language":    string(r.Context.Language),
	}
	if r.Context.Warning != "" {
		tc["warning"] = r.Context.Warning
	}
	return &a2a.Message{
		Kind:      a2a.KindMessage,
		MessageID: r.MessageID,
		Role:      a2a.RoleAgent,
		Parts:     []a2a.Part{a2a.TextPart(r.Text)},
		Metadata:  map[string]any{"timeContext": tc},
	}
}

type Extension struct {
	desc    extension.Descriptor
	clock   Clock
	strict  bool
	matcher extension.Matcher
}

type Option func(*Extension)

func WithClock(c Clock) Option {
	return func(e *Extension) { e.clock = c }
}

// WithMatcher replaces the keyword matcher deciding implicit activation.
func WithMatcher(m extension.Matcher) Option {
	return func(e *Extension) { e.matcher = m }
}

// WithStrictTimezones makes an unknown timezone a -32001 error instead of a
// local-time fallback.
func WithStrictTimezones(strict bool) Option {
	return func(e *Extension) { e.strict = strict }
}

func New(opts ...Option) *Extension {
	e := &Extension{matcher: keywords, desc: extension.NewDescriptor(extension.Spec{
		URI:         URI,
		Name:        "Time-Based Greeting Extension",
		Description: "Provides contextually appropriate greetings based on current time of day",
		Version:     "1.0.0",
		Kind:        extension.KindMethod,
		Methods:     []string{Method},
		Metadata: map[string]any{
			"uri":                URI,
			"name":               "Time-Based Greeting Extension",
			"version":            "1.0.0",
			"type":               "method",
			"methods":            []string{Method},
			"description":        "Provides contextually appropriate greetings based on current time of day",
			"supportedTimezones": supportedTimezones,
			"supportedLanguages": greeting.LanguageNames(),
			"supportedStyles":    StyleNames(),
			"timePeriods":        PeriodNames(),
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

// Invoke serves greeting/time-based.
func (e *Extension) Invoke(_ context.Context, method string, raw json.RawMessage) (any, *a2a.JSONRPCError) {
	if method != Method {
		return nil, a2a.Errorf(a2a.ErrCodeNotFound, "method %q not found", method)
	}
	params, rpcErr := extension.DecodeParams(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	res, rpcErr := e.Handle(params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return res.Message(), nil
}

// Handle builds the greeting for params. The language is checked before the
// clock is read; an unknown style or format silently takes its default.
func (e *Extension) Handle(params map[string]any) (res *Result, rpcErr *a2a.JSONRPCError) {
	if _, ok := extension.RequestID(params); !ok {
		return nil, extension.MissingID()
	}
	p, rpcErr := readParams(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	defer func() {
		if r := recover(); r != nil {
			res, rpcErr = nil, a2a.Errorf(extension.CodeGenerationFailed, "Time calculation failed: %v", r)
		}
	}()

	in := e.clock.Resolve(p.Timezone)
	if in.Fallback() && e.strict {
		return nil, a2a.Errorf(extension.CodeInvalidTimezone, "Invalid timezone: %s", p.Timezone)
	}

	text := Greeting(in.Period(), p.Language, p.Style)
	if *p.IncludeTime {
		text += suffix(in, p.Format)
	}
	return &Result{
		MessageID: "msg-time-greeting-" + uuid.NewString()[:8],
		Text:      text,
		Context: TimeContext{
			CurrentTime: FormatTime(in.Time, p.Format),
			Timezone:    in.Label,
			Period:      in.Period(),
			Hour:        in.Time.Hour(),
			Style:       p.Style,
			Language:    p.Language,
			Warning:     in.Warning,
		},
	}, nil
}

// readParams reads params leniently. Only absent fields take defaults; an
// unusable style or format is clamped, an unusable timezone is passed on to
// be rejected by the clock, and any language outside the catalog is an
// error.
func readParams(params map[string]any) (Params, *a2a.JSONRPCError) {
	p := Params{
		Timezone: LocalZone,
		Format:   Format12h,
		Style:    StyleCasual,
		Language: greeting.DefaultLanguage,
	}
	if v, ok := params["timezone"]; ok {
		p.Timezone = rawString(v)
	}
	if s, ok := params["format"].(string); ok && (Format(s) == Format12h || Format(s) == Format24h) {
		p.Format = Format(s)
	}
	if s, ok := params["style"].(string); ok && validStyle(Style(s)) {
		p.Style = Style(s)
	}
	if v, ok := params["language"]; ok {
		s, isString := v.(string)
		if !isString || !greeting.ValidLanguage(greeting.Language(s)) {
			return p, a2a.Errorf(extension.CodeUnsupportedLanguage, "Unsupported language: %s", rawString(v))
		}
		p.Language = greeting.Language(s)
	}
	include := true
	if v, ok := params["includeTime"]; ok {
		include = truthy(v)
	}
	p.IncludeTime = &include
	return p, nil
}

// rawString renders a decoded JSON value as text: strings as themselves,
// anything else in its JSON form.
func rawString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// truthy reports whether a decoded JSON value counts as set: false, null,
// zero and empty values do not.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

var timezoneRules = []extension.Mapping{
	{Keyword: "utc", Value: "UTC"},
	{Keyword: "gmt", Value: "GMT"},
	{Keyword: "new york", Value: "America/New_York"},
	{Keyword: "los angeles", Value: "America/Los_Angeles"},
	{Keyword: "london", Value: "Europe/London"},
	{Keyword: "paris", Value: "Europe/Paris"},
	{Keyword: "tokyo", Value: "Asia/Tokyo"},
	{Keyword: "sydney", Value: "Australia/Sydney"},
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

// Resolve builds greeting/time-based params for an agent request.
// Structured parameters are merged onto {id}; otherwise they are read from
// the text.
func Resolve(structured map[string]any, present bool, text, requestID string) map[string]any {
	if present {
		return extension.WithID(requestID, structured)
	}
	text = strings.ToLower(text)
	params := map[string]any{"id": requestID}
	if tz, ok := extension.FirstMatch(text, timezoneRules); ok {
		params["timezone"] = tz
	}
	switch {
	case strings.Contains(text, "formal"):
		params["style"] = string(StyleFormal)
	case strings.Contains(text, "brief"):
		params["style"] = string(StyleBrief)
	default:
		params["style"] = string(StyleCasual)
	}
	if lang, ok := extension.FirstMatch(text, languageRules); ok {
		params["language"] = lang
	}
	if extension.ContainsAny(text, "24 hour", "24h", "military time") {
		params["format"] = string(Format24h)
	}
	if extension.ContainsAny(text, "no time", "without time") {
		params["includeTime"] = false
	}
	return params
}

func (e *Extension) Documentation() extension.Documentation {
	return extension.Documentation{
		Slug:     Slug,
		Title:    "Time-Based Greeting Extension",
		Summary:  "A2A method extension adding greeting/time-based, which greets according to the time of day with timezone, style and language support.",
		Keywords: []string(keywords),
		Parameters: []extension.Parameter{
			{Name: "id", Type: "string", Description: "Unique identifier for the request"},
			{Name: "timezone", Type: "string", Default: `"local"`, Description: "Target timezone (e.g., 'UTC', 'America/New_York', 'Asia/Tokyo')"},
			{Name: "format", Type: "enum", Default: `"12h"`, Description: "Time format preference: 12h or 24h"},
			{Name: "includeTime", Type: "boolean", Default: "true", Description: "Whether to include current time in the response"},
			{Name: "style", Type: "enum", Default: `"casual"`, Description: "casual, formal or brief"},
			{Name: "language", Type: "enum", Default: `"en"`, Description: "en, es, fr, de or ja"},
		},
		Examples: []extension.Example{
			{
				Title:   "Formal greeting in UTC",
				Request: `{"jsonrpc":"2.0","id":"time-test-1","method":"greeting/time-based","params":{"id":"test-1","timezone":"UTC","style":"formal"}}`,
			},
			{
				Title:   "Spanish greeting with 24 hour time",
				Request: `{"jsonrpc":"2.0","id":"time-test-2","method":"greeting/time-based","params":{"id":"test-2","language":"es","format":"24h"}}`,
			},
		},
		Changelog: extension.Changelog{
			Version: "1.0.0",
			Date:    "2024-08-26",
			Changes: []extension.Change{{
				Type:        "initial",
				Description: "Initial release of Time-Based Greeting Extension",
				Details: []string{
					"Support for 7 time periods: dawn, morning, noon, afternoon, evening, night, late_night",
					"Support for 5 languages: English, Spanish, French, German, Japanese",
					"Support for 3 greeting styles: casual, formal, brief",
					"Timezone support with major world timezones",
					"Natural language parameter parsing",
					"A2A protocol compliance with proper extension metadata",
					"Comprehensive documentation and examples",
				},
			}},
		},
		Schema: &jsonschema.Schema{
			Schema: extension.SchemaDraft,
			Title:  "Time-Based Greeting Extension Parameters",
			Type:   "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {Type: "string", Description: "Unique identifier for the request"},
				"timezone": extension.WithDefault(&jsonschema.Schema{
					Type:        "string",
					Description: "Target timezone (e.g., 'UTC', 'America/New_York', 'Asia/Tokyo')",
					Examples:    []any{"UTC", "America/New_York", "Europe/London", "Asia/Tokyo"},
				}, LocalZone),
				"format":      extension.WithDefault(extension.EnumSchema("Time format preference", []string{"12h", "24h"}), "12h"),
				"includeTime": extension.WithDefault(&jsonschema.Schema{Type: "boolean", Description: "Whether to include current time in the response"}, true),
				"style":       extension.WithDefault(extension.EnumSchema("Greeting style preference", StyleNames()), "casual"),
				"language":    extension.WithDefault(extension.EnumSchema("Language for the greeting", greeting.LanguageNames()), "en"),
			},
			PropertyOrder:        []string{"id", "timezone", "format", "includeTime", "style", "language"},
			Required:             []string{"id"},
			AdditionalProperties: extension.Forbidden(),
			Examples: []any{
				map[string]any{"id": "test-1", "timezone": "UTC", "style": "formal"},
				map[string]any{"id": "test-2", "language": "es", "format": "24h"},
				map[string]any{"id": "test-3", "timezone": "Asia/Tokyo", "style": "brief", "includeTime": false},
			},
		},
	}
}
