package extension

import (
	"strings"

	"github.com/igorsilveira/helloext/pkg/a2a"
)

// Matcher decides implicit activation from message text. Implementations
// receive lowercased text.
type Matcher interface {
	Match(text string) bool
}

// Keywords matches when the text contains any keyword as a plain substring.
// There is no tokenization: "informal" contains "formal".
type Keywords []string

func (k Keywords) Match(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range k {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

type MatcherFunc func(text string) bool

func (f MatcherFunc) Match(text string) bool { return f(text) }

type Mode string

const (
	ModeNone     Mode = ""
	ModeExplicit Mode = "explicit"
	ModeImplicit Mode = "implicit"
)

// Resolve reports how uri is activated for a request: explicitly when the
// caller listed it, else implicitly when m matches the text.
func Resolve(active a2a.ExtensionSet, text, uri string, m Matcher) Mode {
	if active.Has(uri) {
		return ModeExplicit
	}
	if m != nil && m.Match(strings.ToLower(text)) {
		return ModeImplicit
	}
	return ModeNone
}

func IsActive(active a2a.ExtensionSet, text, uri string, m Matcher) bool {
	return Resolve(active, text, uri, m) != ModeNone
}

// Mapping is one entry of an ordered keyword table.
type Mapping struct {
	Keyword string
	Value   string
}

// FirstMatch scans table in order and returns the value of the first keyword
// contained in text.
func FirstMatch(text string, table []Mapping) (string, bool) {
	for _, m := range table {
		if strings.Contains(text, m.Keyword) {
			return m.Value, true
		}
	}
	return "", false
}

// ContainsAny reports whether text contains any of words.
func ContainsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
