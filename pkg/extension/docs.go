package extension

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaDraft is the JSON Schema dialect every extension schema declares.
const SchemaDraft = "https://json-schema.org/draft/2020-12/schema"

type Parameter struct {
	Name        string
	Type        string
	Default     string
	Description string
}

type Example struct {
	Title    string
	Request  string
	Response string
}

type Change struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
}

type Changelog struct {
	Version string   `json:"version"`
	Date    string   `json:"date"`
	Changes []Change `json:"changes"`
}

// Documentation is what the documentation server renders for an extension.
type Documentation struct {
	Slug       string
	Title      string
	Summary    string
	Keywords   []string
	Parameters []Parameter
	Examples   []Example
	Changelog  Changelog
	Schema     *jsonschema.Schema
}

// Documented is implemented by extensions that publish documentation.
type Documented interface {
	Descriptor() Descriptor
	Documentation() Documentation
}

// EnumSchema is a string property restricted to values.
func EnumSchema(description string, values []string) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &jsonschema.Schema{Type: "string", Description: description, Enum: enum}
}

// EnumArraySchema is an array of unique strings restricted to values.
func EnumArraySchema(description string, values []string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       EnumSchema("", values),
		UniqueItems: true,
	}
}

// WithDefault sets the schema's default to v.
func WithDefault(s *jsonschema.Schema, v any) *jsonschema.Schema {
	b, err := json.Marshal(v)
	if err == nil {
		s.Default = b
	}
	return s
}

// Forbidden is the schema no value satisfies. It renders as false and is
// used to close objects to additional properties.
func Forbidden() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
