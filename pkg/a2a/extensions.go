package a2a

import (
	"maps"
	"slices"
	"strings"
)

// ExtensionsHeader carries the comma separated URIs a client activates. The
// server echoes back the subset it actually applied.
const ExtensionsHeader = "X-A2A-Extensions"

// GRPCExtensionsKey is the metadata key used for the same purpose over gRPC.
const GRPCExtensionsKey = "x-a2a-extensions"

// ExtensionSet is an immutable set of extension URIs.
type ExtensionSet struct {
	uris map[string]struct{}
}

// ParseExtensions accepts raw header values, each possibly a comma separated
// list, and returns the set of non-empty trimmed URIs.
func ParseExtensions(values ...string) ExtensionSet {
	set := ExtensionSet{uris: make(map[string]struct{})}
	for _, v := range values {
		for _, uri := range strings.Split(v, ",") {
			uri = strings.TrimSpace(uri)
			if uri != "" {
				set.uris[uri] = struct{}{}
			}
		}
	}
	return set
}

func NewExtensionSet(uris ...string) ExtensionSet {
	return ParseExtensions(uris...)
}

func (s ExtensionSet) Has(uri string) bool {
	_, ok := s.uris[uri]
	return ok
}

func (s ExtensionSet) Len() int {
	return len(s.uris)
}

// List returns the URIs sorted.
func (s ExtensionSet) List() []string {
	return slices.Sorted(maps.Keys(s.uris))
}

func (s ExtensionSet) String() string {
	return strings.Join(s.List(), ", ")
}
