// Package extension holds the pieces shared by every A2A extension: the
// descriptor advertised on the agent card, activation, parameter decoding
// and the structured error codes.
package extension

import (
	"slices"

	"github.com/igorsilveira/helloext/pkg/a2a"
)

type Kind string

const (
	KindData   Kind = "data"
	KindMethod Kind = "method"
)

// Spec is the input to NewDescriptor. Metadata is the exact block placed in
// the agent card under the extension's URI.
type Spec struct {
	URI         string
	Name        string
	Description string
	Version     string
	Kind        Kind
	Methods     []string
	Metadata    map[string]any
}

// Descriptor identifies an extension. It cannot be changed after
// construction; accessors hand out copies.
type Descriptor struct {
	spec Spec
}

func NewDescriptor(s Spec) Descriptor {
	s.Methods = slices.Clone(s.Methods)
	s.Metadata = a2a.CloneMetadata(s.Metadata)
	return Descriptor{spec: s}
}

func (d Descriptor) URI() string         { return d.spec.URI }
func (d Descriptor) Name() string        { return d.spec.Name }
func (d Descriptor) Description() string { return d.spec.Description }
func (d Descriptor) Version() string     { return d.spec.Version }
func (d Descriptor) Kind() Kind          { return d.spec.Kind }

// ExtensionURI satisfies a2a.ExtensionDescriptor.
func (d Descriptor) ExtensionURI() string { return d.spec.URI }

func (d Descriptor) Methods() []string {
	return slices.Clone(d.spec.Methods)
}

func (d Descriptor) Metadata() map[string]any {
	return a2a.CloneMetadata(d.spec.Metadata)
}

// Declares reports whether method is one of the extension's methods.
func (d Descriptor) Declares(method string) bool {
	return slices.Contains(d.spec.Methods, method)
}
