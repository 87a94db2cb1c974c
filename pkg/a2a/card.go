package a2a

import "slices"

// ExtensionDescriptor is the view of an extension an agent card needs.
type ExtensionDescriptor interface {
	ExtensionURI() string
	Metadata() map[string]any
}

// CardBuilder assembles an AgentCard without mutating any card handed to it.
// Every With* method returns a new builder.
type CardBuilder struct {
	card AgentCard
}

func NewCardBuilder(base AgentCard) CardBuilder {
	return CardBuilder{card: base.Clone()}
}

func (b CardBuilder) WithExtension(d ExtensionDescriptor) CardBuilder {
	next := b.card.Clone()
	if next.Capabilities.Extensions == nil {
		next.Capabilities.Extensions = make(map[string]map[string]any)
	}
	next.Capabilities.Extensions[d.ExtensionURI()] = CloneMetadata(d.Metadata())
	return CardBuilder{card: next}
}

func (b CardBuilder) WithSkill(s Skill) CardBuilder {
	next := b.card.Clone()
	next.Skills = append(next.Skills, cloneSkill(s))
	return CardBuilder{card: next}
}

func (b CardBuilder) Build() AgentCard {
	return b.card.Clone()
}

// Clone returns a deep copy of the card.
func (c AgentCard) Clone() AgentCard {
	out := c
	out.DefaultInputModes = slices.Clone(c.DefaultInputModes)
	out.DefaultOutputModes = slices.Clone(c.DefaultOutputModes)
	if c.Skills != nil {
		out.Skills = make([]Skill, len(c.Skills))
		for i, s := range c.Skills {
			out.Skills[i] = cloneSkill(s)
		}
	}
	if c.Capabilities.Extensions != nil {
		out.Capabilities.Extensions = make(map[string]map[string]any, len(c.Capabilities.Extensions))
		for uri, md := range c.Capabilities.Extensions {
			out.Capabilities.Extensions[uri] = CloneMetadata(md)
		}
	}
	return out
}

// HasExtension reports whether the card advertises uri.
func (c AgentCard) HasExtension(uri string) bool {
	_, ok := c.Capabilities.Extensions[uri]
	return ok
}

func cloneSkill(s Skill) Skill {
	s.Tags = slices.Clone(s.Tags)
	s.Examples = slices.Clone(s.Examples)
	return s
}

// CloneMetadata deep copies a JSON-shaped metadata map.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = CloneMetadata(e)
		}
		return out
	default:
		return v
	}
}
