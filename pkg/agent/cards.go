package agent

import (
	"fmt"

	"github.com/igorsilveira/helloext/pkg/a2a"
)

type Kind string

const (
	KindHello Kind = "hello"
	KindTime  Kind = "time"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindHello, KindTime:
		return Kind(s), nil
	}
	return "", fmt.Errorf("agent: unknown kind %q (want hello or time)", s)
}

var (
	helloWorldSkill = a2a.Skill{
		ID:          "hello_world",
		Name:        "Returns hello world",
		Description: "just returns hello world",
		Tags:        []string{"hello world"},
		Examples:    []string{"hi", "hello world"},
	}
	superHelloWorldSkill = a2a.Skill{
		ID:          "super_hello_world",
		Name:        "Returns a SUPER Hello World",
		Description: "A more enthusiastic greeting, only for authenticated users.",
		Tags:        []string{"hello world", "super", "extended"},
		Examples:    []string{"super hi", "give me a super hello"},
	}
	greetingStyleSkill = a2a.Skill{
		ID:          "greeting_style",
		Name:        "Customizable Greeting Styles",
		Description: "Get greetings in different styles and languages using the greeting style extension.",
		Tags:        []string{"greeting", "style", "multilingual", "extension"},
		Examples: []string{
			"formal greeting in French",
			"enthusiastic hello in Japanese",
			"casual greeting in Spanish",
			"multilingual greeting",
		},
	}
	randomGreetingSkill = a2a.Skill{
		ID:          "random_greeting",
		Name:        "Random Greeting Generator",
		Description: "Generate random greetings with random style and language combinations using the message/random method.",
		Tags:        []string{"random", "greeting", "method", "extension"},
		Examples: []string{
			"Generate a random greeting",
			"Random hello with some exclusions",
			"Surprise me with a greeting",
		},
	}
	timeGreetingSkill = a2a.Skill{
		ID:          "time_greeting",
		Name:        "Time-Based Greeting Generator",
		Description: "Generate contextually appropriate greetings based on current time of day with timezone and language support.",
		Tags:        []string{"greeting", "time", "timezone", "multilingual", "extension"},
		Examples: []string{
			"time greeting",
			"good morning",
			"time greeting in Tokyo",
			"formal time greeting in Spanish",
			"what time is it",
		},
	}
)

// CardConfig holds the parts of the cards that come from configuration. An
// empty Name keeps "Hello World Agent".
type CardConfig struct {
	Kind      Kind
	Name      string
	URL       string
	Streaming bool
}

// Cards builds the public card and the authenticated extended card, each
// advertising every extension in exts.
func Cards(cfg CardConfig, exts ...a2a.ExtensionDescriptor) (public, extended a2a.AgentCard) {
	name := cfg.Name
	if name == "" {
		name = "Hello World Agent"
	}
	base := a2a.AgentCard{
		Name:               name,
		Description:        "Just a hello world agent with greeting style extension support",
		URL:                cfg.URL,
		Version:            "1.0.0",
		ProtocolVersion:    a2a.ProtocolVersion,
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Capabilities:       a2a.Capabilities{Streaming: cfg.Streaming},
		Skills:             []a2a.Skill{},

		SupportsAuthenticatedExtendedCard: true,
	}
	extraSkills := []a2a.Skill{greetingStyleSkill, randomGreetingSkill}
	extendedDescription := "The full-featured hello world agent for authenticated users with greeting style extension."
	if cfg.Kind == KindTime {
		base.Description = "Just a hello world agent"
		extraSkills = []a2a.Skill{timeGreetingSkill}
		extendedDescription = "The full-featured hello world agent for authenticated users."
	}

	pb := a2a.NewCardBuilder(base).WithSkill(helloWorldSkill)
	eb := a2a.NewCardBuilder(base).WithSkill(helloWorldSkill).WithSkill(superHelloWorldSkill)
	for _, s := range extraSkills {
		pb = pb.WithSkill(s)
		eb = eb.WithSkill(s)
	}
	for _, d := range exts {
		pb = pb.WithExtension(d)
		eb = eb.WithExtension(d)
	}

	public = pb.Build()
	extended = eb.Build()
	extended.Name = name + " - Extended Edition"
	extended.Description = extendedDescription
	extended.Version = "1.0.1"
	return public, extended
}
