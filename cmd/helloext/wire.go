package helloext

import (
	"fmt"
	"log/slog"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/agent"
	"github.com/igorsilveira/helloext/pkg/audit"
	"github.com/igorsilveira/helloext/pkg/config"
	"github.com/igorsilveira/helloext/pkg/extension"
	"github.com/igorsilveira/helloext/pkg/extension/greetingstyle"
	"github.com/igorsilveira/helloext/pkg/extension/randomgreeting"
	"github.com/igorsilveira/helloext/pkg/extension/timegreeting"
	"github.com/igorsilveira/helloext/pkg/extension/timestamp"
	"github.com/igorsilveira/helloext/pkg/extension/traceability"
)

// documented lists every extension the docs server publishes, enabled or not.
func documented(cfg *config.Config) []extension.Documented {
	return []extension.Documented{
		greetingstyle.New(),
		randomgreeting.New(),
		timegreeting.New(timegreeting.WithStrictTimezones(cfg.Extensions.StrictTimezones)),
		timestamp.New(),
		traceability.New(),
	}
}

// buildHandler assembles the agent selected by cfg.Agent.Kind behind an A2A
// handler. The returned close function releases the audit database.
func buildHandler(cfg *config.Config, logger *slog.Logger) (*a2a.Handler, func() error, error) {
	kind, err := agent.ParseKind(cfg.Agent.Kind)
	if err != nil {
		return nil, nil, err
	}

	var (
		replier interface {
			agent.Replier
			a2a.Executor
		}
		exts    []a2a.ExtensionDescriptor
		methods []a2a.MethodHandler
	)
	switch kind {
	case agent.KindTime:
		tg := timegreeting.New(timegreeting.WithStrictTimezones(cfg.Extensions.StrictTimezones))
		replier = agent.NewTimeGreeter(tg)
		exts = append(exts, tg)
		methods = append(methods, tg)
	default:
		var (
			style  *greetingstyle.Extension
			random *randomgreeting.Extension
		)
		if cfg.Extensions.GreetingStyle {
			style = greetingstyle.New()
			exts = append(exts, style)
		}
		if cfg.Extensions.RandomGreeting {
			random = randomgreeting.New()
			exts = append(exts, random)
			methods = append(methods, random)
		}
		replier = agent.NewHelloWorld(style, random)
	}

	var decorators []a2a.QueueDecorator
	if cfg.Extensions.Timestamp {
		ts := timestamp.New()
		exts = append(exts, ts)
		decorators = append(decorators, ts.Decorator())
	}
	if cfg.Extensions.Traceability {
		tr := traceability.New(traceability.WithAgentName(cfg.Agent.Name))
		exts = append(exts, tr)
		decorators = append(decorators, tr.Decorator())
	}

	var executor a2a.Executor = replier
	if cfg.Agent.Streaming {
		executor = agent.NewStreamer(replier)
	}

	public, extended := agent.Cards(agent.CardConfig{
		Kind:      kind,
		Name:      cfg.Agent.Name,
		URL:       cfg.Agent.URL,
		Streaming: cfg.Agent.Streaming,
	}, exts...)

	closeFn := func() error { return nil }
	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		if err := config.EnsureDataDir(); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		auditLog, closeFn, err = audit.Open(cfg.Audit.DSN)
		if err != nil {
			return nil, nil, err
		}
	}

	h := a2a.NewHandler(a2a.HandlerConfig{
		Card:         public,
		ExtendedCard: &extended,
		Executor:     executor,
		Methods:      methods,
		Decorators:   decorators,
		AuditLog:     auditLog,
		Logger:       logger,
		AuthToken:    cfg.Gateway.AuthToken,
	})
	return h, closeFn, nil
}
