// Package agent holds the executors behind the hello world agents and the
// agent cards that advertise them.
package agent

import (
	"context"
	"log/slog"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
	"github.com/igorsilveira/helloext/pkg/extension/greetingstyle"
	"github.com/igorsilveira/helloext/pkg/extension/randomgreeting"
	"github.com/igorsilveira/helloext/pkg/telemetry"
)

// DefaultReply is what an agent answers when no extension applies.
const DefaultReply = "Hello World"

// Replier produces the text reply for a request. Executors in this package
// implement it so a Streamer can wrap them.
type Replier interface {
	Reply(ctx context.Context, reqCtx *a2a.RequestContext) string
}

// HelloWorld answers with a greeting shaped by the greeting style and
// random greeting extensions. A nil extension is disabled.
type HelloWorld struct {
	style  *greetingstyle.Extension
	random *randomgreeting.Extension
}

func NewHelloWorld(style *greetingstyle.Extension, random *randomgreeting.Extension) *HelloWorld {
	return &HelloWorld{style: style, random: random}
}

// Reply checks the random greeting first, then the greeting style.
func (a *HelloWorld) Reply(ctx context.Context, reqCtx *a2a.RequestContext) string {
	text := reqCtx.Text()
	logger := telemetry.Component(ctx, "agent").With(slog.String("task_id", reqCtx.TaskID))

	if a.random != nil {
		if mode := a.random.Activation(reqCtx.RequestedExtensions, text); mode != extension.ModeNone {
			reqCtx.Activate(randomgreeting.URI)
			structured, present := structuredParams(reqCtx, randomgreeting.URI)
			params := randomgreeting.Resolve(structured, present, text, reqCtx.TaskID)
			res, rpcErr := a.random.Generate(params)
			if rpcErr != nil {
				reqCtx.ReportFailure(randomgreeting.URI, rpcErr)
				logger.Info("random greeting failed", slog.Int("code", rpcErr.Code), slog.String("err", rpcErr.Message))
				return errorReply(rpcErr)
			}
			logger.Debug("random greeting",
				slog.String("mode", string(mode)),
				slog.String("style", string(res.Selection.Style)),
				slog.String("language", string(res.Selection.Language)),
			)
			return res.Summary()
		}
	}

	if a.style != nil {
		if mode := a.style.Activation(reqCtx.RequestedExtensions, text); mode != extension.ModeNone {
			reqCtx.Activate(greetingstyle.URI)
			structured, present := structuredParams(reqCtx, greetingstyle.URI)
			p := greetingstyle.Resolve(structured, present, text)
			logger.Debug("styled greeting",
				slog.String("mode", string(mode)),
				slog.String("style", string(p.Style)),
				slog.String("language", string(p.Language)),
			)
			return a.style.Greeting(p.Style, p.Language)
		}
	}

	return DefaultReply
}

func (a *HelloWorld) Execute(ctx context.Context, reqCtx *a2a.RequestContext, q a2a.Queue) error {
	return q.Enqueue(ctx, replyMessage(reqCtx, a.Reply(ctx, reqCtx)))
}

func (a *HelloWorld) Cancel(context.Context, *a2a.RequestContext, a2a.Queue) error {
	return a2a.ErrCancelNotSupported
}

func structuredParams(reqCtx *a2a.RequestContext, uri string) (map[string]any, bool) {
	if reqCtx.Message == nil {
		return nil, false
	}
	return reqCtx.Message.ExtensionParams(uri)
}

func errorReply(err *a2a.JSONRPCError) string {
	return "Error: " + err.Message
}

func replyMessage(reqCtx *a2a.RequestContext, text string) *a2a.Message {
	msg := a2a.NewTextMessage(a2a.RoleAgent, text)
	msg.TaskID = reqCtx.TaskID
	msg.ContextID = reqCtx.ContextID
	return msg
}
