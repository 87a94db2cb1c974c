package agent

import (
	"context"
	"log/slog"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
	"github.com/igorsilveira/helloext/pkg/extension/timegreeting"
	"github.com/igorsilveira/helloext/pkg/telemetry"
)

// TimeGreeter answers with a greeting for the time of day when the time
// greeting extension applies.
type TimeGreeter struct {
	ext *timegreeting.Extension
}

func NewTimeGreeter(ext *timegreeting.Extension) *TimeGreeter {
	return &TimeGreeter{ext: ext}
}

func (a *TimeGreeter) Reply(ctx context.Context, reqCtx *a2a.RequestContext) string {
	text := reqCtx.Text()
	if a.ext == nil {
		return DefaultReply
	}
	mode := a.ext.Activation(reqCtx.RequestedExtensions, text)
	if mode == extension.ModeNone {
		return DefaultReply
	}
	reqCtx.Activate(timegreeting.URI)

	structured, present := structuredParams(reqCtx, timegreeting.URI)
	params := timegreeting.Resolve(structured, present, text, reqCtx.TaskID)
	res, rpcErr := a.ext.Handle(params)
	logger := telemetry.Component(ctx, "agent").With(slog.String("task_id", reqCtx.TaskID))
	if rpcErr != nil {
		reqCtx.ReportFailure(timegreeting.URI, rpcErr)
		logger.Info("time greeting failed", slog.Int("code", rpcErr.Code), slog.String("err", rpcErr.Message))
		return errorReply(rpcErr)
	}
	if res.Context.Warning != "" {
		logger.Warn("time greeting fell back to local time", slog.String("warning", res.Context.Warning))
	}
	logger.Debug("time greeting",
		slog.String("mode", string(mode)),
		slog.String("period", string(res.Context.Period)),
		slog.String("timezone", res.Context.Timezone),
	)
	return res.Text
}

func (a *TimeGreeter) Execute(ctx context.Context, reqCtx *a2a.RequestContext, q a2a.Queue) error {
	return q.Enqueue(ctx, replyMessage(reqCtx, a.Reply(ctx, reqCtx)))
}

func (a *TimeGreeter) Cancel(context.Context, *a2a.RequestContext, a2a.Queue) error {
	return a2a.ErrCancelNotSupported
}
