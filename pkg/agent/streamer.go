package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/a2a"
)

// Streamer turns a Replier into a task-producing executor: the reply is
// published word by word as working status updates, then as an artifact
// named "response", then the task completes.
type Streamer struct {
	inner Replier
}

func NewStreamer(inner Replier) *Streamer {
	return &Streamer{inner: inner}
}

func (s *Streamer) Execute(ctx context.Context, reqCtx *a2a.RequestContext, q a2a.Queue) error {
	reply := s.inner.Reply(ctx, reqCtx)

	for _, chunk := range Chunks(reply) {
		msg := replyMessage(reqCtx, chunk)
		if err := q.Enqueue(ctx, s.status(reqCtx, a2a.TaskStateWorking, msg, false)); err != nil {
			return err
		}
	}

	artifact := &a2a.TaskArtifactUpdateEvent{
		Kind:      a2a.KindArtifactUpdate,
		TaskID:    reqCtx.TaskID,
		ContextID: reqCtx.ContextID,
		Artifact: a2a.Artifact{
			ArtifactID: uuid.NewString(),
			Name:       "response",
			Parts:      []a2a.Part{a2a.TextPart(reply)},
		},
		LastChunk: true,
	}
	if err := q.Enqueue(ctx, artifact); err != nil {
		return err
	}
	return q.Enqueue(ctx, s.status(reqCtx, a2a.TaskStateCompleted, nil, true))
}

func (s *Streamer) Cancel(context.Context, *a2a.RequestContext, a2a.Queue) error {
	return a2a.ErrCancelNotSupported
}

func (s *Streamer) status(reqCtx *a2a.RequestContext, state a2a.TaskState, msg *a2a.Message, final bool) *a2a.TaskStatusUpdateEvent {
	return &a2a.TaskStatusUpdateEvent{
		Kind:      a2a.KindStatusUpdate,
		TaskID:    reqCtx.TaskID,
		ContextID: reqCtx.ContextID,
		Status:    a2a.TaskStatus{State: state, Message: msg},
		Final:     final,
	}
}

// Chunks splits text before every space, so that concatenating the chunks
// gives back text.
func Chunks(text string) []string {
	var out []string
	for len(text) > 0 {
		i := strings.IndexByte(text[1:], ' ')
		if i < 0 {
			out = append(out, text)
			break
		}
		out = append(out, text[:i+1])
		text = text[i+1:]
	}
	return out
}
