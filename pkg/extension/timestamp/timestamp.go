// Package timestamp is a data extension that stamps every message and
// artifact an agent produces with the time it was produced. It is only
// active when the caller requests it in the X-A2A-Extensions header.
package timestamp

import (
	"context"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
)

const corePath = "github.com/a2aproject/a2a-samples/extensions/timestamp/v1"

const (
	URI  = "https://" + corePath
	Slug = "timestamp"

	// Field is the metadata key holding the RFC 3339 UTC timestamp.
	Field = corePath + "/timestamp"
)

type Extension struct {
	desc extension.Descriptor
	now  func() time.Time
}

type Option func(*Extension)

func WithNow(now func() time.Time) Option {
	return func(e *Extension) { e.now = now }
}

func New(opts ...Option) *Extension {
	e := &Extension{
		desc: extension.NewDescriptor(extension.Spec{
			URI:         URI,
			Name:        "Timestamp Extension",
			Description: "Adds timestamps to messages and artifacts.",
			Version:     "1.0.0",
			Kind:        extension.KindData,
			Metadata: map[string]any{
				"uri":         URI,
				"description": "Adds timestamps to messages and artifacts.",
			},
		}),
		now: time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extension) Descriptor() extension.Descriptor { return e.desc }
func (e *Extension) ExtensionURI() string             { return URI }
func (e *Extension) Metadata() map[string]any         { return e.desc.Metadata() }

// Activate marks the extension active for the request when the caller asked
// for it. Message content never activates it.
func (e *Extension) Activate(reqCtx *a2a.RequestContext) bool {
	if !reqCtx.RequestedExtensions.Has(URI) {
		return false
	}
	reqCtx.Activate(URI)
	return true
}

// Stamp adds a timestamp to metadata unless one is already there, and
// returns the possibly allocated map.
func (e *Extension) Stamp(metadata map[string]any) map[string]any {
	if Has(metadata) {
		return metadata
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata[Field] = e.now().UTC().Format(time.RFC3339Nano)
	return metadata
}

func (e *Extension) StampMessage(m *a2a.Message) {
	if m != nil {
		m.Metadata = e.Stamp(m.Metadata)
	}
}

func (e *Extension) StampArtifact(a *a2a.Artifact) {
	if a != nil {
		a.Metadata = e.Stamp(a.Metadata)
	}
}

// StampEvent stamps what an event carries: a message, a status update's
// message, an artifact, or the artifacts and agent messages of a task.
func (e *Extension) StampEvent(ev a2a.Event) {
	switch v := ev.(type) {
	case *a2a.Message:
		e.StampMessage(v)
	case *a2a.TaskStatusUpdateEvent:
		e.StampMessage(v.Status.Message)
	case *a2a.TaskArtifactUpdateEvent:
		e.StampArtifact(&v.Artifact)
	case *a2a.Task:
		for i := range v.Artifacts {
			e.StampArtifact(&v.Artifacts[i])
		}
		for i := range v.History {
			if v.History[i].Role == a2a.RoleAgent {
				e.StampMessage(&v.History[i])
			}
		}
		e.StampMessage(v.Status.Message)
	}
}

// Decorator returns a QueueDecorator that stamps every event of requests
// that activated the extension.
func (e *Extension) Decorator() a2a.QueueDecorator {
	return func(reqCtx *a2a.RequestContext, q a2a.Queue) a2a.Queue {
		if !e.Activate(reqCtx) {
			return q
		}
		return &stampingQueue{next: q, ext: e}
	}
}

type stampingQueue struct {
	next a2a.Queue
	ext  *Extension
}

func (q *stampingQueue) Enqueue(ctx context.Context, ev a2a.Event) error {
	q.ext.StampEvent(ev)
	return q.next.Enqueue(ctx, ev)
}

// ClientOption activates the extension on an a2a.Client and stamps every
// message the client sends.
func (e *Extension) ClientOption() a2a.ClientOption {
	return func(c *a2a.Client) {
		a2a.WithExtensions(URI)(c)
		a2a.WithMessageInterceptor(e.StampMessage)(c)
	}
}

func Has(metadata map[string]any) bool {
	_, ok := metadata[Field]
	return ok
}

// Get parses the timestamp in metadata.
func Get(metadata map[string]any) (time.Time, bool) {
	s, ok := metadata[Field].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (e *Extension) Documentation() extension.Documentation {
	return extension.Documentation{
		Slug:    Slug,
		Title:   "Timestamp Extension",
		Summary: "A2A data extension that records when each message and artifact was produced.",
		Parameters: []extension.Parameter{
			{Name: Field, Type: "string", Description: "RFC 3339 UTC time the message or artifact was produced"},
		},
		Examples: []extension.Example{{
			Title:    "Request timestamps",
			Request:  `X-A2A-Extensions: ` + URI,
			Response: `{"metadata":{"` + Field + `":"2024-08-26T09:30:00Z"}}`,
		}},
		Changelog: extension.Changelog{
			Version: "1.0.0",
			Date:    "2024-08-26",
			Changes: []extension.Change{{
				Type:        "initial",
				Description: "Initial release of Timestamp Extension",
				Details: []string{
					"Timestamps on agent messages and artifacts",
					"Existing timestamps are preserved",
				},
			}},
		},
		Schema: &jsonschema.Schema{
			Schema: extension.SchemaDraft,
			Title:  "Timestamp Extension Metadata",
			Type:   "object",
			Properties: map[string]*jsonschema.Schema{
				Field: {Type: "string", Format: "date-time", Description: "Time the message or artifact was produced"},
			},
		},
	}
}
