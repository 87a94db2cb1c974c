// Package traceability is a data extension that records how a response was
// produced. Each executor run becomes a trace step, and the trace is attached
// to the messages and artifacts the run emits. Only the X-A2A-Extensions
// header activates it.
package traceability

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension"
)

const corePath = "github.com/a2aproject/a2a-samples/extensions/traceability/v1"

const (
	URI  = "https://" + corePath
	Slug = "traceability"

	// Field is the metadata key holding the trace.
	Field = URI
)

type CallType string

const (
	CallAgent CallType = "AGENT"
	CallTool  CallType = "TOOL"
	CallHost  CallType = "HOST"
)

// Step is one traced call. Latency is in milliseconds and set when the step
// ends.
type Step struct {
	StepID       string         `json:"step_id"`
	TraceID      string         `json:"trace_id"`
	ParentStepID string         `json:"parent_step_id,omitempty"`
	CallType     CallType       `json:"call_type"`
	Name         string         `json:"name,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	StepType     string         `json:"step_type,omitempty"`
	Attributes   map[string]any `json:"additional_attributes,omitempty"`
	Latency      *int64         `json:"latency"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      *time.Time     `json:"end_time"`
	Error        string         `json:"error,omitempty"`
}

func NewStep(callType CallType, name string, start time.Time) *Step {
	return &Step{
		StepID:    "step-" + uuid.NewString(),
		CallType:  callType,
		Name:      name,
		StartTime: start.UTC(),
	}
}

// End closes the step at end, recording errMsg when it is not empty.
func (s *Step) End(end time.Time, errMsg string) {
	end = end.UTC()
	latency := end.Sub(s.StartTime).Milliseconds()
	s.EndTime = &end
	s.Latency = &latency
	if errMsg != "" {
		s.Error = errMsg
	}
}

// Ended reports whether End was called.
func (s *Step) Ended() bool { return s.EndTime != nil }

// Trace groups the steps of one response under a trace id.
type Trace struct {
	TraceID string `json:"trace_id"`
	Steps   []Step `json:"steps"`
}

func NewTrace() *Trace {
	return &Trace{TraceID: "trace-" + uuid.NewString(), Steps: []Step{}}
}

// AddStep attaches a copy of s to the trace.
func (t *Trace) AddStep(s Step) {
	s.TraceID = t.TraceID
	t.Steps = append(t.Steps, s)
}

// Snapshot returns a copy that later steps do not change.
func (t *Trace) Snapshot() Trace {
	return Trace{TraceID: t.TraceID, Steps: slices.Clone(t.Steps)}
}

type Extension struct {
	desc extension.Descriptor
	now  func() time.Time
	name string
}

type Option func(*Extension)

func WithNow(now func() time.Time) Option {
	return func(e *Extension) { e.now = now }
}

// WithAgentName names the agent step of every trace.
func WithAgentName(name string) Option {
	return func(e *Extension) { e.name = name }
}

func New(opts ...Option) *Extension {
	e := &Extension{
		desc: extension.NewDescriptor(extension.Spec{
			URI:         URI,
			Name:        "Traceability Extension",
			Description: "Adds traceability information to artifacts.",
			Version:     "1.0.0",
			Kind:        extension.KindData,
			Metadata: map[string]any{
				"uri":         URI,
				"description": "Adds traceability information to artifacts.",
			},
		}),
		now:  time.Now,
		name: "agent",
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extension) Descriptor() extension.Descriptor { return e.desc }
func (e *Extension) ExtensionURI() string             { return URI }
func (e *Extension) Metadata() map[string]any         { return e.desc.Metadata() }

// Activate marks the extension active when the caller asked for it.
func (e *Extension) Activate(reqCtx *a2a.RequestContext) bool {
	if !reqCtx.RequestedExtensions.Has(URI) {
		return false
	}
	reqCtx.Activate(URI)
	return true
}

// Decorator returns a QueueDecorator tracing the executor run of requests
// that activated the extension. The agent step starts when the queue is
// built and ends at the first artifact, reply message or terminal status.
func (e *Extension) Decorator() a2a.QueueDecorator {
	return func(reqCtx *a2a.RequestContext, q a2a.Queue) a2a.Queue {
		if !e.Activate(reqCtx) {
			return q
		}
		step := NewStep(CallAgent, e.name, e.now())
		step.StepType = "execute"
		step.Parameters = map[string]any{
			"task_id":    reqCtx.TaskID,
			"context_id": reqCtx.ContextID,
		}
		if requested := reqCtx.RequestedExtensions.List(); len(requested) > 0 {
			step.Parameters["extensions"] = requested
		}
		return &tracingQueue{next: q, ext: e, trace: NewTrace(), step: step}
	}
}

type tracingQueue struct {
	next  a2a.Queue
	ext   *Extension
	mu    sync.Mutex
	trace *Trace
	step  *Step
}

func (q *tracingQueue) Enqueue(ctx context.Context, ev a2a.Event) error {
	switch v := ev.(type) {
	case *a2a.Message:
		v.Metadata = q.attach(v.Metadata, "")
	case *a2a.TaskArtifactUpdateEvent:
		v.Artifact.Metadata = q.attach(v.Artifact.Metadata, "")
	case *a2a.TaskStatusUpdateEvent:
		if v.Final || v.Status.State.Terminal() {
			errMsg := failure(v.Status)
			if v.Status.Message != nil {
				v.Status.Message.Metadata = q.attach(v.Status.Message.Metadata, errMsg)
			} else {
				q.finish(errMsg)
			}
		}
	case *a2a.Task:
		if v.Status.State.Terminal() {
			errMsg := failure(v.Status)
			q.finish(errMsg)
			for i := range v.Artifacts {
				v.Artifacts[i].Metadata = q.attach(v.Artifacts[i].Metadata, errMsg)
			}
		}
	}
	return q.next.Enqueue(ctx, ev)
}

func (q *tracingQueue) finish(errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.step.Ended() {
		return
	}
	q.step.End(q.ext.now(), errMsg)
	q.trace.AddStep(*q.step)
}

// attach ends the agent step if needed and stores the trace in metadata.
func (q *tracingQueue) attach(metadata map[string]any, errMsg string) map[string]any {
	q.finish(errMsg)
	q.mu.Lock()
	defer q.mu.Unlock()
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata[Field] = q.trace.Snapshot()
	return metadata
}

func failure(s a2a.TaskStatus) string {
	if s.State != a2a.TaskStateFailed {
		return ""
	}
	if s.Message != nil && s.Message.Text() != "" {
		return s.Message.Text()
	}
	return "task failed"
}

// Get reads the trace in metadata, whether it was attached in process or
// decoded from JSON.
func Get(metadata map[string]any) (Trace, bool) {
	v, ok := metadata[Field]
	if !ok {
		return Trace{}, false
	}
	if t, ok := v.(Trace); ok {
		return t, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Trace{}, false
	}
	var t Trace
	if err := json.Unmarshal(b, &t); err != nil || t.TraceID == "" {
		return Trace{}, false
	}
	return t, true
}

func (e *Extension) Documentation() extension.Documentation {
	return extension.Documentation{
		Slug:    Slug,
		Title:   "Traceability Extension",
		Summary: "A2A data extension that attaches a trace of the agent run to each message and artifact it produces.",
		Parameters: []extension.Parameter{
			{Name: "trace_id", Type: "string", Description: "Identifier shared by every step of the response"},
			{Name: "steps[].step_id", Type: "string", Description: "Identifier of the step"},
			{Name: "steps[].call_type", Type: "enum", Description: "AGENT, TOOL or HOST"},
			{Name: "steps[].latency", Type: "integer", Description: "Duration of the step in milliseconds"},
			{Name: "steps[].error", Type: "string", Description: "Failure reported by the step, if any"},
		},
		Examples: []extension.Example{{
			Title:    "Request a trace",
			Request:  `X-A2A-Extensions: ` + URI,
			Response: `{"metadata":{"` + Field + `":{"trace_id":"trace-1","steps":[{"step_id":"step-1","trace_id":"trace-1","call_type":"AGENT","name":"Hello World Agent","latency":2}]}}}`,
		}},
		Changelog: extension.Changelog{
			Version: "1.0.0",
			Date:    "2024-08-26",
			Changes: []extension.Change{{
				Type:        "initial",
				Description: "Initial release of Traceability Extension",
				Details: []string{
					"One AGENT step per executor run with timing and latency",
					"Failed tasks record the failure on the step",
				},
			}},
		},
		Schema: &jsonschema.Schema{
			Schema:   extension.SchemaDraft,
			Title:    "Traceability Extension Metadata",
			Type:     "object",
			Required: []string{"trace_id", "steps"},
			Properties: map[string]*jsonschema.Schema{
				"trace_id": {Type: "string", Description: "Identifier shared by every step of the response"},
				"steps": {
					Type: "array",
					Items: &jsonschema.Schema{
						Type:     "object",
						Required: []string{"step_id", "call_type", "start_time"},
						Properties: map[string]*jsonschema.Schema{
							"step_id":    {Type: "string"},
							"trace_id":   {Type: "string"},
							"call_type":  extension.EnumSchema("Kind of call traced", []string{string(CallAgent), string(CallTool), string(CallHost)}),
							"name":       {Type: "string"},
							"latency":    {Types: []string{"integer", "null"}},
							"start_time": {Type: "string", Format: "date-time"},
							"end_time":   {Types: []string{"string", "null"}, Format: "date-time"},
							"error":      {Type: "string"},
						},
					},
				},
			},
		},
	}
}
