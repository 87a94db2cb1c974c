package a2a

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const ProtocolVersion = "0.3.0"

type AgentCard struct {
	Name                              string       `json:"name"`
	Description                       string       `json:"description"`
	URL                               string       `json:"url"`
	Version                           string       `json:"version"`
	ProtocolVersion                   string       `json:"protocolVersion,omitempty"`
	PreferredTransport                string       `json:"preferredTransport,omitempty"`
	DefaultInputModes                 []string     `json:"defaultInputModes"`
	DefaultOutputModes                []string     `json:"defaultOutputModes"`
	Capabilities                      Capabilities `json:"capabilities"`
	Skills                            []Skill      `json:"skills"`
	SupportsAuthenticatedExtendedCard bool         `json:"supportsAuthenticatedExtendedCard,omitempty"`
}

// Capabilities.Extensions is keyed by extension URI.
type Capabilities struct {
	Streaming         bool                      `json:"streaming"`
	PushNotifications bool                      `json:"pushNotifications"`
	Extensions        map[string]map[string]any `json:"extensions,omitempty"`
}

type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

const (
	KindMessage        = "message"
	KindTask           = "task"
	KindText           = "text"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
)

// Terminal reports whether no further transitions are expected.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	}
	return false
}

type Message struct {
	Kind       string         `json:"kind"`
	MessageID  string         `json:"messageId"`
	Role       Role           `json:"role"`
	Parts      []Part         `json:"parts"`
	TaskID     string         `json:"taskId,omitempty"`
	ContextID  string         `json:"contextId,omitempty"`
	Extensions []string       `json:"extensions,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type Part struct {
	Kind     string         `json:"kind"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func TextPart(text string) Part {
	return Part{Kind: KindText, Text: text}
}

// NewTextMessage builds a single-part message with a fresh message id.
func NewTextMessage(role Role, text string) *Message {
	return &Message{
		Kind:      KindMessage,
		MessageID: uuid.NewString(),
		Role:      role,
		Parts:     []Part{TextPart(text)},
	}
}

// Text joins every non-empty text part with newlines.
func (m Message) Text() string {
	var parts []string
	for _, p := range m.Parts {
		if p.Kind == KindText && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ExtensionParams returns the structured parameters a client placed under
// metadata.extensions[uri]. An empty object counts as absent.
func (m Message) ExtensionParams(uri string) (map[string]any, bool) {
	exts, ok := m.Metadata["extensions"].(map[string]any)
	if !ok {
		return nil, false
	}
	params, ok := exts[uri].(map[string]any)
	if !ok || len(params) == 0 {
		return nil, false
	}
	return params, true
}

type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

type Task struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Artifact struct {
	ArtifactID string         `json:"artifactId"`
	Name       string         `json:"name,omitempty"`
	Parts      []Part         `json:"parts"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type TaskStatusUpdateEvent struct {
	Kind      string     `json:"kind"`
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

type TaskArtifactUpdateEvent struct {
	Kind      string   `json:"kind"`
	TaskID    string   `json:"taskId"`
	ContextID string   `json:"contextId"`
	Artifact  Artifact `json:"artifact"`
	Append    bool     `json:"append,omitempty"`
	LastChunk bool     `json:"lastChunk,omitempty"`
}

// Event is anything an Executor may publish on a Queue.
type Event interface {
	eventKind() string
}

func (*Message) eventKind() string                 { return KindMessage }
func (*Task) eventKind() string                    { return KindTask }
func (*TaskStatusUpdateEvent) eventKind() string   { return KindStatusUpdate }
func (*TaskArtifactUpdateEvent) eventKind() string { return KindArtifactUpdate }

// DecodeEvent decodes a streamed event by its kind discriminator.
func DecodeEvent(data []byte) (Event, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var ev Event
	switch head.Kind {
	case KindMessage:
		ev = &Message{}
	case KindTask:
		ev = &Task{}
	case KindStatusUpdate:
		ev = &TaskStatusUpdateEvent{}
	case KindArtifactUpdate:
		ev = &TaskArtifactUpdateEvent{}
	default:
		return nil, fmt.Errorf("a2a: unexpected event kind %q", head.Kind)
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

type MessageSendParams struct {
	Message  Message        `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type TaskIDParams struct {
	ID string `json:"id"`
}

// SendResult is the union returned by message/send: either the agent's reply
// message or the task it worked on.
type SendResult struct {
	Message *Message
	Task    *Task
}

func (r SendResult) MarshalJSON() ([]byte, error) {
	if r.Task != nil {
		return json.Marshal(r.Task)
	}
	return json.Marshal(r.Message)
}

func (r *SendResult) UnmarshalJSON(data []byte) error {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Kind {
	case KindTask:
		r.Task = &Task{}
		return json.Unmarshal(data, r.Task)
	case KindMessage:
		r.Message = &Message{}
		return json.Unmarshal(data, r.Message)
	default:
		return fmt.Errorf("a2a: unexpected result kind %q", head.Kind)
	}
}

// Text returns the reply text: the message text, or the text of the task's
// artifacts when the agent answered with a task.
func (r SendResult) Text() string {
	if r.Message != nil {
		return r.Message.Text()
	}
	if r.Task == nil {
		return ""
	}
	var b strings.Builder
	for _, a := range r.Task.Artifacts {
		for _, p := range a.Parts {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 && r.Task.Status.Message != nil {
		return r.Task.Status.Message.Text()
	}
	return b.String()
}
