package a2a

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	ErrQueueClosed         = errors.New("a2a: event queue closed")
	ErrCancelNotSupported  = errors.New("a2a: cancel not supported")
	ErrExecutorUnavailable = errors.New("a2a: no executor configured")
)

// RequestContext is what an Executor sees of one inbound message.
type RequestContext struct {
	TaskID    string
	ContextID string
	Message   *Message
	Task      *Task

	// RequestedExtensions are the URIs the caller activated explicitly.
	RequestedExtensions ExtensionSet

	mu        sync.Mutex
	activated []string
	failures  []ExtensionFailure
}

// ExtensionFailure is a structured error an extension reported in-band while
// the agent still produced a reply.
type ExtensionFailure struct {
	URI   string
	Error *JSONRPCError
}

// Text returns the inbound message text.
func (rc *RequestContext) Text() string {
	if rc.Message == nil {
		return ""
	}
	return rc.Message.Text()
}

// Activate records that an extension took part in producing the response.
func (rc *RequestContext) Activate(uri string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !slices.Contains(rc.activated, uri) {
		rc.activated = append(rc.activated, uri)
	}
}

func (rc *RequestContext) ActivatedExtensions() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return slices.Clone(rc.activated)
}

// ReportFailure records an extension error that was rendered into the reply
// instead of failing the request.
func (rc *RequestContext) ReportFailure(uri string, err *JSONRPCError) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.failures = append(rc.failures, ExtensionFailure{URI: uri, Error: err})
}

func (rc *RequestContext) Failures() []ExtensionFailure {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return slices.Clone(rc.failures)
}

// Queue receives the events an Executor produces.
type Queue interface {
	Enqueue(ctx context.Context, ev Event) error
}

type Executor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, q Queue) error
	Cancel(ctx context.Context, reqCtx *RequestContext, q Queue) error
}

// QueueDecorator wraps the queue handed to an Executor, typically to let a
// data extension annotate outgoing events.
type QueueDecorator func(reqCtx *RequestContext, q Queue) Queue

// EventQueue is an in-memory, channel backed Queue.
type EventQueue struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

func NewEventQueue(size int) *EventQueue {
	return &EventQueue{ch: make(chan Event, size)}
}

func (q *EventQueue) Enqueue(ctx context.Context, ev Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *EventQueue) Events() <-chan Event {
	return q.ch
}

// Close stops accepting events. Events already queued stay readable.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
