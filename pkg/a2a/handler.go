package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/audit"
	"github.com/igorsilveira/helloext/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var ErrEmptyMessage = errors.New("a2a: empty message")

// MethodHandler serves the JSON-RPC methods a method extension adds.
type MethodHandler interface {
	ExtensionURI() string
	Methods() []string
	Invoke(ctx context.Context, method string, params json.RawMessage) (any, *JSONRPCError)
}

type Handler struct {
	router       chi.Router
	card         AgentCard
	extendedCard *AgentCard
	store        *TaskStore
	executor     Executor
	methods      map[string]MethodHandler
	decorators   []QueueDecorator
	auditLog     *audit.Logger
	logger       *slog.Logger
	authToken    string
}

type HandlerConfig struct {
	Card         AgentCard
	ExtendedCard *AgentCard
	Executor     Executor
	Methods      []MethodHandler
	Decorators   []QueueDecorator
	AuditLog     *audit.Logger
	Logger       *slog.Logger
	AuthToken    string
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &Handler{
		card:       cfg.Card.Clone(),
		store:      NewTaskStore(),
		executor:   cfg.Executor,
		methods:    make(map[string]MethodHandler),
		decorators: cfg.Decorators,
		auditLog:   cfg.AuditLog,
		logger:     cfg.Logger,
		authToken:  cfg.AuthToken,
	}
	if cfg.ExtendedCard != nil {
		ext := cfg.ExtendedCard.Clone()
		h.extendedCard = &ext
		h.card.SupportsAuthenticatedExtendedCard = true
	}
	for _, mh := range cfg.Methods {
		for _, m := range mh.Methods() {
			h.methods[m] = mh
		}
	}
	h.buildRouter()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Card returns a copy of the public agent card.
func (h *Handler) Card() AgentCard {
	return h.card.Clone()
}

func (h *Handler) buildRouter() {
	r := chi.NewRouter()
	r.Get("/.well-known/agent-card.json", h.handleAgentCard)
	r.Get("/.well-known/agentcard", h.handleAgentCard)

	r.Group(func(r chi.Router) {
		if h.authToken != "" {
			r.Use(h.authMiddleware)
		}
		r.Post("/", h.handleJSONRPC)
		r.Post("/a2a", h.handleJSONRPC)
		r.Post("/a2a/messages", h.handleSendMessage)
		r.Post("/a2a/messages:stream", h.handleSendMessageStream)
		r.Get("/a2a/tasks/{id}", h.handleGetTask)
		r.Get("/a2a/tasks", h.handleListTasks)
		r.Post("/a2a/tasks/{id}:cancel", h.handleCancelTask)
	})
	h.router = r
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header || token != h.authToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.card)
}

func (h *Handler) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, NewJSONRPCError(nil, ErrCodeParse, "parse error"))
		return
	}
	if req.JSONRPC != "2.0" {
		writeJSON(w, http.StatusOK, NewJSONRPCError(req.ID, ErrCodeInvalidReq, "invalid jsonrpc version"))
		return
	}

	active := ParseExtensions(r.Header.Values(ExtensionsHeader)...)
	ctx, span := telemetry.StartSpan(r.Context(), "a2a.rpc "+req.Method,
		attribute.String("a2a.method", req.Method),
		attribute.StringSlice("a2a.extensions.requested", active.List()),
	)

	if req.Method == MethodMessageStream {
		telemetry.EndSpan(span, h.rpcStream(ctx, w, req, active))
		return
	}

	start := time.Now()
	result, activated, rpcErr := h.Invoke(ctx, req.Method, req.Params, active)
	observeRequest(req.Method, start, rpcErr)

	if len(activated) > 0 {
		w.Header().Set(ExtensionsHeader, strings.Join(activated, ", "))
		span.SetAttributes(attribute.StringSlice("a2a.extensions.activated", activated))
	}
	if rpcErr != nil {
		span.SetAttributes(attribute.Int("a2a.error.code", rpcErr.Code))
		telemetry.EndSpan(span, rpcErr)
		writeJSON(w, http.StatusOK, JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}
	telemetry.EndSpan(span, nil)
	writeJSON(w, http.StatusOK, NewJSONRPCResponse(req.ID, result))
}

// Invoke dispatches one non-streaming JSON-RPC method. It returns the result,
// the extension URIs that took part, and a structured error.
func (h *Handler) Invoke(ctx context.Context, method string, params json.RawMessage, active ExtensionSet) (any, []string, *JSONRPCError) {
	switch method {
	case MethodMessageSend:
		var p MessageSendParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, nil, Errorf(ErrCodeInvalidParams, "invalid params")
		}
		res, activated, err := h.SendMessage(ctx, p.Message, active)
		if err != nil {
			return nil, activated, toRPCError(err)
		}
		return res, activated, nil

	case MethodTasksGet:
		var p TaskIDParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, nil, Errorf(ErrCodeInvalidParams, "invalid params")
		}
		task, err := h.store.Get(p.ID)
		if err != nil {
			return nil, nil, Errorf(ErrCodeTaskNotFound, "%s", err.Error())
		}
		return task, nil, nil

	case MethodTasksCancel:
		var p TaskIDParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, nil, Errorf(ErrCodeInvalidParams, "invalid params")
		}
		task, rpcErr := h.CancelTask(ctx, p.ID)
		if rpcErr != nil {
			return nil, nil, rpcErr
		}
		return task, nil, nil

	case MethodExtendedCard:
		if h.extendedCard == nil {
			return nil, nil, Errorf(ErrCodeExtendedCardNotConfigured, "Authenticated Extended Card is not configured")
		}
		h.auditLogEvent(ctx, audit.EventExtendedCardRead, "", "", "")
		return h.extendedCard.Clone(), nil, nil
	}

	mh, ok := h.methods[method]
	if !ok {
		return nil, nil, Errorf(ErrCodeNotFound, "method %q not found", method)
	}

	uri := mh.ExtensionURI()
	mode := "method"
	if active.Has(uri) {
		mode = "explicit"
	}
	telemetry.Metrics.ExtensionActivations.WithLabelValues(uri, mode).Inc()

	result, rpcErr := mh.Invoke(ctx, method, params)
	if rpcErr != nil {
		telemetry.ObserveExtensionError(uri, rpcErr.Code)
		h.auditLogEvent(ctx, audit.EventExtensionError, "", uri, rpcErr)
		h.logger.Warn("extension method failed",
			slog.String("method", method),
			slog.Int("code", rpcErr.Code),
			slog.String("err", rpcErr.Message),
		)
		return nil, []string{uri}, rpcErr
	}
	h.auditLogEvent(ctx, audit.EventExtensionCall, "", uri, method)
	return result, []string{uri}, nil
}

// SendMessage runs the executor for msg and returns the reply.
func (h *Handler) SendMessage(ctx context.Context, msg Message, active ExtensionSet) (SendResult, []string, error) {
	reqCtx, task, reply, err := h.run(ctx, msg, active, nil)
	var activated []string
	if reqCtx != nil {
		activated = reqCtx.ActivatedExtensions()
	}
	if err != nil {
		return SendResult{}, activated, err
	}
	if reply != nil {
		return SendResult{Message: reply}, activated, nil
	}
	return SendResult{Task: task}, activated, nil
}

// Stream runs the executor for msg and hands every event to emit as it is
// produced. An emit error stops delivery but the task still runs to the end.
func (h *Handler) Stream(ctx context.Context, msg Message, active ExtensionSet, emit func(Event) error) ([]string, error) {
	reqCtx, _, _, err := h.run(ctx, msg, active, emit)
	if reqCtx == nil {
		return nil, err
	}
	return reqCtx.ActivatedExtensions(), err
}

// run returns the reply message when the executor answered with a message
// only; otherwise the final task snapshot.
func (h *Handler) run(ctx context.Context, msg Message, active ExtensionSet, emit func(Event) error) (*RequestContext, *Task, *Message, error) {
	if h.executor == nil {
		return nil, nil, nil, ErrExecutorUnavailable
	}
	if len(msg.Parts) == 0 {
		return nil, nil, nil, ErrEmptyMessage
	}
	if msg.Kind == "" {
		msg.Kind = KindMessage
	}
	if msg.Role == "" {
		msg.Role = RoleUser
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}

	task := h.getOrCreateTask(ctx, msg)
	_ = h.store.Update(task.ID, TaskStateWorking)

	reqCtx := &RequestContext{
		TaskID:              task.ID,
		ContextID:           task.ContextID,
		Message:             &msg,
		Task:                task,
		RequestedExtensions: active,
	}

	q := NewEventQueue(16)
	var queue Queue = q
	for _, d := range h.decorators {
		queue = d(reqCtx, queue)
	}

	errCh := make(chan error, 1)
	go func() {
		defer q.Close()
		errCh <- h.executor.Execute(ctx, reqCtx, queue)
	}()

	var reply *Message
	sawTaskEvent := false
	for ev := range q.Events() {
		h.apply(task.ID, ev)
		if m, ok := ev.(*Message); ok {
			reply = m
		} else {
			sawTaskEvent = true
		}
		if emit != nil {
			if err := emit(ev); err != nil {
				h.logger.Debug("event delivery stopped", slog.String("task_id", task.ID), slog.String("err", err.Error()))
				emit = nil
			}
		}
	}
	execErr := <-errCh

	h.recordExtensions(ctx, reqCtx)

	if execErr != nil {
		_ = h.store.Update(task.ID, TaskStateFailed)
		telemetry.Metrics.TasksTotal.WithLabelValues(string(TaskStateFailed)).Inc()
		h.auditLogEvent(ctx, audit.EventTaskFail, task.ID, "", execErr.Error())
		return reqCtx, nil, nil, fmt.Errorf("executing task %s: %w", task.ID, execErr)
	}

	final, _ := h.store.Get(task.ID)
	if !final.Status.State.Terminal() {
		_ = h.store.Update(task.ID, TaskStateCompleted)
		final, _ = h.store.Get(task.ID)
	}
	telemetry.Metrics.TasksTotal.WithLabelValues(string(final.Status.State)).Inc()
	h.auditLogEvent(ctx, audit.EventTaskDone, task.ID, "", string(final.Status.State))

	if sawTaskEvent {
		return reqCtx, final, nil, nil
	}
	return reqCtx, final, reply, nil
}

func (h *Handler) apply(taskID string, ev Event) {
	switch e := ev.(type) {
	case *Message:
		_ = h.store.AppendMessage(taskID, *e)
	case *TaskStatusUpdateEvent:
		_ = h.store.UpdateStatus(taskID, e.Status)
	case *TaskArtifactUpdateEvent:
		_ = h.store.AddArtifact(taskID, e.Artifact, e.Append)
	case *Task:
		if e.Status.State != "" {
			_ = h.store.UpdateStatus(taskID, e.Status)
		}
	}
}

func (h *Handler) recordExtensions(ctx context.Context, reqCtx *RequestContext) {
	for _, uri := range reqCtx.ActivatedExtensions() {
		mode := "implicit"
		if reqCtx.RequestedExtensions.Has(uri) {
			mode = "explicit"
		}
		telemetry.Metrics.ExtensionActivations.WithLabelValues(uri, mode).Inc()
		h.auditLogEvent(ctx, audit.EventExtensionActive, reqCtx.TaskID, uri, mode)
	}
	for _, f := range reqCtx.Failures() {
		telemetry.ObserveExtensionError(f.URI, f.Error.Code)
		h.auditLogEvent(ctx, audit.EventExtensionError, reqCtx.TaskID, f.URI, f.Error)
	}
}

// CancelTask asks the executor to cancel a running task.
func (h *Handler) CancelTask(ctx context.Context, id string) (*Task, *JSONRPCError) {
	task, err := h.store.Get(id)
	if err != nil {
		return nil, Errorf(ErrCodeTaskNotFound, "%s", err.Error())
	}
	if task.Status.State.Terminal() {
		return nil, Errorf(ErrCodeTaskNotCancelable, "task %q is already %s", id, task.Status.State)
	}
	if h.executor == nil {
		return nil, Errorf(ErrCodeInternal, "%s", ErrExecutorUnavailable.Error())
	}

	reqCtx := &RequestContext{TaskID: task.ID, ContextID: task.ContextID, Task: task}
	q := NewEventQueue(4)
	err = h.executor.Cancel(ctx, reqCtx, q)
	q.Close()
	for ev := range q.Events() {
		h.apply(id, ev)
	}
	if errors.Is(err, ErrCancelNotSupported) {
		return nil, Errorf(ErrCodeTaskNotCancelable, "cancel not supported")
	}
	if err != nil {
		return nil, Errorf(ErrCodeInternal, "%s", err.Error())
	}

	if err := h.store.Update(id, TaskStateCanceled); err != nil {
		return nil, Errorf(ErrCodeInternal, "%s", err.Error())
	}
	telemetry.Metrics.TasksTotal.WithLabelValues(string(TaskStateCanceled)).Inc()
	h.auditLogEvent(ctx, audit.EventTaskCancel, id, "", "")
	task, _ = h.store.Get(id)
	return task, nil
}

// rpcStream answers message/stream over SSE and returns the error, if any,
// the stream ended with.
func (h *Handler) rpcStream(ctx context.Context, w http.ResponseWriter, req JSONRPCRequest, active ExtensionSet) error {
	start := time.Now()
	var p MessageSendParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		writeJSON(w, http.StatusOK, NewJSONRPCError(req.ID, ErrCodeInvalidParams, "invalid params"))
		return fmt.Errorf("decoding params: %w", err)
	}
	if len(p.Message.Parts) == 0 {
		writeJSON(w, http.StatusOK, NewJSONRPCError(req.ID, ErrCodeInvalidParams, ErrEmptyMessage.Error()))
		return ErrEmptyMessage
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_, err := h.Stream(ctx, p.Message, active, func(ev Event) error {
		return writeSSE(w, flusher, canFlush, ev.eventKind(), NewJSONRPCResponse(req.ID, ev))
	})
	if err != nil {
		rpcErr := toRPCError(err)
		_ = writeSSE(w, flusher, canFlush, "error", JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		observeRequest(req.Method, start, rpcErr)
		return err
	}
	observeRequest(req.Method, start, nil)
	return nil
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if taskID := r.URL.Query().Get("taskId"); taskID != "" {
		msg.TaskID = taskID
	}

	active := ParseExtensions(r.Header.Values(ExtensionsHeader)...)
	reqCtx, task, _, err := h.run(r.Context(), msg, active, nil)
	if reqCtx != nil {
		if activated := reqCtx.ActivatedExtensions(); len(activated) > 0 {
			w.Header().Set(ExtensionsHeader, strings.Join(activated, ", "))
		}
	}
	if errors.Is(err, ErrEmptyMessage) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty message"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) handleSendMessageStream(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(msg.Parts) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty message"})
		return
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	active := ParseExtensions(r.Header.Values(ExtensionsHeader)...)
	_, err := h.Stream(r.Context(), msg, active, func(ev Event) error {
		return writeSSE(w, flusher, canFlush, ev.eventKind(), ev)
	})
	if err != nil {
		_ = writeSSE(w, flusher, canFlush, "error", map[string]string{"error": err.Error()})
	}
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, err := h.store.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, rpcErr := h.CancelTask(r.Context(), id)
	if rpcErr != nil {
		status := http.StatusConflict
		switch rpcErr.Code {
		case ErrCodeTaskNotFound:
			status = http.StatusNotFound
		case ErrCodeInternal:
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]string{"error": rpcErr.Message})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) getOrCreateTask(ctx context.Context, msg Message) *Task {
	if msg.TaskID != "" {
		if task, err := h.store.Get(msg.TaskID); err == nil && !task.Status.State.Terminal() {
			_ = h.store.AppendMessage(task.ID, msg)
			return task
		}
	}

	id := msg.TaskID
	if id == "" {
		id = uuid.NewString()
	}
	contextID := msg.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}
	task := &Task{
		Kind:      KindTask,
		ID:        id,
		ContextID: contextID,
		Status:    TaskStatus{State: TaskStateSubmitted},
		History:   []Message{msg},
	}
	h.store.Create(task)
	telemetry.Metrics.TasksTotal.WithLabelValues(string(TaskStateSubmitted)).Inc()
	h.auditLogEvent(ctx, audit.EventTaskNew, id, "", "")
	return task
}

func (h *Handler) auditLogEvent(ctx context.Context, eventType, taskID, extension string, detail any) {
	if h.auditLog == nil {
		return
	}
	if err := h.auditLog.Log(ctx, eventType, taskID, extension, "a2a", detail); err != nil {
		h.logger.Warn("audit log write failed", slog.String("event", eventType), slog.String("err", err.Error()))
	}
}

func observeRequest(method string, start time.Time, rpcErr *JSONRPCError) {
	status := "ok"
	if rpcErr != nil {
		status = "error"
	}
	telemetry.Metrics.RequestsTotal.WithLabelValues(method, status).Inc()
	telemetry.Metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func toRPCError(err error) *JSONRPCError {
	var rpcErr *JSONRPCError
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, ErrEmptyMessage):
		return Errorf(ErrCodeInvalidParams, "%s", err.Error())
	default:
		return Errorf(ErrCodeInternal, "%s", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, canFlush bool, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
		return err
	}
	if canFlush {
		flusher.Flush()
	}
	return nil
}
