package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/igorsilveira/helloext/pkg/audit"
)

const testExtURI = "http://localhost:8080/extensions/test/v1"

type echoExecutor struct {
	cancelErr error
}

func (e *echoExecutor) Execute(ctx context.Context, rc *RequestContext, q Queue) error {
	text := "echo: " + rc.Text()
	if rc.RequestedExtensions.Has(testExtURI) {
		rc.Activate(testExtURI)
		text += " [ext]"
	}
	if strings.Contains(rc.Text(), "bad") {
		rc.ReportFailure(testExtURI, Errorf(-32003, "Unsupported language: zz"))
	}
	return q.Enqueue(ctx, NewTextMessage(RoleAgent, text))
}

func (e *echoExecutor) Cancel(ctx context.Context, rc *RequestContext, q Queue) error {
	return e.cancelErr
}

type streamingExecutor struct{}

func (streamingExecutor) Execute(ctx context.Context, rc *RequestContext, q Queue) error {
	events := []Event{
		&TaskStatusUpdateEvent{Kind: KindStatusUpdate, TaskID: rc.TaskID, ContextID: rc.ContextID,
			Status: TaskStatus{State: TaskStateWorking, Message: NewTextMessage(RoleAgent, "Hello")}},
		&TaskArtifactUpdateEvent{Kind: KindArtifactUpdate, TaskID: rc.TaskID, ContextID: rc.ContextID,
			Artifact: Artifact{ArtifactID: "a1", Name: "response", Parts: []Part{TextPart("Hello World")}}, LastChunk: true},
		&TaskStatusUpdateEvent{Kind: KindStatusUpdate, TaskID: rc.TaskID, ContextID: rc.ContextID,
			Status: TaskStatus{State: TaskStateCompleted}, Final: true},
	}
	for _, ev := range events {
		if err := q.Enqueue(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (streamingExecutor) Cancel(context.Context, *RequestContext, Queue) error {
	return ErrCancelNotSupported
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, *RequestContext, Queue) error {
	return errors.New("boom")
}

func (failingExecutor) Cancel(context.Context, *RequestContext, Queue) error { return nil }

type echoMethod struct{}

func (echoMethod) ExtensionURI() string { return testExtURI }
func (echoMethod) Methods() []string    { return []string{"test/echo"} }

func (echoMethod) Invoke(_ context.Context, _ string, params json.RawMessage) (any, *JSONRPCError) {
	var p map[string]any
	_ = json.Unmarshal(params, &p)
	if p["fail"] == true {
		return nil, Errorf(-32001, "No valid style/language combinations available")
	}
	return p, nil
}

func testCard() AgentCard {
	return AgentCard{
		Name:         "TestAgent",
		Description:  "A test agent",
		URL:          "http://localhost:9999/",
		Version:      "1.0.0",
		Capabilities: Capabilities{Streaming: true},
		Skills:       []Skill{{ID: "hello_world", Name: "Returns hello world"}},
	}
}

func testHandler(t *testing.T, mods ...func(*HandlerConfig)) *Handler {
	t.Helper()
	cfg := HandlerConfig{
		Card:     testCard(),
		Executor: &echoExecutor{},
		Methods:  []MethodHandler{echoMethod{}},
	}
	for _, m := range mods {
		m(&cfg)
	}
	return NewHandler(cfg)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *JSONRPCError   `json:"error"`
}

func doRPC(t *testing.T, h http.Handler, method, params string, headers map[string]string) (rpcResponse, *httptest.ResponseRecorder) {
	t.Helper()
	rpcReq := JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: method}
	if params != "" {
		rpcReq.Params = json.RawMessage(params)
	}
	body, _ := json.Marshal(rpcReq)
	req := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp rpcResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, w
}

const helloParams = `{"message":{"kind":"message","messageId":"m1","role":"user","parts":[{"kind":"text","text":"hi"}]}}`

func TestAgentCard(t *testing.T) {
	h := testHandler(t)
	for _, path := range []string{"/.well-known/agent-card.json", "/.well-known/agentcard"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want %d", path, w.Code, http.StatusOK)
		}
		var card AgentCard
		if err := json.NewDecoder(w.Body).Decode(&card); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if card.Name != "TestAgent" {
			t.Errorf("Name = %q, want %q", card.Name, "TestAgent")
		}
		if card.SupportsAuthenticatedExtendedCard {
			t.Error("SupportsAuthenticatedExtendedCard = true without an extended card")
		}
	}
}

func TestAgentCardIsPublic(t *testing.T) {
	h := testHandler(t, func(c *HandlerConfig) { c.AuthToken = "secret-token" })
	req := httptest.NewRequest("GET", "/.well-known/agent-card.json", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("agent card should be public, got status %d", w.Code)
	}
}

func TestExtendedCard(t *testing.T) {
	ext := testCard()
	ext.Name = "TestAgent - Extended Edition"
	h := testHandler(t, func(c *HandlerConfig) { c.ExtendedCard = &ext })

	if !h.Card().SupportsAuthenticatedExtendedCard {
		t.Error("public card should advertise the extended card")
	}

	resp, _ := doRPC(t, h, MethodExtendedCard, "", nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var card AgentCard
	_ = json.Unmarshal(resp.Result, &card)
	if card.Name != ext.Name {
		t.Errorf("Name = %q, want %q", card.Name, ext.Name)
	}
}

func TestExtendedCardNotConfigured(t *testing.T) {
	h := testHandler(t)
	resp, _ := doRPC(t, h, MethodExtendedCard, "", nil)
	if resp.Error == nil || resp.Error.Code != ErrCodeExtendedCardNotConfigured {
		t.Fatalf("Error = %v, want code %d", resp.Error, ErrCodeExtendedCardNotConfigured)
	}
}

func TestJSONRPCSendMessage(t *testing.T) {
	h := testHandler(t)
	resp, w := doRPC(t, h, MethodMessageSend, helloParams, nil)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if resp.JSONRPC != "2.0" {
		t.Errorf("JSONRPC = %q, want %q", resp.JSONRPC, "2.0")
	}
	var res SendResult
	if err := json.Unmarshal(resp.Result, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Message == nil {
		t.Fatal("expected a message result")
	}
	if got := res.Text(); got != "echo: hi" {
		t.Errorf("Text = %q, want %q", got, "echo: hi")
	}
	if got := w.Header().Get(ExtensionsHeader); got != "" {
		t.Errorf("%s = %q, want empty", ExtensionsHeader, got)
	}
}

func TestJSONRPCSendMessageEchoesActivatedExtensions(t *testing.T) {
	h := testHandler(t)
	resp, w := doRPC(t, h, MethodMessageSend, helloParams, map[string]string{
		ExtensionsHeader: testExtURI + ", http://example.com/unknown/v1",
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var res SendResult
	_ = json.Unmarshal(resp.Result, &res)
	if got := res.Text(); got != "echo: hi [ext]" {
		t.Errorf("Text = %q, want %q", got, "echo: hi [ext]")
	}
	if got := w.Header().Get(ExtensionsHeader); got != testExtURI {
		t.Errorf("%s = %q, want %q", ExtensionsHeader, got, testExtURI)
	}
}

func TestJSONRPCSendMessageEmpty(t *testing.T) {
	h := testHandler(t)
	resp, _ := doRPC(t, h, MethodMessageSend, `{"message":{"role":"user","parts":[]}}`, nil)
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
		t.Fatalf("Error = %v, want code %d", resp.Error, ErrCodeInvalidParams)
	}
}

func TestJSONRPCExecutorFailure(t *testing.T) {
	h := testHandler(t, func(c *HandlerConfig) { c.Executor = failingExecutor{} })
	resp, _ := doRPC(t, h, MethodMessageSend, helloParams, nil)
	if resp.Error == nil || resp.Error.Code != ErrCodeInternal {
		t.Fatalf("Error = %v, want code %d", resp.Error, ErrCodeInternal)
	}

	tasks := h.store.List()
	if len(tasks) != 1 || tasks[0].Status.State != TaskStateFailed {
		t.Errorf("tasks = %+v, want one failed task", tasks)
	}
}

func TestJSONRPCGetTask(t *testing.T) {
	h := testHandler(t)
	res, _, err := h.SendMessage(context.Background(), *NewTextMessage(RoleUser, "hi"), ExtensionSet{})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	tasks := h.store.List()
	if len(tasks) != 1 {
		t.Fatalf("tasks len = %d, want 1", len(tasks))
	}
	if res.Message == nil {
		t.Fatal("expected message reply")
	}

	resp, _ := doRPC(t, h, MethodTasksGet, `{"id":"`+tasks[0].ID+`"}`, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var task Task
	_ = json.Unmarshal(resp.Result, &task)
	if task.Status.State != TaskStateCompleted {
		t.Errorf("State = %q, want %q", task.Status.State, TaskStateCompleted)
	}
	if len(task.History) != 2 {
		t.Errorf("History len = %d, want 2", len(task.History))
	}
}

func TestJSONRPCGetTaskNotFound(t *testing.T) {
	h := testHandler(t)
	resp, _ := doRPC(t, h, MethodTasksGet, `{"id":"missing"}`, nil)
	if resp.Error == nil || resp.Error.Code != ErrCodeTaskNotFound {
		t.Fatalf("Error = %v, want code %d", resp.Error, ErrCodeTaskNotFound)
	}
}

func TestJSONRPCUnknownMethod(t *testing.T) {
	h := testHandler(t)
	resp, _ := doRPC(t, h, "unknown", "", nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("Code = %d, want %d", resp.Error.Code, ErrCodeNotFound)
	}
}

func TestJSONRPCInvalidVersion(t *testing.T) {
	h := testHandler(t)
	body, _ := json.Marshal(JSONRPCRequest{JSONRPC: "1.0", ID: 1, Method: MethodTasksGet})
	req := httptest.NewRequest("POST", "/a2a", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp JSONRPCResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error == nil {
		t.Fatal("expected error for invalid version")
	}
	if resp.Error.Code != ErrCodeInvalidReq {
		t.Errorf("Code = %d, want %d", resp.Error.Code, ErrCodeInvalidReq)
	}
}

func TestJSONRPCParseError(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp JSONRPCResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error == nil || resp.Error.Code != ErrCodeParse {
		t.Fatalf("Error = %v, want code %d", resp.Error, ErrCodeParse)
	}
}

func TestJSONRPCExtensionMethod(t *testing.T) {
	h := testHandler(t)
	resp, w := doRPC(t, h, "test/echo", `{"id":"r1"}`, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var got map[string]any
	_ = json.Unmarshal(resp.Result, &got)
	if got["id"] != "r1" {
		t.Errorf("id = %v, want r1", got["id"])
	}
	if hdr := w.Header().Get(ExtensionsHeader); hdr != testExtURI {
		t.Errorf("%s = %q, want %q", ExtensionsHeader, hdr, testExtURI)
	}
}

func TestJSONRPCExtensionMethodError(t *testing.T) {
	h := testHandler(t)
	resp, _ := doRPC(t, h, "test/echo", `{"id":"r1","fail":true}`, nil)
	if resp.Error == nil {
		t.Fatal("expected error")
	}
	if resp.Error.Code != -32001 {
		t.Errorf("Code = %d, want -32001", resp.Error.Code)
	}
	if resp.Result != nil {
		t.Errorf("Result = %s, want none", resp.Result)
	}
}

func TestSendMessageCreatesTask(t *testing.T) {
	h := testHandler(t)
	body, _ := json.Marshal(NewTextMessage(RoleUser, "hello"))
	req := httptest.NewRequest("POST", "/a2a/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
	}

	var task Task
	if err := json.NewDecoder(w.Body).Decode(&task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.ID == "" {
		t.Error("expected task to have an ID")
	}
	if task.Status.State != TaskStateCompleted {
		t.Errorf("State = %q, want %q", task.Status.State, TaskStateCompleted)
	}
}

func TestSendMessageContinuesTask(t *testing.T) {
	h := testHandler(t)
	h.store.Create(&Task{ID: "t1", ContextID: "c1", Status: TaskStatus{State: TaskStateInputRequired}})

	msg := NewTextMessage(RoleUser, "again")
	msg.TaskID = "t1"
	if _, _, err := h.SendMessage(context.Background(), *msg, ExtensionSet{}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	task, _ := h.store.Get("t1")
	if len(task.History) != 2 {
		t.Errorf("History len = %d, want 2", len(task.History))
	}
	if len(h.store.List()) != 1 {
		t.Errorf("tasks len = %d, want 1", len(h.store.List()))
	}
}

func TestGetTaskNotFound(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest("GET", "/a2a/tasks/nonexistent", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListTasks(t *testing.T) {
	h := testHandler(t)
	for i := 0; i < 3; i++ {
		if _, _, err := h.SendMessage(context.Background(), *NewTextMessage(RoleUser, "hello"), ExtensionSet{}); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	req := httptest.NewRequest("GET", "/a2a/tasks", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var tasks []*Task
	_ = json.NewDecoder(w.Body).Decode(&tasks)
	if len(tasks) != 3 {
		t.Errorf("tasks len = %d, want 3", len(tasks))
	}
}

func TestCancelTask(t *testing.T) {
	h := testHandler(t)
	h.store.Create(&Task{ID: "t1", Status: TaskStatus{State: TaskStateWorking}})

	req := httptest.NewRequest("POST", "/a2a/tasks/t1:cancel", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var canceled Task
	_ = json.NewDecoder(w.Body).Decode(&canceled)
	if canceled.Status.State != TaskStateCanceled {
		t.Errorf("State = %q, want %q", canceled.Status.State, TaskStateCanceled)
	}
}

func TestCancelTaskNotSupported(t *testing.T) {
	h := testHandler(t, func(c *HandlerConfig) { c.Executor = &echoExecutor{cancelErr: ErrCancelNotSupported} })
	h.store.Create(&Task{ID: "t1", Status: TaskStatus{State: TaskStateWorking}})

	resp, _ := doRPC(t, h, MethodTasksCancel, `{"id":"t1"}`, nil)
	if resp.Error == nil || resp.Error.Code != ErrCodeTaskNotCancelable {
		t.Fatalf("Error = %v, want code %d", resp.Error, ErrCodeTaskNotCancelable)
	}
}

func TestCancelCompletedTask(t *testing.T) {
	h := testHandler(t)
	h.store.Create(&Task{ID: "t1", Status: TaskStatus{State: TaskStateCompleted}})

	req := httptest.NewRequest("POST", "/a2a/tasks/t1:cancel", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCancelTaskNotFound(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest("POST", "/a2a/tasks/nonexistent:cancel", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := testHandler(t, func(c *HandlerConfig) { c.AuthToken = "secret-token" })

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no auth", "", http.StatusUnauthorized},
		{"wrong token", "Bearer wrong-token", http.StatusUnauthorized},
		{"no bearer prefix", "secret-token", http.StatusUnauthorized},
		{"valid token", "Bearer secret-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/a2a/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestJSONRPCStream(t *testing.T) {
	h := testHandler(t, func(c *HandlerConfig) { c.Executor = streamingExecutor{} })

	body, _ := json.Marshal(JSONRPCRequest{JSONRPC: "2.0", ID: 7, Method: MethodMessageStream, Params: json.RawMessage(helloParams)})
	req := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	out := w.Body.String()
	for _, want := range []string{"event: status-update", "event: artifact-update", `"final":true`, `"id":7`} {
		if !strings.Contains(out, want) {
			t.Errorf("stream missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "event: artifact-update") > strings.LastIndex(out, "event: status-update") {
		t.Error("final status update should come after the artifact")
	}

	tasks := h.store.List()
	if len(tasks) != 1 {
		t.Fatalf("tasks len = %d, want 1", len(tasks))
	}
	if tasks[0].Status.State != TaskStateCompleted {
		t.Errorf("State = %q, want %q", tasks[0].Status.State, TaskStateCompleted)
	}
	if len(tasks[0].Artifacts) != 1 || tasks[0].Artifacts[0].Name != "response" {
		t.Errorf("Artifacts = %+v, want one response artifact", tasks[0].Artifacts)
	}
}

func TestSendMessageStream(t *testing.T) {
	h := testHandler(t)
	body, _ := json.Marshal(NewTextMessage(RoleUser, "hello"))
	req := httptest.NewRequest("POST", "/a2a/messages:stream", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "echo: hello") {
		t.Errorf("stream body = %q, want reply text", w.Body.String())
	}
}

func TestQueueDecorator(t *testing.T) {
	stamp := func(rc *RequestContext, q Queue) Queue {
		return queueFunc(func(ctx context.Context, ev Event) error {
			if m, ok := ev.(*Message); ok {
				if m.Metadata == nil {
					m.Metadata = map[string]any{}
				}
				m.Metadata["stamped"] = rc.TaskID
			}
			return q.Enqueue(ctx, ev)
		})
	}
	h := testHandler(t, func(c *HandlerConfig) { c.Decorators = []QueueDecorator{stamp} })

	res, _, err := h.SendMessage(context.Background(), *NewTextMessage(RoleUser, "hi"), ExtensionSet{})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.Message.Metadata["stamped"] == "" || res.Message.Metadata["stamped"] == nil {
		t.Errorf("Metadata = %v, want stamped task id", res.Message.Metadata)
	}
}

type queueFunc func(ctx context.Context, ev Event) error

func (f queueFunc) Enqueue(ctx context.Context, ev Event) error { return f(ctx, ev) }

func TestHandlerWritesAudit(t *testing.T) {
	log, closeFn, err := audit.Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() { _ = closeFn() })

	h := testHandler(t, func(c *HandlerConfig) { c.AuditLog = log })
	active := NewExtensionSet(testExtURI)
	if _, _, err := h.SendMessage(context.Background(), *NewTextMessage(RoleUser, "bad"), active); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	ctx := context.Background()
	activations, _ := log.Query(ctx, audit.Filter{EventType: audit.EventExtensionActive})
	if len(activations) != 1 {
		t.Fatalf("activations = %d, want 1", len(activations))
	}
	if activations[0].Extension != testExtURI || activations[0].Detail != "explicit" {
		t.Errorf("activation = %+v, want explicit %s", activations[0], testExtURI)
	}

	failures, _ := log.Query(ctx, audit.Filter{EventType: audit.EventExtensionError})
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if !strings.Contains(failures[0].Detail, "-32003") {
		t.Errorf("Detail = %q, want code -32003", failures[0].Detail)
	}

	done, _ := log.Query(ctx, audit.Filter{EventType: audit.EventTaskDone})
	if len(done) != 1 || done[0].Detail != string(TaskStateCompleted) {
		t.Errorf("done = %+v, want one completed entry", done)
	}
}
