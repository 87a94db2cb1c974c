package timestamp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/igorsilveira/helloext/pkg/a2a"
)

var fixed = time.Date(2024, 8, 26, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

func newExt() *Extension {
	return New(WithNow(func() time.Time { return fixed }))
}

type recordingQueue struct {
	events []a2a.Event
}

func (q *recordingQueue) Enqueue(_ context.Context, ev a2a.Event) error {
	q.events = append(q.events, ev)
	return nil
}

func TestStampUsesUTC(t *testing.T) {
	md := newExt().Stamp(nil)
	if got := md[Field]; got != "2024-08-26T07:30:00Z" {
		t.Errorf("timestamp = %v, want 2024-08-26T07:30:00Z", got)
	}
	ts, ok := Get(md)
	if !ok || !ts.Equal(fixed) {
		t.Errorf("Get = %v, %v", ts, ok)
	}
}

func TestStampRespectsExisting(t *testing.T) {
	md := map[string]any{Field: "2020-01-01T00:00:00Z", "other": 1}
	got := newExt().Stamp(md)
	if got[Field] != "2020-01-01T00:00:00Z" {
		t.Errorf("timestamp overwritten: %v", got[Field])
	}
	if got["other"] != 1 {
		t.Error("unrelated metadata lost")
	}
}

func TestDecoratorRequiresExplicitActivation(t *testing.T) {
	e := newExt()
	reqCtx := &a2a.RequestContext{
		Message: a2a.NewTextMessage(a2a.RoleUser, "please add a timestamp"),
	}
	inner := &recordingQueue{}
	q := e.Decorator()(reqCtx, inner)
	if q != a2a.Queue(inner) {
		t.Fatal("queue wrapped without the extension header")
	}
	if len(reqCtx.ActivatedExtensions()) != 0 {
		t.Errorf("activated = %v, want none", reqCtx.ActivatedExtensions())
	}
}

func TestDecoratorStampsEvents(t *testing.T) {
	e := newExt()
	reqCtx := &a2a.RequestContext{RequestedExtensions: a2a.NewExtensionSet(URI)}
	inner := &recordingQueue{}
	q := e.Decorator()(reqCtx, inner)

	if got := reqCtx.ActivatedExtensions(); len(got) != 1 || got[0] != URI {
		t.Fatalf("activated = %v, want [%s]", got, URI)
	}

	msg := a2a.NewTextMessage(a2a.RoleAgent, "Hello World")
	status := &a2a.TaskStatusUpdateEvent{
		Kind:   a2a.KindStatusUpdate,
		Status: a2a.TaskStatus{State: a2a.TaskStateWorking, Message: a2a.NewTextMessage(a2a.RoleAgent, "Hello")},
	}
	artifact := &a2a.TaskArtifactUpdateEvent{
		Kind:     a2a.KindArtifactUpdate,
		Artifact: a2a.Artifact{ArtifactID: "a1", Name: "response", Parts: []a2a.Part{a2a.TextPart("Hello World")}},
	}
	task := &a2a.Task{
		Kind: a2a.KindTask,
		History: []a2a.Message{
			*a2a.NewTextMessage(a2a.RoleUser, "hi"),
			*a2a.NewTextMessage(a2a.RoleAgent, "Hello World"),
		},
		Artifacts: []a2a.Artifact{{ArtifactID: "a2"}},
	}
	for _, ev := range []a2a.Event{msg, status, artifact, task} {
		if err := q.Enqueue(context.Background(), ev); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	if len(inner.events) != 4 {
		t.Fatalf("delivered %d events, want 4", len(inner.events))
	}
	if !Has(msg.Metadata) {
		t.Error("message not stamped")
	}
	if !Has(status.Status.Message.Metadata) {
		t.Error("status message not stamped")
	}
	if !Has(artifact.Artifact.Metadata) {
		t.Error("artifact not stamped")
	}
	if !Has(task.Artifacts[0].Metadata) || !Has(task.History[1].Metadata) {
		t.Error("task contents not stamped")
	}
	if Has(task.History[0].Metadata) {
		t.Error("user message in history stamped")
	}
}

func TestGetRejectsMalformed(t *testing.T) {
	if _, ok := Get(map[string]any{Field: "yesterday"}); ok {
		t.Error("Get accepted malformed timestamp")
	}
	if _, ok := Get(nil); ok {
		t.Error("Get found timestamp in nil metadata")
	}
}

func TestClientOptionStampsOutgoingMessages(t *testing.T) {
	var (
		header string
		sent   a2a.MessageSendParams
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get(a2a.ExtensionsHeader)
		var req a2a.JSONRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if err := json.Unmarshal(req.Params, &sent); err != nil {
			t.Errorf("params: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a2a.NewJSONRPCResponse(req.ID, a2a.NewTextMessage(a2a.RoleAgent, "Hello World")))
	}))
	defer srv.Close()

	client := a2a.NewClient(srv.URL, newExt().ClientOption())
	metadata := map[string]any{"source": "cli"}
	if _, err := client.SendText(context.Background(), "hi", metadata); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if header != URI {
		t.Errorf("header = %q, want %q", header, URI)
	}
	if got := sent.Message.Metadata[Field]; got != "2024-08-26T07:30:00Z" {
		t.Errorf("sent timestamp = %v, want 2024-08-26T07:30:00Z", got)
	}
	if sent.Message.Metadata["source"] != "cli" {
		t.Errorf("sent metadata = %v, lost source", sent.Message.Metadata)
	}
	if Has(metadata) {
		t.Error("caller's metadata map was modified")
	}
}
