package a2a

import (
	"fmt"
	"sync"
	"testing"
)

func TestTaskStore_CreateAndGet(t *testing.T) {
	s := NewTaskStore()
	s.Create(&Task{ID: "t1", Status: TaskStatus{State: TaskStateSubmitted}})

	got, err := s.Get("t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "t1" {
		t.Errorf("ID = %q, want %q", got.ID, "t1")
	}
	if got.Kind != KindTask {
		t.Errorf("Kind = %q, want %q", got.Kind, KindTask)
	}
	if got.Status.State != TaskStateSubmitted {
		t.Errorf("State = %q, want %q", got.Status.State, TaskStateSubmitted)
	}
}

func TestTaskStore_GetNotFound(t *testing.T) {
	s := NewTaskStore()
	if _, err := s.Get("nonexistent"); err == nil {
		t.Error("expected error for missing task")
	}
}

func TestTaskStore_GetReturnsCopy(t *testing.T) {
	s := NewTaskStore()
	s.Create(&Task{ID: "t1", History: []Message{*NewTextMessage(RoleUser, "hi")}})

	got, _ := s.Get("t1")
	got.History[0].Parts = nil
	got.Status.State = TaskStateFailed

	again, _ := s.Get("t1")
	if again.Status.State == TaskStateFailed {
		t.Error("mutating a returned task changed the store")
	}
	if len(again.History[0].Parts) != 1 {
		t.Errorf("History[0].Parts len = %d, want 1", len(again.History[0].Parts))
	}
}

func TestTaskStore_Update(t *testing.T) {
	s := NewTaskStore()
	s.Create(&Task{ID: "t1", Status: TaskStatus{State: TaskStateSubmitted}})

	if err := s.Update("t1", TaskStateWorking); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := s.Get("t1")
	if got.Status.State != TaskStateWorking {
		t.Errorf("State = %q, want %q", got.Status.State, TaskStateWorking)
	}
	if got.Status.Timestamp == "" {
		t.Error("expected status timestamp to be set")
	}
}

func TestTaskStore_UpdateNotFound(t *testing.T) {
	s := NewTaskStore()
	if err := s.Update("nonexistent", TaskStateWorking); err == nil {
		t.Error("expected error for missing task")
	}
}

func TestTaskStore_AppendMessage(t *testing.T) {
	s := NewTaskStore()
	s.Create(&Task{ID: "t1"})

	if err := s.AppendMessage("t1", *NewTextMessage(RoleUser, "hello")); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	got, _ := s.Get("t1")
	if len(got.History) != 1 {
		t.Fatalf("History len = %d, want 1", len(got.History))
	}
	if got.History[0].Text() != "hello" {
		t.Errorf("Text = %q, want %q", got.History[0].Text(), "hello")
	}
}

func TestTaskStore_AppendMessageNotFound(t *testing.T) {
	s := NewTaskStore()
	if err := s.AppendMessage("nonexistent", *NewTextMessage(RoleUser, "hello")); err == nil {
		t.Error("expected error for missing task")
	}
}

func TestTaskStore_AddArtifact(t *testing.T) {
	s := NewTaskStore()
	s.Create(&Task{ID: "t1"})

	_ = s.AddArtifact("t1", Artifact{ArtifactID: "a1", Parts: []Part{TextPart("one")}}, false)
	_ = s.AddArtifact("t1", Artifact{ArtifactID: "a1", Parts: []Part{TextPart("two")}}, true)
	_ = s.AddArtifact("t1", Artifact{ArtifactID: "a2", Parts: []Part{TextPart("three")}}, false)

	got, _ := s.Get("t1")
	if len(got.Artifacts) != 2 {
		t.Fatalf("Artifacts len = %d, want 2", len(got.Artifacts))
	}
	if len(got.Artifacts[0].Parts) != 2 {
		t.Errorf("Artifacts[0].Parts len = %d, want 2", len(got.Artifacts[0].Parts))
	}
}

func TestTaskStore_List(t *testing.T) {
	s := NewTaskStore()
	s.Create(&Task{ID: "t1", Status: TaskStatus{State: TaskStateSubmitted}})
	s.Create(&Task{ID: "t2", Status: TaskStatus{State: TaskStateWorking}})
	s.Create(&Task{ID: "t3", Status: TaskStatus{State: TaskStateCompleted}})

	tasks := s.List()
	if len(tasks) != 3 {
		t.Fatalf("List len = %d, want 3", len(tasks))
	}
	for i, want := range []string{"t1", "t2", "t3"} {
		if tasks[i].ID != want {
			t.Errorf("tasks[%d].ID = %q, want %q", i, tasks[i].ID, want)
		}
	}
}

func TestTaskStore_ListEmpty(t *testing.T) {
	s := NewTaskStore()
	if tasks := s.List(); len(tasks) != 0 {
		t.Errorf("List len = %d, want 0", len(tasks))
	}
}

func TestTaskStore_ConcurrentAccess(t *testing.T) {
	s := NewTaskStore()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.Create(&Task{ID: id, Status: TaskStatus{State: TaskStateSubmitted}})
		}(fmt.Sprintf("t%d", i))
	}
	wg.Wait()

	if tasks := s.List(); len(tasks) != 100 {
		t.Errorf("List len = %d, want 100", len(tasks))
	}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = s.Get(id)
			_ = s.Update(id, TaskStateWorking)
			_ = s.AppendMessage(id, *NewTextMessage(RoleAgent, "ok"))
		}(fmt.Sprintf("t%d", i))
	}
	wg.Wait()
}
