package a2a

import (
	"fmt"
	"sync"
	"time"
)

// TaskStore keeps tasks in memory. Get and List return copies so callers can
// read them without holding the lock.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*Task)}
}

func (s *TaskStore) Create(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; !exists {
		s.order = append(s.order, task.ID)
	}
	if task.Kind == "" {
		task.Kind = KindTask
	}
	s.tasks[task.ID] = task
}

func (s *TaskStore) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %q not found", id)
	}
	return copyTask(t), nil
}

func (s *TaskStore) Update(id string, state TaskState) error {
	return s.UpdateStatus(id, TaskStatus{State: state})
}

func (s *TaskStore) UpdateStatus(id string, status TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	if status.Timestamp == "" {
		status.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	t.Status = status
	return nil
}

func (s *TaskStore) AppendMessage(id string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	t.History = append(t.History, msg)
	return nil
}

// AddArtifact appends a new artifact, or extends the parts of an existing one
// with the same id when appendParts is set.
func (s *TaskStore) AddArtifact(id string, a Artifact, appendParts bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	if appendParts {
		for i := range t.Artifacts {
			if t.Artifacts[i].ArtifactID == a.ArtifactID {
				t.Artifacts[i].Parts = append(t.Artifacts[i].Parts, a.Parts...)
				return nil
			}
		}
	}
	t.Artifacts = append(t.Artifacts, a)
	return nil
}

// List returns tasks in creation order.
func (s *TaskStore) List() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Task, 0, len(s.tasks))
	for _, id := range s.order {
		result = append(result, copyTask(s.tasks[id]))
	}
	return result
}

func copyTask(t *Task) *Task {
	c := *t
	c.History = append([]Message(nil), t.History...)
	c.Artifacts = make([]Artifact, len(t.Artifacts))
	for i, a := range t.Artifacts {
		a.Parts = append([]Part(nil), a.Parts...)
		c.Artifacts[i] = a
	}
	if len(c.Artifacts) == 0 {
		c.Artifacts = nil
	}
	return &c
}
