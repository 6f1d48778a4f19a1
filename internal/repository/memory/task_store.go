// Package memory keeps parse task state in process memory. Tasks are lost on restart
// and are not visible to other instances.
package memory

import (
	"context"
	"sort"
	"sync"

	"agroprice/internal/domain"
	"agroprice/internal/port"
)

type taskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.ParseTask
}

// NewTaskStore creates an in-memory TaskStore.
func NewTaskStore() port.TaskStore {
	return &taskStore{tasks: make(map[string]*domain.ParseTask)}
}

func (s *taskStore) Get(_ context.Context, taskID string) (*domain.ParseTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (s *taskStore) Set(_ context.Context, task *domain.ParseTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

// List returns every task, newest first.
func (s *taskStore) List(_ context.Context) ([]domain.ParseTask, error) {
	s.mu.RLock()
	out := make([]domain.ParseTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
