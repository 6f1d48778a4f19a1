package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"agroprice/internal/domain"
)

// MockTaskStore is a mock implementation of port.TaskStore.
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Get(ctx context.Context, taskID string) (*domain.ParseTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseTask), args.Error(1)
}

func (m *MockTaskStore) Set(ctx context.Context, task *domain.ParseTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) List(ctx context.Context) ([]domain.ParseTask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ParseTask), args.Error(1)
}
