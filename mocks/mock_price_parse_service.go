package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"agroprice/internal/domain"
	"agroprice/internal/service"
)

// MockPriceParseService is a mock implementation of service.PriceParseService.
type MockPriceParseService struct {
	mock.Mock
}

func (m *MockPriceParseService) CreateTask(ctx context.Context, input service.CreateTaskInput) (*service.CreateTaskOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateTaskOutput), args.Error(1)
}

func (m *MockPriceParseService) GetTaskStatus(ctx context.Context, taskID string) (*domain.ParseTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseTask), args.Error(1)
}

func (m *MockPriceParseService) ListTasks(ctx context.Context) ([]domain.ParseTask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ParseTask), args.Error(1)
}

func (m *MockPriceParseService) CancelTask(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockPriceParseService) SavePriceData(ctx context.Context, input service.SavePriceDataInput) (*domain.SaveResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaveResult), args.Error(1)
}
