package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"agroprice/internal/domain"
)

// MockPriceTrendRepo is a mock implementation of port.PriceTrendRepository.
type MockPriceTrendRepo struct {
	mock.Mock
}

func (m *MockPriceTrendRepo) BulkInsert(ctx context.Context, records []domain.PriceTrendRecord) ([]domain.PriceTrendRecord, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PriceTrendRecord), args.Error(1)
}

func (m *MockPriceTrendRepo) Insert(ctx context.Context, record *domain.PriceTrendRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
