package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"agroprice/internal/domain"
)

// MockPriceTrendService is a mock implementation of service.PriceTrendService.
type MockPriceTrendService struct {
	mock.Mock
}

func (m *MockPriceTrendService) BatchCreate(ctx context.Context, records []domain.PriceTrendRecord) (*domain.BatchResult, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}
