package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"agroprice/internal/domain"
)

// MockPriceExtractor is a mock implementation of port.PriceExtractor.
type MockPriceExtractor struct {
	mock.Mock
}

func (m *MockPriceExtractor) Extract(ctx context.Context, imageURL string, referenceNames []string) ([]domain.ParsedPriceRecord, error) {
	args := m.Called(ctx, imageURL, referenceNames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ParsedPriceRecord), args.Error(1)
}
