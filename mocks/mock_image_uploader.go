package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"agroprice/internal/port"
)

// MockImageUploader is a mock implementation of port.ImageUploader.
type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) Upload(ctx context.Context, input port.ImageUploadInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}
