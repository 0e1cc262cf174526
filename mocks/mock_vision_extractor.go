package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

// MockVisionExtractor is a mock implementation of port.VisionExtractor.
type MockVisionExtractor struct {
	mock.Mock
}

func (m *MockVisionExtractor) Extract(ctx context.Context, input port.VisionInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockVisionExtractor) Name() string {
	args := m.Called()
	return args.String(0)
}
