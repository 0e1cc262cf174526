package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"savemymoney/internal/domain"
)

// MockExtractionRunRepo is a mock implementation of port.ExtractionRunRepository.
type MockExtractionRunRepo struct {
	mock.Mock
}

func (m *MockExtractionRunRepo) Create(ctx context.Context, run *domain.ExtractionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockExtractionRunRepo) ListRecent(ctx context.Context, limit int) ([]domain.ExtractionRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionRun), args.Error(1)
}

func (m *MockExtractionRunRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
