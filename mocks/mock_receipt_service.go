package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"savemymoney/internal/domain"
	"savemymoney/internal/service"
)

// MockReceiptService is a mock implementation of service.ReceiptService.
type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) Extract(ctx context.Context, input service.ReceiptUploadInput) (*service.ReceiptExtraction, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReceiptExtraction), args.Error(1)
}

func (m *MockReceiptService) RecentRuns(ctx context.Context, limit int) ([]domain.ExtractionRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionRun), args.Error(1)
}
