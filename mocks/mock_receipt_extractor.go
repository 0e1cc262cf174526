package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

// MockReceiptExtractor is a mock implementation of port.ReceiptExtractor.
type MockReceiptExtractor struct {
	mock.Mock
}

func (m *MockReceiptExtractor) ExtractReceiptData(ctx context.Context, image []byte) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockReceiptExtractor) ExtractWithReport(ctx context.Context, image []byte) (*port.ExtractionReport, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractionReport), args.Error(1)
}
