package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

// MockTextRecognizer is a mock implementation of port.TextRecognizer.
type MockTextRecognizer struct {
	mock.Mock
}

func (m *MockTextRecognizer) Recognize(ctx context.Context, image []byte) port.OCRResult {
	args := m.Called(ctx, image)
	return args.Get(0).(port.OCRResult)
}

// MockImagePreprocessor is a mock implementation of port.ImagePreprocessor.
type MockImagePreprocessor struct {
	mock.Mock
}

func (m *MockImagePreprocessor) Process(ctx context.Context, image []byte) ([]byte, string) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.String(1)
	}
	return args.Get(0).([]byte), args.String(1)
}

// MockReceiptTextParser is a mock implementation of port.ReceiptTextParser.
type MockReceiptTextParser struct {
	mock.Mock
}

func (m *MockReceiptTextParser) Parse(text string) *domain.ExtractionResult {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.ExtractionResult)
}

func (m *MockReceiptTextParser) ExpectedItemCount(text string) *int {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*int)
}
