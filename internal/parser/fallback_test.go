package parser_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
	"savemymoney/internal/port"
	"savemymoney/mocks"
)

func namedExtractor(name string) *mocks.MockVisionExtractor {
	m := new(mocks.MockVisionExtractor)
	m.On("Name").Return(name).Maybe()
	return m
}

func visionResult(method string) *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Items:      []domain.ExtractedItem{{Description: "ARROZ", Amount: 5, Quantity: 1}},
		Confidence: domain.ConfidenceHigh,
		Method:     method,
	}
}

var fallbackInput = port.VisionInput{ImageBytes: []byte("img"), ContentType: "image/jpeg"}

func TestFallbackExtractor_FirstSucceeds(t *testing.T) {
	e1, e2 := namedExtractor("openai"), namedExtractor("gemini")
	e1.On("Extract", mock.Anything, fallbackInput).Return(visionResult("vision:openai"), nil)

	fe := parser.NewFallbackExtractor([]port.VisionExtractor{e1, e2})

	result, err := fe.Extract(context.Background(), fallbackInput)

	require.NoError(t, err)
	assert.Equal(t, "vision:openai", result.Method)
	e2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_FirstFails_SecondSucceeds(t *testing.T) {
	e1, e2 := namedExtractor("openai"), namedExtractor("gemini")
	e1.On("Extract", mock.Anything, fallbackInput).Return(nil, errors.New("generic error"))
	e2.On("Extract", mock.Anything, fallbackInput).Return(visionResult("vision:gemini"), nil)

	fe := parser.NewFallbackExtractor([]port.VisionExtractor{e1, e2})

	result, err := fe.Extract(context.Background(), fallbackInput)

	require.NoError(t, err)
	assert.Equal(t, "vision:gemini", result.Method)
}

func TestFallbackExtractor_RateLimitedProviderIsSkippedNextTime(t *testing.T) {
	e1, e2 := namedExtractor("openai"), namedExtractor("gemini")
	e1.On("Extract", mock.Anything, fallbackInput).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 60)).Once()
	e2.On("Extract", mock.Anything, fallbackInput).Return(visionResult("vision:gemini"), nil).Twice()

	fe := parser.NewFallbackExtractor([]port.VisionExtractor{e1, e2})

	_, err := fe.Extract(context.Background(), fallbackInput)
	require.NoError(t, err)
	_, err = fe.Extract(context.Background(), fallbackInput)
	require.NoError(t, err)

	e1.AssertNumberOfCalls(t, "Extract", 1)
	e2.AssertNumberOfCalls(t, "Extract", 2)
}

func TestFallbackExtractor_AllRateLimited(t *testing.T) {
	e1, e2 := namedExtractor("openai"), namedExtractor("gemini")
	e1.On("Extract", mock.Anything, fallbackInput).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 30))
	e2.On("Extract", mock.Anything, fallbackInput).Return(nil, parser.NewRateLimitError("gemini", errors.New("429"), 60))

	fe := parser.NewFallbackExtractor([]port.VisionExtractor{e1, e2})

	_, err := fe.Extract(context.Background(), fallbackInput)

	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)

	// Both circuits are now open; nothing is called and the error repeats.
	_, err = fe.Extract(context.Background(), fallbackInput)
	require.True(t, errors.As(err, &rlErr))
	e1.AssertNumberOfCalls(t, "Extract", 1)
	e2.AssertNumberOfCalls(t, "Extract", 1)
}

func TestFallbackExtractor_AllFail(t *testing.T) {
	e1, e2 := namedExtractor("openai"), namedExtractor("gemini")
	e1.On("Extract", mock.Anything, fallbackInput).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 30))
	e2.On("Extract", mock.Anything, fallbackInput).Return(nil, &parser.AuthError{Err: errors.New("bad key"), Provider: "gemini", StatusCode: 401})

	fe := parser.NewFallbackExtractor([]port.VisionExtractor{e1, e2})

	_, err := fe.Extract(context.Background(), fallbackInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all vision providers failed")
	assert.Equal(t, "auth", parser.ClassifyError(err))
}

func TestFallbackExtractor_StopsWhenContextDone(t *testing.T) {
	e1, e2 := namedExtractor("openai"), namedExtractor("gemini")
	ctx, cancel := context.WithCancel(context.Background())
	e1.On("Extract", mock.Anything, fallbackInput).Run(func(mock.Arguments) { cancel() }).Return(nil, context.Canceled)

	fe := parser.NewFallbackExtractor([]port.VisionExtractor{e1, e2})

	_, err := fe.Extract(ctx, fallbackInput)

	assert.ErrorIs(t, err, context.Canceled)
	e2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_Name(t *testing.T) {
	fe := parser.NewFallbackExtractor([]port.VisionExtractor{namedExtractor("openai"), namedExtractor("claude")})
	assert.Equal(t, "fallback(openai,claude)", fe.Name())
}

func TestFallbackExtractor_ConcurrentCalls(t *testing.T) {
	e1, e2 := namedExtractor("openai"), namedExtractor("gemini")
	e1.On("Extract", mock.Anything, fallbackInput).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 60))
	e2.On("Extract", mock.Anything, fallbackInput).Return(visionResult("vision:gemini"), nil)

	fe := parser.NewFallbackExtractor([]port.VisionExtractor{e1, e2})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := fe.Extract(context.Background(), fallbackInput)
			assert.NoError(t, err)
			assert.Equal(t, "vision:gemini", result.Method)
		}()
	}
	wg.Wait()
}
