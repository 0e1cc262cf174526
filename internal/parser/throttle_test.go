package parser_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"savemymoney/internal/parser"
)

func TestNewThrottledExtractor_DisabledReturnsInner(t *testing.T) {
	inner := namedExtractor("openai")

	assert.Same(t, inner, parser.NewThrottledExtractor(inner, 0))
}

func TestThrottledExtractor_DelegatesWithinBudget(t *testing.T) {
	inner := namedExtractor("openai")
	inner.On("Extract", mock.Anything, fallbackInput).Return(visionResult("vision:openai"), nil)

	ex := parser.NewThrottledExtractor(inner, 600)

	result, err := ex.Extract(context.Background(), fallbackInput)

	require.NoError(t, err)
	assert.Equal(t, "vision:openai", result.Method)
	assert.Equal(t, "openai", ex.Name())
}

func TestThrottledExtractor_WaitRespectsDeadline(t *testing.T) {
	inner := namedExtractor("openai")
	inner.On("Extract", mock.Anything, fallbackInput).Return(visionResult("vision:openai"), nil)

	// One call per minute with a burst of one: the second call cannot get a token in time.
	ex := parser.NewThrottledExtractor(inner, 1)
	_, err := ex.Extract(context.Background(), fallbackInput)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = ex.Extract(ctx, fallbackInput)

	require.Error(t, err)
	inner.AssertNumberOfCalls(t, "Extract", 1)
}
