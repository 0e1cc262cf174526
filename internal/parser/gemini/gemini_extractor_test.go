package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"savemymoney/internal/config"
	"savemymoney/internal/parser"
	"savemymoney/internal/port"
)

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	parts  []genai.Part
	closed bool
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func newTestExtractor(gen *fakeGenerator) *Extractor {
	e := NewExtractor(&config.ParserProviderConfig{Provider: "gemini", APIKey: "test-key"})
	e.open = func(context.Context) (generator, func() error, error) {
		return gen, func() error { gen.closed = true; return nil }, nil
	}
	return e
}

func textResponse(text string, reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []genai.Part{genai.Text(text)}},
			FinishReason: reason,
		}},
	}
}

var webpInput = port.VisionInput{ImageBytes: []byte("RIFF....WEBP"), ContentType: "image/webp"}

func TestExtract_Success(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(
		`{"items":[{"description":"LEITE INTEGRAL 1L","amount":5.49,"quantity":1}],"establishment":"SUPERMERCADO","date":"2024-03-15","total":5.49}`,
		genai.FinishReasonStop,
	)}

	result, err := newTestExtractor(gen).Extract(context.Background(), webpInput)

	require.NoError(t, err)
	assert.Equal(t, "vision:gemini", result.Method)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "15/03/2024", result.Metadata.Date)
	assert.True(t, gen.closed)

	require.Len(t, gen.parts, 2)
	blob, ok := gen.parts[0].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/webp", blob.MIMEType)
}

func TestExtract_NoAPIKey(t *testing.T) {
	e := NewExtractor(&config.ParserProviderConfig{Provider: "gemini"})

	_, err := e.Extract(context.Background(), webpInput)

	assert.ErrorIs(t, err, parser.ErrNotConfigured)
}

func TestExtract_MaxTokens(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`{"items":[`, genai.FinishReasonMaxTokens)}

	_, err := newTestExtractor(gen).Extract(context.Background(), webpInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestExtract_EmptyCandidates(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{}}

	_, err := newTestExtractor(gen).Extract(context.Background(), webpInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestExtract_OpenFailure(t *testing.T) {
	e := NewExtractor(&config.ParserProviderConfig{APIKey: "k"})
	e.open = func(context.Context) (generator, func() error, error) {
		return nil, nil, errors.New("dial failed")
	}

	_, err := e.Extract(context.Background(), webpInput)

	assert.EqualError(t, err, "dial failed")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "slow down"}, "rate_limit"},
		{"googleapi 403", &googleapi.Error{Code: http.StatusForbidden, Message: "denied"}, "auth"},
		{"googleapi quota", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "Quota exceeded"}, "quota"},
		{"invalid key message", errors.New("googleapi: API key not valid. Please pass a valid API key."), "auth"},
		{"resource exhausted message", errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"), "rate_limit"},
		{"other", errors.New("connection reset"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outcome, parser.ClassifyError(classify(tt.err)))
		})
	}
}

func TestDefaults(t *testing.T) {
	e := NewExtractor(&config.ParserProviderConfig{})

	assert.Equal(t, "gemini-2.0-flash", e.model)
	assert.Equal(t, int32(4096), e.maxTokens)
	assert.Equal(t, "gemini", e.Name())
}
