package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savemymoney/internal/config"
	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
	"savemymoney/internal/parser/claude"
	"savemymoney/internal/port"
)

func newTestExtractor(serverURL string) *claude.Extractor {
	cfg := &config.ParserProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-sonnet-4-20250514",
		MaxTokens:    2048,
		TimeoutSecs:  10,
	}
	return claude.NewExtractorWithEndpoint(cfg, serverURL)
}

var pngInput = port.VisionInput{ImageBytes: []byte("\x89PNG\r\n\x1a\n"), ContentType: "image/png"}

func TestClaudeExtractor_Extract_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(2048), reqBody["max_tokens"])
		assert.InDelta(t, 0.1, reqBody["temperature"], 1e-9)
		assert.NotEmpty(t, reqBody["system"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		content := messages[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, content, 2)
		imageBlock := content[0].(map[string]interface{})
		assert.Equal(t, "image", imageBlock["type"])
		source := imageBlock["source"].(map[string]interface{})
		assert.Equal(t, "image/png", source["media_type"])
		assert.Equal(t, "text", content[1].(map[string]interface{})["type"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": `Here it is: {"items":[{"description":"CAFE PILAO 500G","amount":18.99,"quantity":1}],`},
				{"type": "text", "text": `"establishment":"PADARIA","total":"18,99","payment_method":{"type":"debit"}}`},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	result, err := newTestExtractor(server.URL).Extract(context.Background(), pngInput)

	require.NoError(t, err)
	assert.Equal(t, "vision:claude", result.Method)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "CAFE PILAO 500G", result.Items[0].Description)
	require.NotNil(t, result.Metadata.Total)
	assert.Equal(t, 18.99, *result.Metadata.Total)
	require.NotNil(t, result.Metadata.PaymentMethod)
	assert.Equal(t, domain.PaymentDebit, result.Metadata.PaymentMethod.Type)
}

func TestClaudeExtractor_Extract_UnsupportedContentType(t *testing.T) {
	_, err := newTestExtractor("http://unused").Extract(context.Background(), port.VisionInput{
		ImageBytes:  []byte("%PDF-1.4"),
		ContentType: "application/pdf",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestClaudeExtractor_Extract_MaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"items":[`}},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), pngInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestClaudeExtractor_Extract_Overloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), pngInput)

	assert.Equal(t, "rate_limit", parser.ClassifyError(err))
}

func TestClaudeExtractor_Extract_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), pngInput)

	var authErr *parser.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusForbidden, authErr.StatusCode)
}
