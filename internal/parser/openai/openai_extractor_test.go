package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savemymoney/internal/config"
	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
	"savemymoney/internal/parser/openai"
	"savemymoney/internal/port"
)

const receiptJSON = `{"items":[{"description":"ARROZ TIPO 1","amount":"22,90","quantity":1},{"description":"FEIJAO","amount":8.5,"quantity":2,"unit_price":4.25}],"establishment":"MERCADO BOM PRECO","cnpj":"12.345.678/0001-90","date":"15/03/2024","time":"14:32","total":31.4,"payment_method":{"type":"pix","details":null}}`

func newTestExtractor(serverURL string) *openai.Extractor {
	cfg := &config.ParserProviderConfig{
		Provider:     "openai",
		APIKey:       "test-key",
		DefaultModel: "gpt-4o-mini",
		TimeoutSecs:  10,
	}
	return openai.NewExtractorWithEndpoint(cfg, serverURL)
}

var jpegInput = port.VisionInput{ImageBytes: []byte{0xFF, 0xD8, 0xFF, 0xE0}, ContentType: "image/jpeg"}

func TestOpenAIExtractor_Extract_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o-mini", reqBody["model"])
		assert.InDelta(t, 0.1, reqBody["temperature"], 1e-9)
		assert.Equal(t, float64(4096), reqBody["max_tokens"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
		content := messages[1].(map[string]interface{})["content"].([]interface{})
		require.Len(t, content, 2)
		image := content[1].(map[string]interface{})["image_url"].(map[string]interface{})
		assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/jpeg;base64,"))
		assert.Equal(t, "high", image["detail"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "```json\n" + receiptJSON + "\n```"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	result, err := newTestExtractor(server.URL).Extract(context.Background(), jpegInput)

	require.NoError(t, err)
	assert.Equal(t, "vision:openai", result.Method)
	assert.Equal(t, domain.ConfidenceHigh, result.Confidence)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 22.90, result.Items[0].Amount)
	assert.Equal(t, 2, result.Items[1].Quantity)
	assert.Equal(t, "MERCADO BOM PRECO", result.Metadata.Establishment)
	require.NotNil(t, result.Metadata.PaymentMethod)
	assert.Equal(t, domain.PaymentPix, result.Metadata.PaymentMethod.Type)
	require.NotNil(t, result.Validation)
}

func TestOpenAIExtractor_Extract_NoAPIKey(t *testing.T) {
	ex := openai.NewExtractorWithEndpoint(&config.ParserProviderConfig{}, "http://unused")

	_, err := ex.Extract(context.Background(), jpegInput)

	assert.ErrorIs(t, err, parser.ErrNotConfigured)
}

func TestOpenAIExtractor_Extract_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		outcome string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key"}}`, "auth"},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`, "rate_limit"},
		{"quota", http.StatusTooManyRequests, `{"error":{"code":"insufficient_quota"}}`, "quota"},
		{"server error", http.StatusInternalServerError, `oops`, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestExtractor(server.URL).Extract(context.Background(), jpegInput)

			require.Error(t, err)
			assert.Equal(t, tt.outcome, parser.ClassifyError(err))
		})
	}
}

func TestOpenAIExtractor_Extract_RetryAfterHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), jpegInput)

	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "openai", rlErr.Provider)
	assert.Equal(t, float64(7), rlErr.RetryAfter.Seconds())
}

func TestOpenAIExtractor_Extract_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": `{"items":[`}, "finish_reason": "length"},
			},
		})
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), jpegInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestOpenAIExtractor_Extract_NoJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "I cannot read this image."}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), jpegInput)

	assert.ErrorIs(t, err, parser.ErrNoJSON)
}

func TestOpenAIExtractor_Name(t *testing.T) {
	assert.Equal(t, "openai", newTestExtractor("http://unused").Name())
}
