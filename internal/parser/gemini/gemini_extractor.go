package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"savemymoney/internal/config"
	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
	"savemymoney/internal/port"
)

const (
	providerName = "gemini"
	temperature  = 0.1
)

// generator is the slice of *genai.GenerativeModel the extractor uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// modelFactory opens a model session. The returned closer releases the client.
type modelFactory func(ctx context.Context) (generator, func() error, error)

// Extractor implements port.VisionExtractor using the Google Gemini SDK.
type Extractor struct {
	apiKey    string
	model     string
	maxTokens int32
	timeout   time.Duration
	open      modelFactory
}

// NewExtractor creates a Gemini-based vision extractor from a provider config.
func NewExtractor(cfg *config.ParserProviderConfig) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	maxTokens := int32(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	e := &Extractor{
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
	e.open = e.openModel
	return e
}

func (e *Extractor) openModel(ctx context.Context) (generator, func() error, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return nil, nil, fmt.Errorf("creating gemini client: %w", err)
	}
	m := client.GenerativeModel(e.model)
	m.SetTemperature(temperature)
	m.SetMaxOutputTokens(e.maxTokens)
	m.SystemInstruction = genai.NewUserContent(genai.Text(parser.BuildReceiptPrompt()))
	m.ResponseMIMEType = "application/json"
	return m, client.Close, nil
}

// Name implements port.VisionExtractor.
func (e *Extractor) Name() string {
	return providerName
}

func (e *Extractor) Extract(ctx context.Context, input port.VisionInput) (*domain.ExtractionResult, error) {
	if e.apiKey == "" {
		return nil, parser.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	model, closeFn, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFn() }()

	contentType := input.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(input.ImageBytes)
	}

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: contentType, Data: input.ImageBytes},
		genai.Text("Extract the products and receipt details from this receipt."),
	)
	if err != nil {
		return nil, classify(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return parser.ParseVisionResponse(text, "vision:"+providerName)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini API")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		return "", fmt.Errorf("output truncated (finish_reason: MAX_TOKENS): response exceeded output token limit")
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from gemini API")
	}
	return sb.String(), nil
}

// classify maps SDK errors onto the shared vision error types.
func classify(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		retryAfter := ""
		if gErr.Header != nil {
			retryAfter = gErr.Header.Get("Retry-After")
		}
		return parser.StatusError(providerName, gErr.Code, []byte(gErr.Message), retryAfter)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key not valid"), strings.Contains(msg, "permission_denied"):
		return &parser.AuthError{Err: err, Provider: providerName, StatusCode: http.StatusForbidden}
	case strings.Contains(msg, "quota"):
		return &parser.QuotaError{Err: err, Provider: providerName}
	case strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "429"):
		return parser.NewRateLimitError(providerName, err, 0)
	}
	return fmt.Errorf("calling gemini API: %w", err)
}
