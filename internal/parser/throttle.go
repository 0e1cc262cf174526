package parser

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

// ThrottledExtractor caps the rate of outbound vision calls shared by all requests.
type ThrottledExtractor struct {
	inner   port.VisionExtractor
	limiter *rate.Limiter
}

// NewThrottledExtractor wraps inner with a limiter allowing perMinute calls.
// A non-positive perMinute returns inner unchanged.
func NewThrottledExtractor(inner port.VisionExtractor, perMinute int) port.VisionExtractor {
	if perMinute <= 0 {
		return inner
	}
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &ThrottledExtractor{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

// Name returns the wrapped extractor's name.
func (t *ThrottledExtractor) Name() string {
	return t.inner.Name()
}

// Extract waits for a token, then delegates. Waiting respects ctx.
func (t *ThrottledExtractor) Extract(ctx context.Context, input port.VisionInput) (*domain.ExtractionResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for vision rate limiter: %w", err)
	}
	return t.inner.Extract(ctx, input)
}
