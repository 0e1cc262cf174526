package parser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

// circuitState tracks rate-limit backoff for a single extractor.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackExtractor tries vision extractors in order, skipping those with open
// circuits. Rate-limited and quota-exhausted providers are benched until their
// retry window passes. It implements port.VisionExtractor.
type FallbackExtractor struct {
	extractors []port.VisionExtractor
	circuits   []*circuitState
	now        func() time.Time
}

// NewFallbackExtractor creates a FallbackExtractor from an ordered list of extractors.
func NewFallbackExtractor(extractors []port.VisionExtractor) *FallbackExtractor {
	circuits := make([]*circuitState, len(extractors))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackExtractor{
		extractors: extractors,
		circuits:   circuits,
		now:        time.Now,
	}
}

// Name lists the chained providers.
func (f *FallbackExtractor) Name() string {
	names := make([]string, len(f.extractors))
	for i, e := range f.extractors {
		names[i] = e.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

func (f *FallbackExtractor) Extract(ctx context.Context, input port.VisionInput) (*domain.ExtractionResult, error) {
	now := f.now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, e := range f.extractors {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("parser.FallbackExtractor: skipping %s (circuit open until %s)", e.Name(), resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := e.Extract(ctx, input)
		if err == nil {
			return out, nil
		}

		log.Printf("parser.FallbackExtractor: %s failed (%s): %v", e.Name(), ClassifyError(err), err)
		lastErr = err

		// The caller's deadline is shared; trying the next provider cannot help.
		if ctx.Err() != nil {
			return nil, err
		}

		var rlErr *RateLimitError
		var quotaErr *QuotaError
		switch {
		case errors.As(err, &rlErr):
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		case errors.As(err, &quotaErr):
			f.circuits[i].open(now.Add(15 * time.Minute))
			allRateLimited = false
		default:
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all vision providers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all vision providers failed: %w", lastErr)
}
