package parser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoJSON means the model response contained no JSON object.
	ErrNoJSON = errors.New("no JSON object in model response")
	// ErrNotConfigured means no vision provider has a credential.
	ErrNotConfigured = errors.New("vision extractor not configured")
)

// RateLimitError indicates a vision provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// AuthError indicates the provider rejected the credential.
type AuthError struct {
	Err        error
	Provider   string
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// QuotaError indicates the account has exhausted its quota or billing.
type QuotaError struct {
	Err      error
	Provider string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exhausted: %v", e.Provider, e.Err)
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// isQuotaMessage reports whether an error body talks about quota or billing.
func isQuotaMessage(body string) bool {
	b := strings.ToLower(body)
	for _, k := range []string{"insufficient_quota", "quota", "billing", "credit balance", "resource_exhausted"} {
		if strings.Contains(b, k) {
			return true
		}
	}
	return false
}

// StatusError maps a non-200 provider response onto the typed errors above.
func StatusError(provider string, status int, body []byte, retryAfter string) error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, status, truncate(string(body), 500))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Err: baseErr, Provider: provider, StatusCode: status}
	case status == http.StatusPaymentRequired:
		return &QuotaError{Err: baseErr, Provider: provider}
	case status == http.StatusTooManyRequests && isQuotaMessage(string(body)):
		return &QuotaError{Err: baseErr, Provider: provider}
	case status == http.StatusTooManyRequests:
		return NewRateLimitError(provider, baseErr, ParseRetryAfterHeader(retryAfter))
	default:
		return baseErr
	}
}

// ClassifyError names the failure class of a vision call for logs and diagnostics.
func ClassifyError(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		rlErr    *RateLimitError
		authErr  *AuthError
		quotaErr *QuotaError
		netErr   net.Error
	)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &quotaErr):
		return "quota"
	case errors.As(err, &rlErr):
		return "rate_limit"
	case errors.As(err, &authErr):
		return "auth"
	case errors.Is(err, ErrNoJSON):
		return "no_json"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "unknown"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
