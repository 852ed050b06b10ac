// Package research implements clients for the external research providers
// the enrichment pipeline consumes: OpenAI chat completions, Perplexity chat
// completions with citations, and Google Custom Search.  All three are
// treated as opaque text-in/text-out services; the package owns request
// building, response parsing, retries and nothing else.
package research

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/reubenai/dealsense/pkg/errors"
)

// Request is one research question for a provider.
type Request struct {
	// Prompt is the user-level research question.
	Prompt string

	// SystemPrompt frames the provider's role; ignored by search providers.
	SystemPrompt string

	// MaxTokens bounds the completion length; 0 uses the provider default.
	MaxTokens int
}

// Response is a provider's free-text answer plus any citations it returned.
type Response struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations,omitempty"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model,omitempty"`

	// TokensUsed is the provider-reported token consumption, for cost
	// tracking.  Zero when the provider does not report usage.
	TokensUsed int `json:"tokens_used,omitempty"`
}

// Provider is the narrow contract the enrichment orchestrator depends on.
type Provider interface {
	// Name identifies the provider in logs, sources lists and cost rows.
	Name() string

	// Research issues one call and returns the free-text result.  Errors
	// carry SRC_* codes; callers degrade rather than propagate them.
	Research(ctx context.Context, req Request) (*Response, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared retry helper
// ─────────────────────────────────────────────────────────────────────────────

// retryPolicy controls the shared retry loop.  Retries apply to rate limits
// and transient server errors only; auth and parse failures fail fast.
type retryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

// doWithRetry runs call up to MaxRetries+1 times, backing off exponentially
// with jitter between attempts.  Only rate-limit and provider-unavailable
// errors are retried; the last error is returned when attempts run out.
func doWithRetry(ctx context.Context, p retryPolicy, call func() error) error {
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = call()
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !isRetryable(err) {
			return err
		}

		sleep := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrCodeProviderTimeout, "research call cancelled")
		case <-time.After(sleep):
		}
		backoff *= 2
	}
}

func isRetryable(err error) bool {
	return errors.IsCode(err, errors.ErrCodeProviderRateLimited) ||
		errors.IsCode(err, errors.ErrCodeProviderUnavailable)
}

// errorForStatus maps an HTTP response status to the provider error taxonomy.
func errorForStatus(provider string, status int) *errors.AppError {
	switch {
	case status == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeProviderRateLimited, provider+" rate limited")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.New(errors.ErrCodeProviderAuthFailed, provider+" authentication failed")
	case status >= 500:
		return errors.New(errors.ErrCodeProviderUnavailable, provider+" upstream error")
	default:
		return errors.New(errors.ErrCodeProviderUnavailable, provider+" unexpected response")
	}
}
