package recognize

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// RetryPolicy configures retries of a single page.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		BaseBackoff: 2 * time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// Do runs r on img until it succeeds, fails with a non-transient error, or
// runs out of attempts. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, r Recognizer, img Image) (string, int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := r.Recognize(ctx, img)
		if err == nil {
			return text, attempt, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", attempt, ctx.Err()
		}
		if !isRetryable(err) || attempt == attempts {
			return "", attempt, lastErr
		}
		select {
		case <-ctx.Done():
			return "", attempt, ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}
	return "", attempts, lastErr
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	wait := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
	}
	if p.MaxBackoff > 0 && wait > p.MaxBackoff {
		wait = p.MaxBackoff
	}
	return wait
}

// transientStatus matches an HTTP status code that stands alone in an error
// message, so "5000" or "4290" never match.
var transientStatus = regexp.MustCompile(`(?:^|[^0-9])(429|500|502|503|504)(?:[^0-9]|$)`)

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// isRetryable reports whether err looks transient. Empty answers are retried
// since vision models occasionally return nothing for a readable page.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrUnknownModel) {
		return false
	}
	if errors.Is(err, ErrNoText) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}

	errStr := strings.ToLower(err.Error())
	if m := transientStatus.FindStringSubmatch(errStr); m != nil {
		code, _ := strconv.Atoi(m[1])
		return retryableStatus(code)
	}
	for _, s := range []string{
		"rate limit", "too many requests",
		"bad gateway", "service unavailable", "overloaded",
		"connection refused", "connection reset", "timeout", "temporary failure",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
