package perception

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"renoplan/internal/logging"
	"renoplan/internal/types"
)

// RetryPolicy controls overload retries. The wait before retry n (0-based)
// is Delay * (n+1).
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy is 3 retries with a 5s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Delay: 5 * time.Second}
}

// IsTransient reports whether err is a rate-limit or overload response.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"503", "429", "overloaded", "resource_exhausted", "unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Retry runs fn until it succeeds, fails permanently, or the policy is
// exhausted. Permanent failures wrap types.ErrExternalService; exhausted
// retries wrap types.ErrTransientOverload. Context errors are returned
// wrapped but unclassified.
func Retry[T any](ctx context.Context, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("%s: %w", op, ctxErr)
		}
		if errors.Is(err, types.ErrExternalService) {
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		if !IsTransient(err) {
			return zero, fmt.Errorf("%s: %w: %w", op, types.ErrExternalService, err)
		}
		if attempt == p.MaxRetries {
			break
		}

		wait := p.Delay * time.Duration(attempt+1)
		logging.APIWarn("%s overloaded (attempt %d/%d), retrying in %v: %v", op, attempt+1, p.MaxRetries+1, wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("%s: %w after %d attempts: %w", op, types.ErrTransientOverload, p.MaxRetries+1, lastErr)
}
