package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/locale"
)

// Translator translates one batch of dictionary entries. The result must hold
// every input key, keep list values at the same length, and leave bracketed or
// braced literals as they are.
type Translator interface {
	Name() string
	TranslateBatch(ctx context.Context, batch *dict.Dictionary, target locale.Locale) (*dict.Dictionary, error)
}

// ProviderError is a failed call to a translation backend.
type ProviderError struct {
	Provider  string
	Status    int
	Message   string
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
}

// ShapeError rejects the translation of one key.
type ShapeError struct {
	Key    string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("key %s: %s", e.Key, e.Reason)
}

// BatchError reports keys of one batch that did not get a translation.
type BatchError struct {
	Batch int
	Keys  []string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d keys): %v", e.Batch, len(e.Keys), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable reports whether another attempt could succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return true
}

// classifyStatus turns a non-200 HTTP status into a ProviderError.
func classifyStatus(provider string, status int, body []byte) *ProviderError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return &ProviderError{
		Provider:  provider,
		Status:    status,
		Message:   msg,
		Retryable: status == 429 || status >= 500,
	}
}
