package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error is the typed error surface of the gateway client. Fatal errors abort
// the whole run; retryable errors are retried inside the per-call budget and,
// once exhausted, become a per-model failure for the caller to absorb.
type Error interface {
	error
	StatusCode() int
	Fatal() bool
	Retryable() bool
	RetryAfter() *time.Duration
}

type errorBase struct {
	statusCode int
	message    string
	fatal      bool
	retryable  bool
	retryAfter *time.Duration
}

func (e *errorBase) Error() string {
	msg := strings.TrimSpace(e.message)
	if msg == "" {
		msg = "request failed"
	}
	if e.statusCode == 0 {
		return "gateway error: " + msg
	}
	return fmt.Sprintf("gateway error (status=%d): %s", e.statusCode, msg)
}
func (e *errorBase) StatusCode() int            { return e.statusCode }
func (e *errorBase) Fatal() bool                { return e.fatal }
func (e *errorBase) Retryable() bool            { return e.retryable }
func (e *errorBase) RetryAfter() *time.Duration { return e.retryAfter }

// InvalidCredentialError: the gateway rejected the API key (401).
type InvalidCredentialError struct{ errorBase }

// InsufficientCreditError: the account cannot pay for the call (402).
type InsufficientCreditError struct{ errorBase }

// RateLimitedError: the gateway throttled the request (429).
type RateLimitedError struct{ errorBase }

// ServerError: a 5xx from the gateway.
type ServerError struct{ errorBase }

// MidStreamError: a 2xx whose first choice finished with reason "error".
// The body is never surfaced as text.
type MidStreamError struct{ errorBase }

// TimeoutError: the per-attempt deadline elapsed before a response arrived.
type TimeoutError struct{ errorBase }

// UnexpectedStatusError covers 4xx codes the policy does not name; not retried.
type UnexpectedStatusError struct{ errorBase }

// errorFromStatus classifies a non-2xx response per the status-code policy.
func errorFromStatus(statusCode int, message string, retryAfter *time.Duration) error {
	base := errorBase{statusCode: statusCode, message: message, retryAfter: retryAfter}
	switch {
	case statusCode == http.StatusUnauthorized:
		base.fatal = true
		return &InvalidCredentialError{base}
	case statusCode == http.StatusPaymentRequired:
		base.fatal = true
		return &InsufficientCreditError{base}
	case statusCode == http.StatusTooManyRequests:
		base.retryable = true
		return &RateLimitedError{base}
	case statusCode >= 500:
		base.retryable = true
		return &ServerError{base}
	default:
		return &UnexpectedStatusError{base}
	}
}

func newMidStreamError(model string) error {
	return &MidStreamError{errorBase{
		statusCode: http.StatusOK,
		message:    fmt.Sprintf("model %s finished mid-stream with reason \"error\"", model),
		retryable:  true,
	}}
}

func newTimeoutError(model string, timeout time.Duration) error {
	return &TimeoutError{errorBase{
		message:   fmt.Sprintf("model %s timed out after %s", model, timeout),
		retryable: true,
	}}
}

// IsFatal reports whether err must abort the run rather than the single call.
func IsFatal(err error) bool {
	var ge Error
	return errors.As(err, &ge) && ge.Fatal()
}

// parseRetryAfter parses a Retry-After header: integer seconds or an
// HTTP-date (RFC 7231).
func parseRetryAfter(v string, now time.Time) *time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		return &d
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}
