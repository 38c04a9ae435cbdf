package providers

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

// ErrEmptyResponse is returned when the provider answers 200 with no choices
// or no content.
var ErrEmptyResponse = errors.New("empty response")

// StatusError is a non-2xx response, or an error object embedded in a 200
// response body.
type StatusError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error (status %d, code %s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsQuotaExhausted reports whether err is a rate-limit or quota rejection.
// A reply that failed to decode is never one, whatever its text says.
func IsQuotaExhausted(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedOutput) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests || se.Code == "429" || se.Code == "rate_limit_exceeded" {
			return true
		}
		return containsQuotaMarker(se.Message) || containsQuotaMarker(se.Code)
	}
	return containsQuotaMarker(err.Error())
}

// containsQuotaMarker matches the markers providers put in error bodies when
// the account quota is spent rather than a short-term rate limit.
func containsQuotaMarker(s string) bool {
	return strings.Contains(s, "RESOURCE_EXHAUSTED") || strings.Contains(strings.ToLower(s), "quota")
}

// IsTransient reports whether a retry of the same request might succeed:
// server errors, timeouts, network failures and empty responses.
func IsTransient(err error) bool {
	if err == nil || IsQuotaExhausted(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusRequestTimeout, 413, 422:
			return true
		case http.StatusOK:
			// Error object inside a 200 body.
			switch se.Code {
			case "overloaded", "500", "502", "503":
				return true
			}
			return false
		}
		return se.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Transport failures that do not surface as net.Error (connection reset
	// mid-body, unexpected EOF).
	return true
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
