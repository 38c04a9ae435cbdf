package oracle

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/archivist/internal/providers"
)

// ErrorKind classifies oracle failures for the pipeline.
type ErrorKind string

const (
	// KindQuotaExhausted means the provider refused for quota or rate
	// reasons. It is never retried by the oracle; the pipeline owns the
	// cooldown.
	KindQuotaExhausted ErrorKind = "quota_exhausted"
	// KindUnavailable covers server errors, timeouts, network failures,
	// empty replies and client errors.
	KindUnavailable ErrorKind = "oracle_unavailable"
	// KindMalformedOutput means the reply could not be parsed or did not
	// match the schema.
	KindMalformedOutput ErrorKind = "malformed_oracle_output"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrQuotaExhausted  = errors.New("oracle quota exhausted")
	ErrUnavailable     = errors.New("oracle unavailable")
	ErrMalformedOutput = errors.New("malformed oracle output")
)

// Error is a classified oracle failure.
type Error struct {
	Kind     ErrorKind
	Attempts int
	Err      error

	retryable bool
}

func (e *Error) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s after %d attempts: %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrQuotaExhausted:
		return e.Kind == KindQuotaExhausted
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrMalformedOutput:
		return e.Kind == KindMalformedOutput
	}
	return false
}

// KindOf returns the kind of an oracle error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// classify maps a transport or decode error to an *Error.
func classify(err error) *Error {
	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}
	switch {
	case errors.Is(err, providers.ErrMalformedOutput):
		return &Error{Kind: KindMalformedOutput, Err: err, retryable: true}
	case providers.IsQuotaExhausted(err):
		return &Error{Kind: KindQuotaExhausted, Err: err}
	case providers.IsTransient(err):
		return &Error{Kind: KindUnavailable, Err: err, retryable: true}
	default:
		return &Error{Kind: KindUnavailable, Err: err}
	}
}

func isRetryable(err error) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.retryable
}
