// Package apperr defines the error taxonomy shared by every stage of the
// query pipeline, so callers can branch on Kind without parsing message text.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error into one of the categories a caller might act on.
type Kind int

const (
	// KindInternal covers anything that doesn't fit another kind.
	KindInternal Kind = iota
	KindInputInvalid
	KindLanguageMismatch
	KindRefusal
	KindUpstreamTimeout
	KindUpstreamFailure
	KindCacheUnavailable
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInputInvalid:
		return "input_invalid"
	case KindLanguageMismatch:
		return "language_mismatch"
	case KindRefusal:
		return "refusal"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindCacheUnavailable:
		return "cache_unavailable"
	case KindCancelled:
		return "cancelled"
	default:
		return "internal"
	}
}

// Error wraps a cause with the pipeline stage it occurred in and the kind of
// failure it represents, so it can be logged with full detail while only a
// sanitized message ever reaches a caller.
type Error struct {
	Kind    Kind
	Stage   string
	Elapsed time.Duration
	Err     error
}

func New(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind of err, defaulting to KindInternal when err is
// nil or was not constructed by this package.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Sanitize produces the text that is safe to show a caller: no upstream
// error text, no prompt content, no credentials. It is the only place in the
// codebase allowed to turn an internal error into user-visible text.
func Sanitize(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindInputInvalid:
		return "Your request could not be processed. Please check your input and try again."
	case KindLanguageMismatch:
		return "Whoops! You wrote in a different language than the one you selected. Please choose the language you want me to respond in so I can ensure the best translation for you."
	case KindRefusal:
		return "I'm a climate change assistant and can only help with questions about climate, environment, and sustainability."
	case KindUpstreamTimeout:
		return "The request took too long to process. Please try again."
	case KindUpstreamFailure, KindCacheUnavailable:
		return "Something went wrong while processing your request. Please try again shortly."
	case KindCancelled:
		return "The request was cancelled."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
