// Package apperr defines the error taxonomy every component in starcharts
// surfaces to its caller. It mirrors the kinds the teacher's own handlers
// returned as bare HTTP status codes, but as a typed, wrappable value so
// the dispatcher never has to guess what a lower layer meant.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error category. Keep this list closed: the
// dispatcher's JSON error envelope is only as trustworthy as this set.
type Kind string

const (
	InvalidParameter  Kind = "InvalidParameter"
	SystemNotFound    Kind = "SystemNotFound"
	TypeNotFound      Kind = "TypeNotFound"
	RouteNotFound     Kind = "RouteNotFound"
	SourceUnavailable Kind = "SourceUnavailable"
	RateLimited       Kind = "RateLimited"
	IntegrityError    Kind = "IntegrityError"
	Cancelled         Kind = "Cancelled"
	Internal          Kind = "Internal"
)

var retryableKinds = map[Kind]bool{
	SourceUnavailable: true,
	RateLimited:       true,
}

// Error is the value every adapter boundary tags before it bubbles up.
type Error struct {
	Kind      Kind
	Message   string
	Data      map[string]any
	Retryable bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// As lets callers do `var ae *apperr.Error; errors.As(err, &ae)`.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// New builds an Error of the given kind with optional structured data.
func New(kind Kind, message string, data map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Data: data, Retryable: retryableKinds[kind]}
}

// Wrap tags a lower-level error at an adapter boundary without discarding it.
func Wrap(kind Kind, message string, cause error, data map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Data: data, Retryable: retryableKinds[kind], cause: cause}
}

// Invalid is a convenience constructor for the most common InvalidParameter shape.
func Invalid(param, reason string) *Error {
	return New(InvalidParameter, fmt.Sprintf("invalid parameter %q: %s", param, reason), map[string]any{
		"parameter": param,
		"reason":    reason,
	})
}

// NotFoundWithSuggestions builds SystemNotFound/TypeNotFound errors carrying
// up to three suggestions, per spec §7.
func NotFoundWithSuggestions(kind Kind, query string, suggestions []string) *Error {
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return New(kind, fmt.Sprintf("%q did not resolve", query), map[string]any{
		"query":       query,
		"suggestions": suggestions,
	})
}

// RetryAfter builds a RateLimited error carrying the upstream's suggested delay.
func RetryAfter(seconds int) *Error {
	return New(RateLimited, "upstream is rate-limiting us", map[string]any{
		"retry_after_seconds": seconds,
	})
}
