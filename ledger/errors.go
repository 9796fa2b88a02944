package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies ledger failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindForbidden: the submitter is on the guild deny-list.
	KindForbidden
	// KindRateLimited: the submitter exceeded the short-window submission limit.
	KindRateLimited
	// KindNotFound: the target container or entry does not exist.
	KindNotFound
	// KindCapacityExceeded: an entry cannot fit even into an empty container.
	KindCapacityExceeded
	// KindTransientIO: the platform rejected or dropped a read or write.
	KindTransientIO
	// KindNotConfigured: the guild has no channel bound for the category.
	KindNotConfigured
)

func (k Kind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindTransientIO:
		return "transient_io"
	case KindNotConfigured:
		return "not_configured"
	default:
		return "unknown"
	}
}

// Error is a ledger failure scoped to a single request.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // set for KindRateLimited
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found failure regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Message: msg, RetryAfter: e.RetryAfter, Err: e.Err}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, RetryAfter: e.RetryAfter, Err: err}
}

// Sentinel errors.
var (
	ErrForbidden        = &Error{Kind: KindForbidden, Message: "submitter is not allowed to post"}
	ErrRateLimited      = &Error{Kind: KindRateLimited, Message: "too many submissions"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded, Message: "entry does not fit into a container"}
	ErrTransientIO      = &Error{Kind: KindTransientIO, Message: "platform request failed"}
	ErrNotConfigured    = &Error{Kind: KindNotConfigured, Message: "no channel configured"}
)

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransientIO, KindNotFound, KindRateLimited:
		return true
	}
	return false
}

// rateLimited builds a RateLimited error carrying the wait time.
func rateLimited(wait time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Message: ErrRateLimited.Message, RetryAfter: wait}
}
