// Package apperr defines the error taxonomy shared by every service. Errors
// carry a Kind (what went wrong, which decides the HTTP status), a stable Code
// for clients and a Retryable flag for upstream failures.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindDuplicate
	KindUpstream
	KindPersistence
	KindInvalidTransition
	KindNotLinked
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindNotLinked:
		return "not_linked"
	default:
		return "unknown"
	}
}

// Codes surfaced to callers.
const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicate           = "DUPLICATE"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	CodeUpstreamRejected    = "UPSTREAM_REJECTED"
	CodePersistence         = "PERSISTENCE_FAILED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeNotLinked           = "NOT_LINKED"
	CodeInternal            = "INTERNAL"
)

type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Retryable bool
	// Ref points at an existing entity where relevant (e.g. the product a
	// duplicate import collided with).
	Ref string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrDuplicate         = &Error{Kind: KindDuplicate}
	ErrUpstream          = &Error{Kind: KindUpstream}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrNotLinked         = &Error{Kind: KindNotLinked}
	ErrVersionConflict   = &Error{Kind: KindInvalidTransition, Code: CodeVersionConflict}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func ValidationCode(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", what, id)}
}

func Duplicate(message, ref string) *Error {
	return &Error{Kind: KindDuplicate, Code: CodeDuplicate, Message: message, Ref: ref}
}

func InvalidTransition(axis, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("%s cannot move from %q to %q", axis, from, to),
	}
}

func VersionConflict(id string) *Error {
	return &Error{
		Kind:      KindInvalidTransition,
		Code:      CodeVersionConflict,
		Message:   fmt.Sprintf("order %s was modified concurrently", id),
		Retryable: true,
	}
}

func NotLinked(id string) *Error {
	return &Error{Kind: KindNotLinked, Code: CodeNotLinked, Message: fmt.Sprintf("order %s is not linked to a provider order", id)}
}

func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Code: CodePersistence, Message: op, Err: err}
}

// Upstream reports a third-party failure. Unavailable and timeout failures
// are retryable; provider rejections are not.
func Upstream(code, service string, err error) *Error {
	return &Error{
		Kind:      KindUpstream,
		Code:      code,
		Message:   service + " request failed",
		Retryable: code != CodeUpstreamRejected,
		Err:       err,
	}
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

func IsRetryable(err error) bool {
	e, ok := As(err)
	return ok && e.Retryable
}

func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate, KindInvalidTransition, KindNotLinked:
		return http.StatusConflict
	case KindUpstream:
		if e.Code == CodeUpstreamTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
