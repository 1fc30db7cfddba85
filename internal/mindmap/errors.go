package mindmap

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure while producing or adopting a document.
type Kind string

const (
	KindSchema      Kind = "schema_error"       // malformed or missing required fields
	KindRange       Kind = "range_error"        // inverted, negative or non-finite time range
	KindResource    Kind = "resource_error"     // generation call failed
	KindStaleResult Kind = "stale_result_error" // generation finished after being superseded
)

// Error is a typed mind-map error. Node is the offending node index, or -1.
type Error struct {
	Kind    Kind
	Message string
	Node    int
	Err     error
}

func (e *Error) Error() string {
	if e.Node >= 0 {
		return fmt.Sprintf("%s: node %d: %s", e.Kind, e.Node, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindSchema, KindRange:
		return http.StatusUnprocessableEntity
	case KindResource:
		return http.StatusBadGateway
	case KindStaleResult:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewSchemaError reports a malformed document.
func NewSchemaError(node int, format string, args ...any) *Error {
	return &Error{Kind: KindSchema, Node: node, Message: fmt.Sprintf(format, args...)}
}

// NewRangeError reports an invalid time range.
func NewRangeError(node int, format string, args ...any) *Error {
	return &Error{Kind: KindRange, Node: node, Message: fmt.Sprintf(format, args...)}
}

// NewResourceError wraps a failed generation call.
func NewResourceError(err error) *Error {
	msg := "generation failed"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindResource, Node: -1, Message: msg, Err: err}
}

// NewStaleResultError reports a generation result whose request was superseded.
func NewStaleResultError(ticket string) *Error {
	return &Error{Kind: KindStaleResult, Node: -1, Message: fmt.Sprintf("request %s was superseded", ticket)}
}

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Kind
	}
	return ""
}
