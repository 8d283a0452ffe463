// Package errs provides the error type returned by every catalog fetch.
//
// Database clients wrap their native driver errors into *errs.Error before
// returning them, so callers can branch on the failure without importing
// pgx, go-sqlite3 or the MySQL driver:
//
//	stmts, err := desc.FetchTables(ctx, client)
//	if errs.IsPermissionDenied(err) {
//	    // role cannot read the catalog
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind refines a query-execution error without exposing driver codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindConnectionFailed         // cannot reach or authenticate to the database
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL error or unexpected row shape
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // catalog access rejected
	ErrKindNotFound                 // missing bucket or object in the upload sink
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by the database layer.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is an SQL execution or row-mapping failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsNotFound reports whether err names a resource that does not exist.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
