package model

import (
	"errors"
	"strings"
)

// ErrorKind classifies failures of the interview core.
type ErrorKind string

const (
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalidSelection  ErrorKind = "invalid_selection"
	KindNotConfigured     ErrorKind = "not_configured"
	KindIntake            ErrorKind = "intake_error"
	KindSubmission        ErrorKind = "submission_error"
	KindGeneration        ErrorKind = "generation_error"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindSchemaViolation   ErrorKind = "schema_violation"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInvalidSelection  = &Error{Kind: KindInvalidSelection}
	ErrNotConfigured     = &Error{Kind: KindNotConfigured}
	ErrIntake            = &Error{Kind: KindIntake}
	ErrSubmission        = &Error{Kind: KindSubmission}
	ErrGeneration        = &Error{Kind: KindGeneration}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrSchemaViolation   = &Error{Kind: KindSchemaViolation}
)

// Error is a typed failure of one interview operation.
type Error struct {
	Kind  ErrorKind
	Op    string // operation that failed, e.g. "llm.generate"
	Field string // offending field for schema violations
	Raw   string // raw model output for malformed responses; operator use only
	Msg   string
	Err   error
}

// NewError builds an *Error of the given kind.
func NewError(kind ErrorKind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op + ": ")
	}
	sb.WriteString(string(e.Kind))
	if e.Field != "" {
		sb.WriteString(" (field " + e.Field + ")")
	}
	if e.Msg != "" {
		sb.WriteString(": " + e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
