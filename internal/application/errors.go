package application

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies application errors for transport mapping.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindDependency
)

// HTTPStatus maps the kind to its response status.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a client-safe Message. Err is the internal cause and is never rendered.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func ValidationError(msg string) *Error            { return newError(KindValidation, msg, nil) }
func ConflictError(msg string) *Error              { return newError(KindConflict, msg, nil) }
func AuthenticationError(msg string) *Error        { return newError(KindAuthentication, msg, nil) }
func AuthorizationError(msg string) *Error         { return newError(KindAuthorization, msg, nil) }
func NotFoundError(msg string) *Error              { return newError(KindNotFound, msg, nil) }
func DependencyError(msg string, err error) *Error { return newError(KindDependency, msg, err) }

// Client-facing messages shared across flows.
const (
	MsgInvalidCredentials   = "invalid credentials"
	MsgPasswordLoginBlocked = "password sign-in is not available for this account"
	MsgUnauthorized         = "unauthorized"
	MsgForbidden            = "forbidden"
	MsgUserNotFound         = "user not found"
	MsgEmailTaken           = "email already registered"
	MsgResetSent            = "if the email exists, a reset link has been sent"
	MsgResetMailFailed      = "failed to send reset email"
	MsgInvalidResetToken    = "invalid or expired token"
	MsgInternal             = "internal server error"
)

var (
	ErrInvalidCredentials = AuthenticationError(MsgInvalidCredentials)
	ErrUnauthorized       = AuthenticationError(MsgUnauthorized)
	ErrInvalidResetToken  = ValidationError(MsgInvalidResetToken)
	ErrUserNotFound       = NotFoundError(MsgUserNotFound)
)

// KindOf returns the kind of err, or KindDependency for anything unclassified.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindDependency
}
