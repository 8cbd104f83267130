package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Store level errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrLoginTaken = errors.New("login is already taken")
)

// ErrorKind classifies client-visible failures.
type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindInvalidFormat
	KindConflict
	KindForbidden
	KindUnauthorized
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidFormat:
		return "invalid_format"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a tagged failure returned by the account services.
type Error struct {
	Kind    ErrorKind
	Message string
	Detail  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindConflict}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string, detail map[string]string) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func NewErrInvalidLoginFormat(login string) *Error {
	return NewError(KindInvalidFormat, "login must be an email address", map[string]string{"login": login})
}

func NewErrInvalidPasswordFormat() *Error {
	return NewError(KindInvalidFormat, "password must be 5 to 64 characters and not blank", nil)
}

func NewErrLoginIsTaken(login string) *Error {
	return NewError(KindConflict, fmt.Sprintf("login %s is already taken", login), map[string]string{"login": login})
}

func NewErrUserNotFound(id uuid.UUID) *Error {
	return NewError(KindNotFound, fmt.Sprintf("user %s not found", id), map[string]string{"user_id": id.String()})
}

func NewErrActivationNotRequired(id uuid.UUID) *Error {
	return NewError(KindConflict, fmt.Sprintf("user %s does not need activation", id), map[string]string{"user_id": id.String()})
}

func NewErrAlreadyBlocked(id uuid.UUID) *Error {
	return NewError(KindConflict, fmt.Sprintf("user %s is already blocked", id), map[string]string{"user_id": id.String()})
}

func NewErrNotBlocked(id uuid.UUID) *Error {
	return NewError(KindConflict, fmt.Sprintf("user %s is not blocked", id), map[string]string{"user_id": id.String()})
}

func NewErrInvalidCredentials() *Error {
	return NewError(KindUnauthorized, "invalid login or password", nil)
}

func NewErrAccessDenied(status UserStatus) *Error {
	return NewError(KindForbidden, fmt.Sprintf("access denied, account status: %s", status), map[string]string{"status": string(status)})
}

func NewErrPasswordMismatch() *Error {
	return NewError(KindForbidden, "password does not match", nil)
}

func NewErrAuthorizationFailed() *Error {
	return NewError(KindUnauthorized, "authorization has failed", nil)
}

func NewErrAccountNotActive(status UserStatus) *Error {
	return NewError(KindUnauthorized, fmt.Sprintf("account is not active: %s", status), map[string]string{"status": string(status)})
}

func NewErrSystemCredential() *Error {
	return NewError(KindForbidden, "system credential is missing or invalid", nil)
}
