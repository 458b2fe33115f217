// Package apperrors defines the domain error kinds raised by the
// directory and token services. The RPC dispatcher is the only place
// that translates them into wire codes; nothing below it writes a
// response.
package apperrors

import "errors"

type Kind int

const (
	KindValidation Kind = iota
	KindForbidden
	KindNotFound
	KindWriteForbidden
	KindWriteNotFound
	KindConflict
	KindInternal
)

type Error struct {
	kind    Kind
	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Kind() Kind {
	return e.kind
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Validation(message string) *Error     { return New(KindValidation, message) }
func Forbidden(message string) *Error      { return New(KindForbidden, message) }
func NotFound(message string) *Error       { return New(KindNotFound, message) }
func WriteForbidden(message string) *Error { return New(KindWriteForbidden, message) }
func WriteNotFound(message string) *Error  { return New(KindWriteNotFound, message) }
func Conflict(message string) *Error       { return New(KindConflict, message) }

// KindOf returns the kind of a domain error, or KindInternal for
// anything that did not originate here.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind() == kind
}
