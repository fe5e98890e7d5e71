// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Kind classifies a failure independently of the transport.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindDependency   Kind = "dependency"
	KindTimeout      Kind = "timeout"
	KindCanceled     Kind = "canceled"
	KindInternal     Kind = "internal"
)

// Error is the error type returned by the service layer.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string) error { return &Error{Kind: kind, Message: msg} }

func Validation(msg string) error   { return newErr(KindValidation, msg) }
func Unauthorized(msg string) error { return newErr(KindUnauthorized, msg) }
func NotFound(msg string) error     { return newErr(KindNotFound, msg) }
func Conflict(msg string) error     { return newErr(KindConflict, msg) }

// Dependency wraps a failure of an external collaborator (photo storage).
func Dependency(msg string, err error) error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// Map converts repo/infra errors into service errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: "record not found", Err: err}

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Message: "record already exists", Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Message: "request was canceled", Err: err}

	default:
		return &Error{Kind: KindInternal, Message: "internal error", Err: err}
	}
}

// FromValidator turns validator.ValidationErrors into a single Validation error
// naming every offending field.
func FromValidator(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Validation("invalid input")
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return Validation(strings.Join(parts, "; "))
}

// KindOf reports the kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(Map(err), &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch KindOf(err) {
	case KindValidation, KindConflict:
		return fiber.StatusBadRequest
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindNotFound:
		return fiber.StatusNotFound
	case KindDependency:
		return fiber.StatusBadGateway
	case KindTimeout:
		return fiber.StatusGatewayTimeout
	case KindCanceled:
		return 499
	default:
		return fiber.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show to clients.
func PublicMessage(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	var e *Error
	if errors.As(Map(err), &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
