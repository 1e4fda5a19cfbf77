package apperr

import (
	stdErrors "errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindNotAuthenticated Kind = "NOT_AUTHENTICATED"
	KindForbidden        Kind = "FORBIDDEN"
	KindNotFound         Kind = "NOT_FOUND"
	KindDuplicate        Kind = "DUPLICATE_ENTITY"
	KindConflict         Kind = "CONFLICT"
	KindStoreRead        Kind = "STORE_READ_FAILURE"
	KindStoreWrite       Kind = "STORE_WRITE_FAILURE"
	KindInternal         Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:       fiber.StatusBadRequest,
	KindNotAuthenticated: fiber.StatusUnauthorized,
	KindForbidden:        fiber.StatusForbidden,
	KindNotFound:         fiber.StatusNotFound,
	KindDuplicate:        fiber.StatusConflict,
	KindConflict:         fiber.StatusConflict,
	KindStoreRead:        fiber.StatusInternalServerError,
	KindStoreWrite:       fiber.StatusInternalServerError,
	KindInternal:         fiber.StatusInternalServerError,
}

func StatusFor(kind Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// Error carries a kind that maps to an HTTP status and a message that is
// safe to show to the user. The cause is kept for logs only.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{kind: kind, message: message, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error of the same kind and message, so package level
// sentinels work with errors.Is even after Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.kind == t.kind && e.message == t.message
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsKind(err error, kind Kind) bool {
	typed := As(err)
	return typed != nil && typed.kind == kind
}

// Respond writes err as {"message": ...} with the status of its kind.
// Errors that are not *Error are reported as 500 with a generic message.
func Respond(c *fiber.Ctx, err error) error {
	if typed := As(err); typed != nil {
		return c.Status(StatusFor(typed.kind)).JSON(fiber.Map{"message": typed.message, "code": typed.kind})
	}
	var fe *fiber.Error
	if stdErrors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error", "code": KindInternal})
}

// ErrorHandler is the fiber.Config error handler. Errors that escape a
// handler, unmatched routes and oversized bodies all get the same
// {"message": ...} shape as Respond.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Respond(c, err)
}
