// Package fault defines the error classification shared by request parsing,
// the worker pool, and the response renderer. Handlers and mediators add
// human-readable context with %w wrapping; the classification of the
// underlying error survives the chain and is read back with errors.Is and
// errors.As at render time.
package fault

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a request with no resolvable principal.
var ErrUnauthorized = errors.New("Unauthorized")

// BadRequestError reports malformed or missing request input.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return "Bad request: " + e.Message
}

// BadRequest builds a BadRequestError with a formatted message.
func BadRequest(format string, args ...any) error {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// BadParameterError reports a single request parameter that failed validation.
type BadParameterError struct {
	Name   string
	Reason string
}

func (e *BadParameterError) Error() string {
	return fmt.Sprintf("Bad parameter %q: %s", e.Name, e.Reason)
}

// BadParameter builds a BadParameterError.
func BadParameter(name, reason string) error {
	return &BadParameterError{Name: name, Reason: reason}
}

// NotFoundError reports an unknown entity referenced by id.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Not found: %s %d", e.Kind, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(kind string, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// NotFoundGeneralError reports a missing entity without a concrete id.
type NotFoundGeneralError struct {
	Message string
}

func (e *NotFoundGeneralError) Error() string {
	return "Not found: " + e.Message
}

// NotFoundGeneral builds a NotFoundGeneralError with a formatted message.
func NotFoundGeneral(format string, args ...any) error {
	return &NotFoundGeneralError{Message: fmt.Sprintf(format, args...)}
}

// Wrap prepends context to err without changing its classification. A nil err
// returns nil.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsUser reports whether err carries one of the user-facing classifications.
// Everything else is internal and must never reach a client verbatim.
func IsUser(err error) bool {
	if err == nil {
		return false
	}
	var (
		badRequest      *BadRequestError
		badParameter    *BadParameterError
		notFound        *NotFoundError
		notFoundGeneral *NotFoundGeneralError
	)
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.As(err, &badRequest),
		errors.As(err, &badParameter),
		errors.As(err, &notFound),
		errors.As(err, &notFoundGeneral):
		return true
	}
	return false
}

// HTTPStatus maps err's classification to its conventional status code.
// Internal errors map to 500.
func HTTPStatus(err error) int {
	var (
		badRequest      *BadRequestError
		badParameter    *BadParameterError
		notFound        *NotFoundError
		notFoundGeneral *NotFoundGeneralError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.As(err, &badRequest), errors.As(err, &badParameter):
		return 400
	case errors.As(err, &notFound), errors.As(err, &notFoundGeneral):
		return 404
	default:
		return 500
	}
}

// UserMessage returns the display message of the classified error inside
// err's chain, stripped of any context wrapping added on the way up. Callers
// must only use it for errors where IsUser reports true.
func UserMessage(err error) string {
	if errors.Is(err, ErrUnauthorized) {
		return ErrUnauthorized.Error()
	}
	var badRequest *BadRequestError
	if errors.As(err, &badRequest) {
		return badRequest.Error()
	}
	var badParameter *BadParameterError
	if errors.As(err, &badParameter) {
		return badParameter.Error()
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return notFound.Error()
	}
	var notFoundGeneral *NotFoundGeneralError
	if errors.As(err, &notFoundGeneral) {
		return notFoundGeneral.Error()
	}
	return err.Error()
}
