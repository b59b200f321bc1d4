package domain

import (
	"errors"
	"fmt"
)

// Error codes. Handlers translate them into HTTP status codes; the code is
// also returned to API clients so the storefront can branch on it.
const (
	EINVALID      = "invalid"      // 400
	EUNAUTHORIZED = "unauthorized" // 401 - webhook signature mismatch
	ENOTFOUND     = "not_found"    // 404
	ECONFLICT     = "conflict"     // 409 - owned item, used giftcard, joined event
	ETOOLARGE     = "too_large"    // 413
	ERATELIMIT    = "rate_limit"   // 429
	EINTERNAL     = "internal"     // 500
	EUNAVAILABLE  = "unavailable"  // 503 - Tebex down or request timed out
)

// internalMessage replaces the message of every EINTERNAL error before it
// reaches a player.
const internalMessage = "Er is iets misgegaan. Probeer het later opnieuw."

// Error is a coded application error. Message is safe to show to players,
// Op names the failing operation ("checkout.place") for logs.
type Error struct {
	Code    string
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ErrorCode returns the code of the outermost *Error in err's chain.
// Foreign errors are EINTERNAL; nil yields "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the player-facing message for err. Internal and
// foreign errors collapse to a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp returns the operation recorded on err, if any.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

func Errorf(code, op, format string, args ...any) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and message to err. A nil err stays nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

func NotFound(op, resource, identifier string) error {
	return &Error{Code: ENOTFOUND, Op: op, Message: fmt.Sprintf("%s not found: %s", resource, identifier)}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Internal wraps err as EINTERNAL. message is only logged.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// ValidationError collects request field failures keyed by JSON field name.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	prefix := ""
	if e.Op != "" {
		prefix = e.Op + ": "
	}
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return fmt.Sprintf("%s%s: %s", prefix, field, msg)
		}
	}
	return fmt.Sprintf("%s%d invalid fields", prefix, len(e.Fields))
}

func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError adds field to the ValidationError in err, or starts a new
// one when err is nil or of another type.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationFields returns the field map of a ValidationError, or nil.
func ValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
