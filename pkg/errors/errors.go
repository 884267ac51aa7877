package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArity indicates that an action received fewer arguments than it requires
	ErrArity = errors.New("arity mismatch")

	// ErrUnsupportedCapability indicates that a handle lacks the capability an action needs
	ErrUnsupportedCapability = errors.New("unsupported capability")

	// ErrValueShape indicates that a value could not be narrowed to the expected type
	ErrValueShape = errors.New("unexpected value shape")

	// ErrNotFound indicates that a named resource (action, handle, snapshot) does not exist
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates a malformed request payload
	ErrBadRequest = errors.New("bad request")

	// ErrInternal indicates an infrastructure failure
	ErrInternal = errors.New("internal error")

	// ErrNotConnected indicates that the client is not connected to NATS
	ErrNotConnected = errors.New("not connected to NATS")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// ErrorType categorises an AppError
type ErrorType int

const (
	Internal ErrorType = iota
	NotFound
	BadRequest
	Arity
	UnsupportedCapability
	ValueShape
)

// String returns the wire name of the error type
func (t ErrorType) String() string {
	switch t {
	case NotFound:
		return "NOT_FOUND"
	case BadRequest:
		return "BAD_REQUEST"
	case Arity:
		return "ARITY"
	case UnsupportedCapability:
		return "UNSUPPORTED_CAPABILITY"
	case ValueShape:
		return "VALUE_SHAPE"
	default:
		return "INTERNAL"
	}
}

// ParseErrorType is the inverse of ErrorType.String. Unknown names map to Internal.
func ParseErrorType(s string) ErrorType {
	for _, t := range []ErrorType{NotFound, BadRequest, Arity, UnsupportedCapability, ValueShape} {
		if t.String() == s {
			return t
		}
	}
	return Internal
}

func (t ErrorType) sentinel() error {
	switch t {
	case NotFound:
		return ErrNotFound
	case BadRequest:
		return ErrBadRequest
	case Arity:
		return ErrArity
	case UnsupportedCapability:
		return ErrUnsupportedCapability
	case ValueShape:
		return ErrValueShape
	default:
		return ErrInternal
	}
}

// AppError is the structured error returned by actions and the service layer
type AppError struct {
	// Type is the error category
	Type ErrorType

	// Action is the name of the action or resource that failed, if any
	Action string

	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *AppError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Action != "" {
		prefix = fmt.Sprintf("[%s] %s:", e.Code, e.Action)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's category
func (e *AppError) Is(target error) bool {
	return target == e.Type.sentinel()
}

func newError(t ErrorType, action, message, code string, err error) *AppError {
	return &AppError{
		Type:    t,
		Action:  action,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewArityError reports that action needed at least want arguments and received got
func NewArityError(action string, want, got int) *AppError {
	return newError(Arity, action,
		fmt.Sprintf("expected at least %d argument(s), got %d", want, got),
		"ARITY_MISMATCH", nil)
}

// NewInvalidSizeError reports a window or skip size no argument list can satisfy
func NewInvalidSizeError(action, what string, size int) *AppError {
	return newError(Arity, action,
		fmt.Sprintf("%s size %d cannot be satisfied", what, size),
		"INVALID_"+strings.ToUpper(what), nil)
}

// NewUnsupportedCapabilityError reports that a handle does not offer capability
func NewUnsupportedCapabilityError(action, capability string, handle any) *AppError {
	return newError(UnsupportedCapability, action,
		fmt.Sprintf("handle of type %T does not support %s", handle, capability),
		"UNSUPPORTED_CAPABILITY", nil)
}

// NewValueShapeError reports that value could not be narrowed to expected
func NewValueShapeError(expected string, value any) *AppError {
	return newError(ValueShape, "",
		fmt.Sprintf("expected %s, got %T", expected, value),
		"VALUE_SHAPE", nil)
}

// NewNotFoundError creates a NotFound error for resource
func NewNotFoundError(resource, message, code string) *AppError {
	return newError(NotFound, resource, message, code, nil)
}

// NewBadRequestError creates a BadRequest error
func NewBadRequestError(resource, message, code string, err error) *AppError {
	return newError(BadRequest, resource, message, code, err)
}

// NewInternalError creates an Internal error wrapping err
func NewInternalError(resource, message, code string, err error) *AppError {
	return newError(Internal, resource, message, code, err)
}

// WithAction returns a copy of err carrying action when err is itself an AppError
// without one. Other errors, including wrapped AppErrors, are returned unchanged.
func WithAction(err error, action string) error {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Action != "" {
		return err
	}
	cp := *appErr
	cp.Action = action
	return &cp
}

// TypeOf returns the category of err. Errors that are not AppErrors are Internal.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return Internal
}

// IsArity checks if an error is an arity error
func IsArity(err error) bool {
	return errors.Is(err, ErrArity)
}

// IsUnsupportedCapability checks if an error is an unsupported capability error
func IsUnsupportedCapability(err error) bool {
	return errors.Is(err, ErrUnsupportedCapability)
}

// IsValueShape checks if an error is a value shape error
func IsValueShape(err error) bool {
	return errors.Is(err, ErrValueShape)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNotConnected checks if an error is a not connected error
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}
