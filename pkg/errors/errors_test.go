package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes(t *testing.T) {
	assert.Equal(t, ErrorType(0), Internal)
	assert.Equal(t, ErrorType(1), NotFound)
	assert.Equal(t, ErrorType(2), BadRequest)
	assert.Equal(t, ErrorType(3), Arity)
	assert.Equal(t, ErrorType(4), UnsupportedCapability)
	assert.Equal(t, ErrorType(5), ValueShape)
}

func TestErrorType_StringRoundTrip(t *testing.T) {
	for _, typ := range []ErrorType{Internal, NotFound, BadRequest, Arity, UnsupportedCapability, ValueShape} {
		assert.Equal(t, typ, ParseErrorType(typ.String()))
	}
	assert.Equal(t, Internal, ParseErrorType("SOMETHING_ELSE"))
}

func TestAppErrorWrapping(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := NewInternalError("", "test message", "TEST_CODE", originalErr)

	assert.Equal(t, Internal, wrappedErr.Type)
	assert.Equal(t, "TEST_CODE", wrappedErr.Code)
	assert.Equal(t, "[TEST_CODE] test message: original error", wrappedErr.Error())
	assert.ErrorIs(t, wrappedErr, originalErr)
	assert.ErrorIs(t, wrappedErr, ErrInternal)
}

func TestCategorySentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		check    func(error) bool
	}{
		{"arity", NewArityError("graph/isneighbormultiple", 1, 0), ErrArity, IsArity},
		{"capability", NewUnsupportedCapabilityError("graph/removeedgemultiple", "mutation", 42), ErrUnsupportedCapability, IsUnsupportedCapability},
		{"shape", NewValueShapeError("string", 3), ErrValueShape, IsValueShape},
		{"not found", NewNotFoundError("graph/unknown", "action is not registered", "ACTION_NOT_FOUND"), ErrNotFound, IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.True(t, tt.check(tt.err))

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped), "category must survive wrapping")
			assert.NotErrorIs(t, tt.err, ErrInternal)
		})
	}
}

func TestNewArityError_Message(t *testing.T) {
	err := NewArityError("graph/outedgessingle", 1, 0)
	assert.Equal(t, "[ARITY_MISMATCH] graph/outedgessingle: expected at least 1 argument(s), got 0", err.Error())
}

func TestWithAction(t *testing.T) {
	base := NewValueShapeError("graph handle", "text")
	annotated := WithAction(base, "graph/neighborsmultiple")

	var appErr *AppError
	require.ErrorAs(t, annotated, &appErr)
	assert.Equal(t, "graph/neighborsmultiple", appErr.Action)
	assert.Empty(t, base.Action, "original must not be mutated")

	again := WithAction(annotated, "other")
	require.ErrorAs(t, again, &appErr)
	assert.Equal(t, "graph/neighborsmultiple", appErr.Action)

	plain := errors.New("plain")
	assert.Same(t, plain, WithAction(plain, "x"))
}

func TestWithAction_KeepsWrapperContext(t *testing.T) {
	wrapped := fmt.Errorf("argument 0: %w", NewValueShapeError("graph handle", "text"))

	got := WithAction(wrapped, "graph/neighborsmultiple")
	assert.Same(t, wrapped, got)
	assert.Contains(t, got.Error(), "argument 0:")
	assert.True(t, IsValueShape(got))
}

func TestNewInvalidSizeError(t *testing.T) {
	err := NewInvalidSizeError("graph/x", "window", 0)
	assert.True(t, IsArity(err))
	assert.Equal(t, "INVALID_WINDOW", err.Code)
	assert.Equal(t, "[INVALID_WINDOW] graph/x: window size 0 cannot be satisfied", err.Error())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, Arity, TypeOf(fmt.Errorf("x: %w", NewArityError("a", 1, 0))))
	assert.Equal(t, Internal, TypeOf(errors.New("plain")))
}
