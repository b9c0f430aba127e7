package ir

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes compilation errors.
type ErrorKind uint8

const (
	// ErrUnsupportedFeature indicates an opcode, topology or stage feature
	// the target dialect does not implement.
	ErrUnsupportedFeature ErrorKind = iota

	// ErrUnsupportedType indicates a shape/component combination that has
	// no representation in the target dialect.
	ErrUnsupportedType

	// ErrInvalidOperand indicates wrong operand arity, an unassigned
	// operand slot or an out-of-range index.
	ErrInvalidOperand

	// ErrLookupFailure indicates a referenced name is absent from the Program.
	ErrLookupFailure

	// ErrTypeError indicates operand types that cannot be combined.
	ErrTypeError
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedFeature:
		return "UnsupportedFeature"
	case ErrUnsupportedType:
		return "UnsupportedType"
	case ErrInvalidOperand:
		return "InvalidOperand"
	case ErrLookupFailure:
		return "LookupFailure"
	case ErrTypeError:
		return "TypeError"
	default:
		return "Unknown"
	}
}

// Error is a compilation failure. Every Error aborts the compile that
// produced it.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Function names the function being compiled, if any.
	Function string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s in function %s: %s", e.Kind, e.Function, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a new error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a new error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InFunction returns a copy of the error attributed to function fn.
// An attribution already present is kept.
func (e *Error) InFunction(fn string) *Error {
	if e.Function != "" {
		return e
	}
	c := *e
	c.Function = fn
	return &c
}

// IsUnsupportedFeature returns true if the error is ErrUnsupportedFeature.
func (e *Error) IsUnsupportedFeature() bool {
	return e.Kind == ErrUnsupportedFeature
}

// IsInvalidOperand returns true if the error is ErrInvalidOperand.
func (e *Error) IsInvalidOperand() bool {
	return e.Kind == ErrInvalidOperand
}

// IsLookupFailure returns true if the error is ErrLookupFailure.
func (e *Error) IsLookupFailure() bool {
	return e.Kind == ErrLookupFailure
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
