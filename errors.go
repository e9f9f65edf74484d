package jsnative

import (
	"errors"
	"fmt"
)

// ErrorKind classifies native failures. Backends map kinds to script error
// constructors when a failure crosses a trampoline.
type ErrorKind int

const (
	// GenericError is any native failure without a more specific kind.
	GenericError ErrorKind = iota
	// ArgumentTypeError means an argument did not have the type a method
	// required. Raised as a script TypeError.
	ArgumentTypeError
	// ReferenceError means a method was called on a receiver without
	// instance data. Raised as a script ReferenceError.
	ReferenceError
	// ConstructorError means custom constructor logic failed.
	ConstructorError
)

func (k ErrorKind) String() string {
	switch k {
	case ArgumentTypeError:
		return "TypeError"
	case ReferenceError:
		return "ReferenceError"
	case ConstructorError:
		return "ConstructorError"
	default:
		return "Error"
	}
}

// ScriptName returns the name of the script error constructor used to raise
// errors of this kind.
func (k ErrorKind) ScriptName() string {
	switch k {
	case ArgumentTypeError:
		return "TypeError"
	case ReferenceError:
		return "ReferenceError"
	default:
		return "Error"
	}
}

// Error is a classified native failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Errorf returns a GenericError.
func Errorf(format string, args ...any) error {
	return &Error{Kind: GenericError, Message: fmt.Sprintf(format, args...)}
}

// TypeErrorf returns an ArgumentTypeError.
//
//	if ctx.Type(0) != jsnative.TypeString {
//	    return 0, jsnative.TypeErrorf("argument 0: expected string")
//	}
func TypeErrorf(format string, args ...any) error {
	return &Error{Kind: ArgumentTypeError, Message: fmt.Sprintf(format, args...)}
}

// ReferenceErrorf returns a ReferenceError.
func ReferenceErrorf(format string, args ...any) error {
	return &Error{Kind: ReferenceError, Message: fmt.Sprintf(format, args...)}
}

// ConstructorErrorf returns a ConstructorError wrapping cause.
func ConstructorErrorf(cause error, format string, args ...any) error {
	return &Error{Kind: ConstructorError, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// GenericError.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return GenericError
}

var (
	// ErrBuilderConsumed is returned when a Builder is materialized twice.
	ErrBuilderConsumed = errors.New("class builder already consumed")
	// ErrStaleHandle is returned for a handle whose entry was released.
	ErrStaleHandle = errors.New("stale handle")
	// ErrCheckedOut is returned when an entry is released while checked
	// out.
	ErrCheckedOut = errors.New("handle is checked out")
	// ErrNotCheckedOut is returned when checking in a resident entry.
	ErrNotCheckedOut = errors.New("handle is not checked out")
	// ErrClosed is returned by operations on a closed Registry.
	ErrClosed = errors.New("registry closed")
)

// ProtocolError reports a broken ownership invariant: a reserved key the
// protocol guarantees is missing, or a handle in the wrong state. It
// indicates a defect in the binding layer, not a script error, and is raised
// with panic.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("jsnative: protocol violation in %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func errMissingKey(key string) error {
	return fmt.Errorf("reserved key %q missing or not a handle", key[len(HiddenPrefix):])
}

func errWrongKind(h Handle, got, want Kind) error {
	return fmt.Errorf("handle %v holds a %s, expected a %s", h, got, want)
}
