// Package kernel's error taxonomy collapses eventloop's ES2022-flavored
// PanicError/TypeError/RangeError/TimeoutError hierarchy into the small,
// POSIX-flavored set of failure codes a scheduler core actually returns.
package kernel

import "fmt"

// Code identifies the kind of failure a KernelError carries, analogous to a
// POSIX errno. Kept small and closed: every operation in this package
// returns one of these, never a bare fmt.Errorf.
type Code int

const (
	// InvalidArgument indicates a caller-supplied value (priority, affinity,
	// tick count) was out of range or otherwise nonsensical.
	InvalidArgument Code = iota + 1

	// NoSuchResource indicates a Tid, futex address, or other lookup key
	// did not resolve to anything live.
	NoSuchResource

	// NoChild indicates wait4 was called with no exited child available,
	// and no children exist at all (distinct from "none have exited yet").
	NoChild

	// NotConnected indicates an operation was attempted on a ThreadPool or
	// Processor that has already been stopped.
	NotConnected

	// NotSupported indicates a feature the host cannot provide (e.g. a real
	// futex syscall on a non-Linux GOOS) was requested.
	NotSupported

	// OutOfBuffers indicates an internal pool (Tid allocator, chunk pool)
	// could not satisfy an allocation — reserved for host resource
	// exhaustion, not expected in normal operation.
	OutOfBuffers
)

// String returns a short, lowercase name for the code, in the style of
// syscall.Errno's Error() strings.
func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "invalid argument"
	case NoSuchResource:
		return "no such resource"
	case NoChild:
		return "no child"
	case NotConnected:
		return "not connected"
	case NotSupported:
		return "not supported"
	case OutOfBuffers:
		return "out of buffers"
	default:
		return fmt.Sprintf("unknown code(%d)", int(c))
	}
}

// KernelError is the single error type this package returns. Op names the
// failing method (e.g. "ThreadPool.SetPriority"), Code classifies the
// failure, and Cause, if non-nil, is an underlying host error (a syscall
// failure from futex.go or syscalls.go).
type KernelError struct {
	Op    string
	Code  Code
	Cause error
}

// Error implements the error interface.
func (e *KernelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Unwrap returns Cause, enabling errors.Is/errors.As through the chain.
func (e *KernelError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *KernelError with the same Code, so
// callers can write errors.Is(err, &KernelError{Code: NoSuchResource})
// without caring about Op or Cause.
func (e *KernelError) Is(target error) bool {
	t, ok := target.(*KernelError)
	return ok && t.Code == e.Code
}

// newError constructs a *KernelError, omitting Cause when none is given.
func newError(op string, code Code, cause error) *KernelError {
	return &KernelError{Op: op, Code: code, Cause: cause}
}
