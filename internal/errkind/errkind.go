// Package errkind classifies the failures the context engine reports to
// its caller.
//
// Local I/O problems (StoreUnavailable, ExternalLogUnavailable) are
// recoverable and usually only logged. Structural problems
// (Configuration, BudgetInfeasible) and failed writes are surfaced.
package errkind

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration          = errors.New("configuration error")
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrExternalLogUnavailable = errors.New("external log unavailable")
	ErrBudgetInfeasible       = errors.New("budget infeasible")
	ErrWriteFailure           = errors.New("write failure")
)

// Error wraps a failure with its kind, the operation that produced it,
// and the task or section ids involved.
type Error struct {
	Kind error
	Op   string
	IDs  []string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.IDs, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an *Error of the given kind.
func New(kind error, op string, err error, ids ...string) *Error {
	return &Error{Kind: kind, Op: op, IDs: ids, Err: err}
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(kind error, op string, ids []string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, IDs: ids, Err: fmt.Errorf(format, args...)}
}

// IDs returns the ids attached to err, if it carries any.
func IDs(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.IDs
	}
	return nil
}

// ExitCode maps an error to the process exit code used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return 2
	case errors.Is(err, ErrBudgetInfeasible):
		return 3
	case errors.Is(err, ErrWriteFailure):
		return 4
	default:
		return 1
	}
}
