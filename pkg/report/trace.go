package report

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Tracer is implemented by errors that render their own stack trace.
type Tracer interface {
	Trace() string
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// RenderTrace renders err for the "Exception stack trace" section: the error
// type and full message, the origin stack when one was captured with
// github.com/pkg/errors, and a "Caused by:" line for every wrapped cause.
// An error implementing Tracer renders itself; a Tracer deeper in the chain
// renders as the cause of the outer message.
func RenderTrace(err error) string {
	if err == nil {
		return ""
	}
	if t, ok := err.(Tracer); ok {
		return t.Trace()
	}
	var t Tracer
	if errors.As(err, &t) {
		return fmt.Sprintf("%s: %s\nCaused by: %s", typeName(err), err.Error(), t.Trace())
	}

	chain := causeChain(err)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", typeName(chain[0]), err.Error())
	if st := originStack(err); st != nil {
		for _, f := range st {
			fmt.Fprintf(&sb, "\tat %n(%s:%d)\n", f, f, f)
		}
	}
	for _, c := range chain[1:] {
		fmt.Fprintf(&sb, "Caused by: %s: %s\n", typeName(c), c.Error())
	}
	return sb.String()
}

// causeChain lists err and its causes, outermost first, leaving out wrappers
// that add nothing to the message (such as pkg/errors.WithStack).
func causeChain(err error) []error {
	var chain []error
	for e := err; e != nil; e = errors.Unwrap(e) {
		next := errors.Unwrap(e)
		if next != nil && next.Error() == e.Error() {
			continue
		}
		chain = append(chain, e)
	}
	return chain
}

// originStack returns the innermost captured stack, the one closest to where
// the error was created.
func originStack(err error) pkgerrors.StackTrace {
	var st pkgerrors.StackTrace
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s.StackTrace()
		}
	}
	return st
}

func typeName(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

// PanicError carries a recovered panic value and the stack of the goroutine
// that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

// NewPanicError captures the current goroutine's stack. Call it from the
// deferred function that recovered v.
func NewPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Trace renders the panic message followed by the goroutine dump.
func (e *PanicError) Trace() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if err := e.Unwrap(); err != nil {
		fmt.Fprintf(&sb, " [%s]", typeName(err))
	}
	sb.WriteString("\n\n")
	sb.Write(e.Stack)
	return sb.String()
}
