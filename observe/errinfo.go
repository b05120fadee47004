package observe

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorInfo is the failure attached to a log record and rendered as exc_info.
type ErrorInfo struct {
	Kind    string
	Message string
	Stack   string
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// NewErrorInfo describes err. The stack is the deepest pkg/errors stack trace
// in the wrap chain; errors without one get the stack of the caller.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	var st errors.StackTrace
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s.StackTrace()
		}
	}
	if st == nil {
		// WithStack starts at this frame; drop it.
		st = errors.WithStack(err).(stackTracer).StackTrace()
		if len(st) > 1 {
			st = st[1:]
		}
	}

	return &ErrorInfo{
		Kind:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Stack:   strings.TrimPrefix(fmt.Sprintf("%+v", st), "\n"),
	}
}

// PanicInfo describes a recovered panic value with the stack captured by
// debug.Stack.
func PanicInfo(v any, stack []byte) *ErrorInfo {
	kind := "panic"
	if _, ok := v.(error); ok {
		kind = fmt.Sprintf("panic(%T)", v)
	}
	return &ErrorInfo{
		Kind:    kind,
		Message: fmt.Sprint(v),
		Stack:   strings.TrimRight(string(stack), "\n"),
	}
}

// String renders "Kind: Message" followed by the stack on the next lines.
func (e *ErrorInfo) String() string {
	if e == nil {
		return ""
	}
	head := e.Kind + ": " + e.Message
	if e.Stack == "" {
		return head
	}
	return head + "\n" + e.Stack
}
