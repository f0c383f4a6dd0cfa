package common

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slices"
	"zinc-compiler/internal/pkg/ast"
)

type Error struct {
	Location ast.Location
	Extra    []ast.Location
	Message  string
}

func (e Error) Error() string {
	sb := strings.Builder{}
	cursorString := e.Location.CursorString()
	if cursorString != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", cursorString, e.Message))
	}

	var uniqueExtra []ast.Location
	for _, e := range e.Extra {
		if !slices.ContainsFunc(uniqueExtra, func(x ast.Location) bool {
			return x.EqualsTo(e)
		}) {
			uniqueExtra = append(uniqueExtra, e)
		}
	}

	for _, extra := range uniqueExtra {
		sb.WriteString(fmt.Sprintf("+ %s\n", extra.CursorString()))
	}

	if e.Location.IsEmpty() {
		sb.WriteString(fmt.Sprintf("%s\n", e.Message))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func NewErrorAt(loc ast.Location, format string, args ...any) error {
	return errors.WithStack(Error{Location: loc, Message: fmt.Sprintf(format, args...)})
}

func NewSystemError(err error) error {
	return errors.Wrap(err, "system error")
}

// Unreachable panics with an internal compiler error.
func Unreachable(format string, args ...any) {
	panic(errors.AssertionFailedWithDepthf(1, format, args...))
}

func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(errors.AssertionFailedWithDepthf(1, format, args...))
	}
}

// Fail aborts a pass on a model it cannot lower. Recover returns the error.
func Fail(loc ast.Location, format string, args ...any) {
	panic(NewErrorAt(loc, format, args...))
}

// Recover turns an internal compiler error panic into an error that still
// satisfies errors.IsAssertionFailure, and returns errors raised by Fail
// unchanged. Other panics are re-raised.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		if errors.IsAssertionFailure(e) {
			*err = errors.NewAssertionErrorWithWrappedErrf(e, "internal compiler error")
			return
		}
		var located Error
		if errors.As(e, &located) {
			*err = e
			return
		}
	}
	panic(r)
}
