package compiler

import (
	"errors"
	"fmt"
)

// Compile error kinds. The first error aborts compilation and is returned
// as a *CompileError wrapping one of these.
var (
	ErrDuplicateBinding  = errors.New("duplicate binding")
	ErrUnboundVariable   = errors.New("unbound variable")
	ErrUnresolvedCall    = errors.New("unresolved call")
	ErrMalformedConstant = errors.New("malformed constant")
	ErrArityMismatch     = errors.New("arity mismatch")
	ErrInvalidPipeline   = errors.New("invalid pipeline")
)

// CompileError is a compile error with the source line it was raised at.
type CompileError struct {
	Line int
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
