package vm

import (
	"errors"
	"fmt"
)

// Runtime error kinds. RuntimeError wraps one of these; match with
// errors.Is.
var (
	ErrStackUnderflow       = errors.New("stack underflow")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrInvalidConstantIndex = errors.New("invalid constant index")
	ErrInvalidFunctionIndex = errors.New("invalid function index")
	ErrMissingReturnAddress = errors.New("missing return address")
	ErrUnboundVariable      = errors.New("unbound variable")
	ErrDanglingPointer      = errors.New("dangling heap pointer")
	ErrStackOverflow        = errors.New("stack overflow")
	ErrInvalidInstruction   = errors.New("invalid instruction")
	ErrInvalidJumpTarget    = errors.New("invalid jump target")
	ErrFrameUnderflow       = errors.New("cannot return from top-level frame")
)

// RuntimeError is the first error raised while executing, annotated with
// the source line of the failing instruction.
type RuntimeError struct {
	Line int
	PC   int
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] %v", e.Line, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// typeMismatch builds an ErrTypeMismatch naming the operation and operand
// types.
func typeMismatch(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}

func underflow(op Opcode) error {
	return fmt.Errorf("%w in %s", ErrStackUnderflow, op)
}
