package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrMalformedInput = errors.New("malformed edge list")
	ErrEmptyGraph     = errors.New("graph has no edges")
)

// Error provides structured error information for graph store operations.
type Error struct {
	Op      string // Operation that failed (e.g., "remove", "load")
	Node    int    // Original index (if applicable, -1 otherwise)
	Line    int    // Input line number for load errors (0 if not applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Node >= 0:
		return fmt.Sprintf("%s node %d: %v", e.Op, e.Node, e.Cause)
	case e.Line > 0 && e.Context != "":
		return fmt.Sprintf("%s line %d (%s): %v", e.Op, e.Line, e.Context, e.Cause)
	case e.Line > 0:
		return fmt.Sprintf("%s line %d: %v", e.Op, e.Line, e.Cause)
	case e.Context != "":
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building graph errors.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op, Node: -1}}
}

// Node sets the original index the error refers to.
func (b *ErrorBuilder) Node(oi int) *ErrorBuilder {
	b.err.Node = oi
	return b
}

// Line sets the input line number.
func (b *ErrorBuilder) Line(n int) *ErrorBuilder {
	b.err.Line = n
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// NodeNotFoundError creates a node not found error for the given operation.
func NodeNotFoundError(op string, oi int) error {
	return NewError(op).Node(oi).Cause(ErrNodeNotFound).Err()
}

// MalformedLineError creates a load error pointing at an input line.
func MalformedLineError(line int, context string) error {
	return NewError("load").Line(line).Context(context).Cause(ErrMalformedInput).Err()
}

// IsNotFound returns true if the error is a node not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsMalformed returns true if the error was raised while parsing input.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}
