package camel

import (
	"errors"
	"fmt"
)

// Kinds of failure reported by the parser. They are wrapped in a *SyntaxError
// and can be tested with errors.Is.
var (
	ErrNoContent              = errors.New("no content")
	ErrInvalidDocumentClass   = errors.New("invalid document class")
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidField           = errors.New("invalid field")
	ErrMissingInput           = errors.New("missing input file")
	ErrMismatchedEnvironment  = errors.New("mismatched environment")
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")
	ErrDuplicateLabel         = errors.New("duplicate label")
	ErrUnresolvedReference    = errors.New("unresolved reference")
)

// SyntaxError locates a problem in the source files.
// Line and Column are 1-based; zero means unknown.
type SyntaxError struct {
	Filename string
	Line     int
	Column   int
	Msg      string
	Err      error
}

func (e *SyntaxError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = e.Err.Error() + ": " + msg
		}
	}
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Filename, msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
