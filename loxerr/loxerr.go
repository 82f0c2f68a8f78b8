// Package loxerr defines the error kinds produced by each stage of the pipeline and their wire formats.
//
// Formatting here is deliberately plain: presenting diagnostics (colour, underlining, multi-line source snippets) is
// an external-collaborator concern, not the core's. A driver wraps these in nicer output; see main.go at the module
// root.
package loxerr

import (
	"fmt"
	"strings"

	"lox/token"
)

// LexError is reported by the scanner. The scanner surfaces the first lexical fault it hits and stops.
type LexError struct {
	Msg  string
	Line int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

// ParseError is reported by the parser. A single parse invocation collects as many as it can by synchronizing on
// statement boundaries.
type ParseError struct {
	Msg string
	Tok token.Token
}

func (e *ParseError) Error() string {
	if e.Tok.Kind == token.EOF {
		return fmt.Sprintf("[line %d] Error at end: %s", e.Tok.Line, e.Msg)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", e.Tok.Line, e.Tok.Lexeme, e.Msg)
}

// ParseErrors is a non-empty list of [*ParseError]s produced by a single parse.
type ParseErrors []*ParseError

func (e ParseErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns e unchanged as an error if it's non-empty, otherwise nil, so that a ParseErrors value which happens to
// be empty becomes an untyped nil error rather than a non-nil interface wrapping a nil-length slice.
func (e ParseErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ResolveError is reported by the resolver. The resolver surfaces the first rule violation it hits and halts the
// pipeline before evaluation begins.
type ResolveError struct {
	Msg  string
	Line int
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

// RuntimeError is reported by the interpreter. It halts the running program.
type RuntimeError struct {
	Msg string
	Tok token.Token
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Msg, e.Tok.Line)
}
